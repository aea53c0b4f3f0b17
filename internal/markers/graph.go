// Package markers builds the dependency graph between measured markers and
// virtual anatomical landmarks, and synthesizes the virtual landmark
// trajectories from it.
package markers

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrCycle is returned when a virtual landmark transitively depends on itself.
	ErrCycle = errors.New("marker graph has a cycle")
	// ErrNoParents is returned for a virtual landmark declared without parents.
	ErrNoParents = errors.New("virtual marker has no parents")
	// ErrDuplicate is returned when a virtual landmark or one of its parents is declared twice.
	ErrDuplicate = errors.New("duplicate marker declaration")
	// ErrUnresolved is returned when a virtual landmark's parents are not all available.
	ErrUnresolved = errors.New("virtual marker cannot be resolved")
)

// node is a marker in the graph. IDs follow insertion order: real markers
// first, then virtual landmarks in table order.
type node struct {
	id   int64
	name string
}

func (n node) ID() int64 { return n.id }

// Graph is a validated, read-only DAG of real and virtual markers. Edges run
// from a contributing marker to the landmark it helps define.
type Graph struct {
	g       *simple.DirectedGraph
	nodes   map[string]node
	names   []string
	parents map[string][]string
	order   []string
}

// BuildGraph returns the marker graph for the given real marker names and the
// standard landmark derivation table.
func BuildGraph(realNames []string) (*Graph, error) {
	return BuildGraphFrom(realNames, Landmarks)
}

// BuildGraphFrom is BuildGraph with an explicit derivation table.
func BuildGraphFrom(realNames []string, table []Derivation) (*Graph, error) {
	gr := &Graph{
		g:       simple.NewDirectedGraph(),
		nodes:   make(map[string]node),
		parents: make(map[string][]string, len(table)),
	}
	for _, name := range realNames {
		gr.node(name)
	}

	for _, d := range table {
		if _, ok := gr.parents[d.Name]; ok {
			return nil, fmt.Errorf("virtual marker %q: %w", d.Name, ErrDuplicate)
		}
		if len(d.Parents) == 0 {
			return nil, fmt.Errorf("virtual marker %q: %w", d.Name, ErrNoParents)
		}
		to := gr.node(d.Name)
		seen := make(map[string]bool, len(d.Parents))
		for _, p := range d.Parents {
			if p == d.Name {
				return nil, fmt.Errorf("virtual marker %q derives from itself: %w", d.Name, ErrCycle)
			}
			if seen[p] {
				return nil, fmt.Errorf("virtual marker %q lists parent %q twice: %w", d.Name, p, ErrDuplicate)
			}
			seen[p] = true
			gr.g.SetEdge(gr.g.NewEdge(gr.node(p), to))
		}
		gr.parents[d.Name] = append([]string(nil), d.Parents...)
	}

	sorted, err := topo.SortStabilized(gr.g, nil)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			return nil, fmt.Errorf("%w: %s", ErrCycle, describeCycles(cycles))
		}
		return nil, fmt.Errorf("sorting marker graph: %w", err)
	}
	for _, n := range sorted {
		name := n.(node).name
		if _, ok := gr.parents[name]; ok {
			gr.order = append(gr.order, name)
		}
	}
	return gr, nil
}

func (gr *Graph) node(name string) node {
	if n, ok := gr.nodes[name]; ok {
		return n
	}
	n := node{id: int64(len(gr.names)), name: name}
	gr.nodes[name] = n
	gr.names = append(gr.names, name)
	gr.g.AddNode(n)
	return n
}

func describeCycles(cycles topo.Unorderable) string {
	parts := make([]string, 0, len(cycles))
	for _, c := range cycles {
		names := make([]string, 0, len(c))
		for _, n := range c {
			names = append(names, n.(node).name)
		}
		parts = append(parts, "["+strings.Join(names, " ")+"]")
	}
	return strings.Join(parts, ", ")
}

// Nodes returns every marker name in the graph, real markers first.
func (gr *Graph) Nodes() []string {
	return append([]string(nil), gr.names...)
}

// Derived returns the virtual landmarks in a topological order: every
// landmark comes after the landmarks it derives from.
func (gr *Graph) Derived() []string {
	return append([]string(nil), gr.order...)
}

// IsDerived reports whether name is a virtual landmark.
func (gr *Graph) IsDerived(name string) bool {
	_, ok := gr.parents[name]
	return ok
}

// Parents returns the declared parents of a virtual landmark in declaration
// order, or nil for a real marker.
func (gr *Graph) Parents(name string) []string {
	return append([]string(nil), gr.parents[name]...)
}

// Children returns the landmarks that name contributes to, in ID order.
func (gr *Graph) Children(name string) []string {
	n, ok := gr.nodes[name]
	if !ok {
		return nil
	}
	var out []string
	for _, c := range graph.NodesOf(gr.g.From(n.ID())) {
		out = append(out, c.(node).name)
	}
	sort.Slice(out, func(i, j int) bool { return gr.nodes[out[i]].id < gr.nodes[out[j]].id })
	return out
}
