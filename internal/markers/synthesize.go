package markers

import (
	"fmt"
	"strings"

	"github.com/banshee-data/swing.kinematics/internal/geometry"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"gonum.org/v1/gonum/spatial/r3"
)

// UnresolvedError names a virtual landmark and the parents missing from the
// input. It unwraps to ErrUnresolved.
type UnresolvedError struct {
	Marker  string
	Missing []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("virtual marker %q: missing %s", e.Marker, strings.Join(e.Missing, ", "))
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

// Synthesize returns a widened copy of s holding every virtual landmark of gr.
// Landmarks are visited in topological order. A landmark whose name is
// already a point channel of s passes through untouched; otherwise its
// position at each sample is the mean of its parents at that sample, so an
// undefined parent leaves only that sample undefined. s is not modified.
func Synthesize(gr *Graph, s *timeseries.Series) (*timeseries.Series, error) {
	out := s.Clone()
	for _, name := range gr.order {
		if out.HasPoints(name) {
			continue
		}
		parents := gr.parents[name]
		channels := make([][]r3.Vec, 0, len(parents))
		var missing []string
		for _, p := range parents {
			pts, err := out.Points(p)
			if err != nil {
				missing = append(missing, p)
				continue
			}
			channels = append(channels, pts)
		}
		if len(missing) > 0 {
			return nil, &UnresolvedError{Marker: name, Missing: missing}
		}

		values := make([]r3.Vec, out.Len())
		sample := make([]r3.Vec, len(channels))
		for i := range values {
			for j, ch := range channels {
				sample[j] = ch[i]
			}
			values[i] = geometry.Mean(sample...)
		}
		if err := out.AddPoints(name, values); err != nil {
			return nil, fmt.Errorf("virtual marker %q: %w", name, err)
		}
	}
	return out, nil
}
