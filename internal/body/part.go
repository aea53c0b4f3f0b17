// Package body is the fixed full-body model: the segments (parts) whose
// frames are built from markers, and the joints whose angles are measured
// between adjacent segments.
package body

import (
	"errors"
	"fmt"

	"github.com/banshee-data/swing.kinematics/internal/geometry"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrConfiguration matches every body model configuration error.
var ErrConfiguration = errors.New("body model configuration error")

// ConfigurationError reports an invalid part, joint or marker declaration.
// Kind is one of "part", "joint", "marker" or "model".
type ConfigurationError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func configErr(kind, name, format string, args ...interface{}) error {
	return &ConfigurationError{Kind: kind, Name: name, Reason: fmt.Sprintf(format, args...)}
}

// AxisPair names two markers whose difference To - From gives a direction.
type AxisPair struct {
	From string
	To   string
}

// IsZero reports whether the pair is unset.
func (p AxisPair) IsZero() bool { return p.From == "" && p.To == "" }

func (p AxisPair) String() string { return p.To + "-" + p.From }

// Part is a body segment. Its frame is either primary Y with the auxiliary
// direction in the YZ plane, or primary X with the auxiliary direction in
// the XZ plane.
type Part struct {
	Name   string
	Origin string
	Y      AxisPair
	YZ     AxisPair
	X      AxisPair
	XZ     AxisPair
}

// FramesName is the pose channel holding the part's frames.
func (p Part) FramesName() string { return p.Name + "_frames" }

// Validate checks that exactly one primary/auxiliary combination is set.
func (p Part) Validate() error {
	if p.Name == "" {
		return configErr("part", p.Name, "missing name")
	}
	if p.Origin == "" {
		return configErr("part", p.Name, "missing origin marker")
	}
	hasY := !p.Y.IsZero() || !p.YZ.IsZero()
	hasX := !p.X.IsZero() || !p.XZ.IsZero()
	switch {
	case hasY && hasX:
		return configErr("part", p.Name, "both primary-Y and primary-X directions are set")
	case !hasY && !hasX:
		return configErr("part", p.Name, "neither primary-Y nor primary-X direction is set")
	}
	primary, auxiliary := p.directions()
	for _, pair := range []AxisPair{primary, auxiliary} {
		if pair.From == "" || pair.To == "" {
			return configErr("part", p.Name, "direction %q needs two markers", pair)
		}
		if pair.From == pair.To {
			return configErr("part", p.Name, "direction %q uses one marker twice", pair)
		}
	}
	return nil
}

// Construction returns how the part's frame is built.
func (p Part) Construction() geometry.Construction {
	if !p.X.IsZero() {
		return geometry.PrimaryXPlaneXZ
	}
	return geometry.PrimaryYPlaneYZ
}

func (p Part) directions() (primary, auxiliary AxisPair) {
	if p.Construction() == geometry.PrimaryXPlaneXZ {
		return p.X, p.XZ
	}
	return p.Y, p.YZ
}

// Markers returns the marker names the part reads: origin, primary pair,
// auxiliary pair.
func (p Part) Markers() []string {
	primary, auxiliary := p.directions()
	return []string{p.Origin, primary.From, primary.To, auxiliary.From, auxiliary.To}
}

// Frames builds the part's pose at every sample of s. A sample where any
// marker is undefined gets an undefined pose. A marker missing from s is a
// configuration error.
func (p Part) Frames(s *timeseries.Series) ([]geometry.Pose, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	names := p.Markers()
	channels := make([][]r3.Vec, len(names))
	for i, name := range names {
		pts, err := s.Points(name)
		if err != nil {
			return nil, configErr("part", p.Name, "marker %q is not available", name)
		}
		channels[i] = pts
	}
	origin, pFrom, pTo, aFrom, aTo := channels[0], channels[1], channels[2], channels[3], channels[4]

	c := p.Construction()
	poses := make([]geometry.Pose, s.Len())
	for i := range poses {
		poses[i] = geometry.NewFrame(
			origin[i],
			r3.Sub(pTo[i], pFrom[i]),
			r3.Sub(aTo[i], aFrom[i]),
			c,
		)
	}
	return poses, nil
}
