// Package timeseries holds one trial's sampled data: a strictly increasing
// time base and named channels of 3D points and segment poses. Channels are
// append-only; once written a channel is never replaced.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/swing.kinematics/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrChannelExists is returned when writing a channel name that is already present.
	ErrChannelExists = errors.New("channel already exists")
	// ErrLength is returned when a channel's length does not match the time base.
	ErrLength = errors.New("channel length does not match time base")
	// ErrTimeOrder is returned when time stamps are not strictly increasing.
	ErrTimeOrder = errors.New("time stamps must be strictly increasing")
	// ErrNoChannel is returned when reading a channel that does not exist.
	ErrNoChannel = errors.New("no such channel")
)

// Series is the time base plus the named channels of one trial.
// A Series is not safe for concurrent writers; each trial owns its own.
type Series struct {
	time   []float64
	points map[string][]r3.Vec
	poses  map[string][]geometry.Pose
}

// New creates an empty series over the given time stamps.
func New(time []float64) (*Series, error) {
	for i := 1; i < len(time); i++ {
		if !(time[i] > time[i-1]) {
			return nil, fmt.Errorf("sample %d (t=%g after t=%g): %w", i, time[i], time[i-1], ErrTimeOrder)
		}
	}
	t := make([]float64, len(time))
	copy(t, time)
	return &Series{
		time:   t,
		points: make(map[string][]r3.Vec),
		poses:  make(map[string][]geometry.Pose),
	}, nil
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.time) }

// Time returns a copy of the time stamps.
func (s *Series) Time() []float64 {
	t := make([]float64, len(s.time))
	copy(t, s.time)
	return t
}

// SampleRate returns the sampling frequency in Hz estimated from the mean
// interval, or 0 for fewer than two samples.
func (s *Series) SampleRate() float64 {
	if len(s.time) < 2 {
		return 0
	}
	span := s.time[len(s.time)-1] - s.time[0]
	return float64(len(s.time)-1) / span
}

// IsUniform reports whether every sampling interval is within tol seconds of
// the mean interval.
func (s *Series) IsUniform(tol float64) bool {
	if len(s.time) < 3 {
		return true
	}
	mean := (s.time[len(s.time)-1] - s.time[0]) / float64(len(s.time)-1)
	for i := 1; i < len(s.time); i++ {
		if math.Abs(s.time[i]-s.time[i-1]-mean) > tol {
			return false
		}
	}
	return true
}

// AddPoints writes a new point channel. The slice is copied.
func (s *Series) AddPoints(name string, values []r3.Vec) error {
	if s.has(name) {
		return fmt.Errorf("point channel %q: %w", name, ErrChannelExists)
	}
	if len(values) != len(s.time) {
		return fmt.Errorf("point channel %q has %d samples, want %d: %w", name, len(values), len(s.time), ErrLength)
	}
	v := make([]r3.Vec, len(values))
	copy(v, values)
	s.points[name] = v
	return nil
}

// AddPoses writes a new pose channel. The slice is copied.
func (s *Series) AddPoses(name string, values []geometry.Pose) error {
	if s.has(name) {
		return fmt.Errorf("pose channel %q: %w", name, ErrChannelExists)
	}
	if len(values) != len(s.time) {
		return fmt.Errorf("pose channel %q has %d samples, want %d: %w", name, len(values), len(s.time), ErrLength)
	}
	v := make([]geometry.Pose, len(values))
	copy(v, values)
	s.poses[name] = v
	return nil
}

func (s *Series) has(name string) bool {
	if _, ok := s.points[name]; ok {
		return true
	}
	_, ok := s.poses[name]
	return ok
}

// HasPoints reports whether a point channel exists.
func (s *Series) HasPoints(name string) bool {
	_, ok := s.points[name]
	return ok
}

// HasPoses reports whether a pose channel exists.
func (s *Series) HasPoses(name string) bool {
	_, ok := s.poses[name]
	return ok
}

// Points returns the named point channel. The returned slice must not be modified.
func (s *Series) Points(name string) ([]r3.Vec, error) {
	v, ok := s.points[name]
	if !ok {
		return nil, fmt.Errorf("point channel %q: %w", name, ErrNoChannel)
	}
	return v, nil
}

// Poses returns the named pose channel. The returned slice must not be modified.
func (s *Series) Poses(name string) ([]geometry.Pose, error) {
	v, ok := s.poses[name]
	if !ok {
		return nil, fmt.Errorf("pose channel %q: %w", name, ErrNoChannel)
	}
	return v, nil
}

// PointNames returns the point channel names in sorted order.
func (s *Series) PointNames() []string {
	names := make([]string, 0, len(s.points))
	for name := range s.points {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PoseNames returns the pose channel names in sorted order.
func (s *Series) PoseNames() []string {
	names := make([]string, 0, len(s.poses))
	for name := range s.poses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy that can be widened without affecting s.
// Existing channel data is shared, which is safe because channels are never
// modified after being written.
func (s *Series) Clone() *Series {
	c := &Series{
		time:   s.time,
		points: make(map[string][]r3.Vec, len(s.points)),
		poses:  make(map[string][]geometry.Pose, len(s.poses)),
	}
	for k, v := range s.points {
		c.points[k] = v
	}
	for k, v := range s.poses {
		c.poses[k] = v
	}
	return c
}
