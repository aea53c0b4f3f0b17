package body

import (
	"fmt"

	"github.com/banshee-data/swing.kinematics/internal/geometry"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
)

// Model is a validated catalog of parts and the joints between them. It is
// read-only after construction and safe to share between goroutines.
type Model struct {
	parts  []Part
	joints []Joint
	byName map[string]int
}

// NewModel validates parts and joints. Part names must be unique and every
// joint must reference parts of the model.
func NewModel(parts []Part, joints []Joint) (*Model, error) {
	m := &Model{
		parts:  append([]Part(nil), parts...),
		joints: append([]Joint(nil), joints...),
		byName: make(map[string]int, len(parts)),
	}
	for i, p := range m.parts {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m.byName[p.Name]; dup {
			return nil, configErr("model", p.Name, "part declared twice")
		}
		m.byName[p.Name] = i
	}
	seen := make(map[string]bool, len(joints))
	for _, j := range m.joints {
		if err := j.Validate(); err != nil {
			return nil, err
		}
		if seen[j.Name()] {
			return nil, configErr("model", j.Name(), "joint declared twice")
		}
		seen[j.Name()] = true
		for _, p := range []Part{j.Proximal, j.Distal} {
			if _, ok := m.byName[p.Name]; !ok {
				return nil, configErr("joint", j.Name(), "part %q is not in the model", p.Name)
			}
		}
	}
	return m, nil
}

// Parts returns the parts in catalog order.
func (m *Model) Parts() []Part { return append([]Part(nil), m.parts...) }

// Joints returns the joints in catalog order.
func (m *Model) Joints() []Joint { return append([]Joint(nil), m.joints...) }

// Part looks up a part by name.
func (m *Model) Part(name string) (Part, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Part{}, false
	}
	return m.parts[i], true
}

// Markers returns every marker name the parts read, in first-use order.
func (m *Model) Markers() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range m.parts {
		for _, name := range p.Markers() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Frames returns a widened copy of s with a pose channel for every part.
// Parts whose channel already exists are left as they are, but every defined
// pose in such a channel must be a rigid transform.
func (m *Model) Frames(s *timeseries.Series) (*timeseries.Series, error) {
	out := s.Clone()
	for _, p := range m.parts {
		if out.HasPoses(p.FramesName()) {
			if err := checkRigid(out, p); err != nil {
				return nil, err
			}
			continue
		}
		poses, err := p.Frames(out)
		if err != nil {
			return nil, err
		}
		if err := out.AddPoses(p.FramesName(), poses); err != nil {
			return nil, fmt.Errorf("part %q: %w", p.Name, err)
		}
	}
	return out, nil
}

func checkRigid(s *timeseries.Series, p Part) error {
	poses, err := s.Poses(p.FramesName())
	if err != nil {
		return err
	}
	for i, pose := range poses {
		if pose.Defined() && !geometry.IsValidTransformMatrix(pose.Matrix()) {
			return configErr("part", p.Name, "frame at sample %d is not a rigid transform", i)
		}
	}
	return nil
}
