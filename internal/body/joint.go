package body

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/swing.kinematics/internal/geometry"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
)

// Side is the anatomical side of a joint: "R", "L" or empty for an unsided joint.
type Side string

const (
	SideNone  Side = ""
	SideRight Side = "R"
	SideLeft  Side = "L"
)

// ParseSide accepts "R" or "L" in either case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideRight:
		return SideRight, nil
	case SideLeft:
		return SideLeft, nil
	}
	return SideNone, fmt.Errorf("invalid side %q: want R or L", s)
}

// JointType is one of the joints in the body model.
type JointType int

const (
	Shoulder JointType = iota
	Elbow
	Wrist
	Hip
	Knee
	Ankle
)

var jointTypeNames = [...]string{"shoulder", "elbow", "wrist", "hip", "knee", "ankle"}

func (t JointType) String() string {
	if t < 0 || int(t) >= len(jointTypeNames) {
		return fmt.Sprintf("joint(%d)", int(t))
	}
	return jointTypeNames[t]
}

// ParseJointType parses a lower-case joint name such as "elbow".
func ParseJointType(s string) (JointType, error) {
	for i, name := range jointTypeNames {
		if name == s {
			return JointType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint type %q", s)
}

// SignMatch selects when a SignOverride replaces the default signs.
type SignMatch int

const (
	// MatchSide fires when the joint's side equals the override's Side.
	MatchSide SignMatch = iota
	// MatchBatterHand fires when the joint's side equals the batter's hand.
	MatchBatterHand
)

// SignOverride replaces the default sign vector when its condition holds.
type SignOverride struct {
	Match SignMatch
	Side  Side
	Signs [3]float64
}

func (o SignOverride) applies(side, batterHand Side) bool {
	if side == SideNone {
		return false
	}
	switch o.Match {
	case MatchBatterHand:
		return side == batterHand
	default:
		return side == o.Side
	}
}

// CorrectionKind names a post-correction rule.
type CorrectionKind int

const (
	// ZeroAxis forces an axis to exactly 0.
	ZeroAxis CorrectionKind = iota
	// UnwrapAbove subtracts 360 from an axis wherever it exceeds Threshold.
	UnwrapAbove
)

// Correction is one post-correction applied after signs and adjustments.
type Correction struct {
	Kind      CorrectionKind
	Axis      int
	Threshold float64
}

// Apply returns a with the correction applied.
func (c Correction) Apply(a [3]float64) [3]float64 {
	switch c.Kind {
	case ZeroAxis:
		a[c.Axis] = 0
	case UnwrapAbove:
		if a[c.Axis] > c.Threshold {
			a[c.Axis] -= 360
		}
	}
	return a
}

// Rules is the angle convention of a joint type: the decomposition
// sequence, default signs and adjustments in degrees, side overrides
// (first match wins) and post-corrections.
type Rules struct {
	Sequence    geometry.Sequence
	Signs       [3]float64
	Adjustments [3]float64
	Overrides   []SignOverride
	Corrections []Correction
}

var jointRules = map[JointType]Rules{
	Shoulder: {
		Sequence: geometry.MustParseSequence("YXY"),
		Signs:    [3]float64{1, 1, 1},
		Overrides: []SignOverride{
			{Match: MatchSide, Side: SideRight, Signs: [3]float64{-1, 1, -1}},
		},
	},
	Elbow: {
		Sequence:    geometry.MustParseSequence("ZXY"),
		Signs:       [3]float64{1, 1, 1},
		Adjustments: [3]float64{0, 0, 180},
		Overrides: []SignOverride{
			{Match: MatchSide, Side: SideRight, Signs: [3]float64{-1, 1, 1}},
			{Match: MatchSide, Side: SideLeft, Signs: [3]float64{1, 1, -1}},
		},
		Corrections: []Correction{
			{Kind: ZeroAxis, Axis: 1},
			{Kind: UnwrapAbove, Axis: 2, Threshold: 340},
		},
	},
	Wrist: {
		Sequence: geometry.MustParseSequence("ZXY"),
		Signs:    [3]float64{1, -1, 1},
		Overrides: []SignOverride{
			{Match: MatchBatterHand, Signs: [3]float64{-1, -1, 1}},
		},
		Corrections: []Correction{
			{Kind: ZeroAxis, Axis: 2},
		},
	},
	Hip: {
		Sequence: geometry.MustParseSequence("ZXY"),
		Signs:    [3]float64{-1, 1, 1},
		Overrides: []SignOverride{
			{Match: MatchSide, Side: SideLeft, Signs: [3]float64{1, 1, -1}},
		},
	},
	Knee: {
		Sequence: geometry.MustParseSequence("ZXY"),
		Signs:    [3]float64{1, 1, 1},
		Overrides: []SignOverride{
			{Match: MatchSide, Side: SideLeft, Signs: [3]float64{-1, 1, 1}},
		},
		Corrections: []Correction{
			{Kind: ZeroAxis, Axis: 1},
			{Kind: ZeroAxis, Axis: 2},
		},
	},
	Ankle: {
		Sequence:    geometry.MustParseSequence("ZXY"),
		Signs:       [3]float64{1, 1, -1},
		Adjustments: [3]float64{90, 0, 0},
		Overrides: []SignOverride{
			{Match: MatchSide, Side: SideLeft, Signs: [3]float64{1, 1, 1}},
		},
	},
}

// RulesFor returns the angle convention of a joint type.
func RulesFor(t JointType) (Rules, bool) {
	r, ok := jointRules[t]
	return r, ok
}

// Joint measures the orientation of Distal relative to Proximal.
type Joint struct {
	Type     JointType
	Proximal Part
	Distal   Part
	Side     Side
}

// Name is the joint type, suffixed with the side when there is one,
// e.g. "elbow_r".
func (j Joint) Name() string {
	if j.Side == SideNone {
		return j.Type.String()
	}
	return j.Type.String() + "_" + strings.ToLower(string(j.Side))
}

// Validate checks the joint's rules, side and both parts.
func (j Joint) Validate() error {
	if _, ok := jointRules[j.Type]; !ok {
		return configErr("joint", j.Name(), "no rules for joint type")
	}
	switch j.Side {
	case SideNone, SideRight, SideLeft:
	default:
		return configErr("joint", j.Name(), "invalid side %q", j.Side)
	}
	if j.Proximal.Name == j.Distal.Name {
		return configErr("joint", j.Name(), "proximal and distal are both %q", j.Proximal.Name)
	}
	for _, p := range []Part{j.Proximal, j.Distal} {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("joint %q: %w", j.Name(), err)
		}
	}
	return nil
}

// Sequence returns the joint's decomposition sequence.
func (j Joint) Sequence() geometry.Sequence {
	return jointRules[j.Type].Sequence
}

// Signs returns the sign vector for the joint given the batter's hand.
func (j Joint) Signs(batterHand Side) [3]float64 {
	r := jointRules[j.Type]
	for _, o := range r.Overrides {
		if o.applies(j.Side, batterHand) {
			return o.Signs
		}
	}
	return r.Signs
}

// AnglesFromFrames returns the joint angles in degrees at every sample, in
// sequence order. A sample where either pose is undefined is NaN on all
// three axes.
func (j Joint) AnglesFromFrames(proximal, distal []geometry.Pose, batterHand Side) ([][3]float64, error) {
	if len(proximal) != len(distal) {
		return nil, fmt.Errorf("joint %q: %d proximal frames but %d distal frames", j.Name(), len(proximal), len(distal))
	}
	r, ok := jointRules[j.Type]
	if !ok {
		return nil, configErr("joint", j.Name(), "no rules for joint type")
	}
	signs := j.Signs(batterHand)

	out := make([][3]float64, len(proximal))
	for i := range proximal {
		out[i] = r.apply(geometry.LocalCoordinates(distal[i], proximal[i]), signs)
	}
	return out, nil
}

func (r Rules) apply(relative geometry.Pose, signs [3]float64) [3]float64 {
	nan := math.NaN()
	if !relative.Defined() {
		return [3]float64{nan, nan, nan}
	}
	raw := geometry.Decompose(relative.Rotation, r.Sequence)
	var a [3]float64
	for axis := range raw {
		if math.IsNaN(raw[axis]) {
			return [3]float64{nan, nan, nan}
		}
		a[axis] = raw[axis]*signs[axis] + r.Adjustments[axis]
	}
	for _, c := range r.Corrections {
		a = c.Apply(a)
	}
	return a
}

// Angles returns the joint angles over s. Part frames are read from the
// parts' pose channels when present and built from markers otherwise.
func (j Joint) Angles(s *timeseries.Series, batterHand Side) ([][3]float64, error) {
	proximal, err := framesOf(j.Proximal, s)
	if err != nil {
		return nil, fmt.Errorf("joint %q: %w", j.Name(), err)
	}
	distal, err := framesOf(j.Distal, s)
	if err != nil {
		return nil, fmt.Errorf("joint %q: %w", j.Name(), err)
	}
	return j.AnglesFromFrames(proximal, distal, batterHand)
}

func framesOf(p Part, s *timeseries.Series) ([]geometry.Pose, error) {
	if s.HasPoses(p.FramesName()) {
		return s.Poses(p.FramesName())
	}
	return p.Frames(s)
}
