package body

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/swing.kinematics/internal/geometry"
	"github.com/banshee-data/swing.kinematics/internal/markers"
	"github.com/banshee-data/swing.kinematics/internal/testutil"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDefaultModel(t *testing.T) {
	m := DefaultModel()
	require.Len(t, m.Parts(), 18)
	require.Len(t, m.Joints(), 12)

	var names []string
	for _, j := range m.Joints() {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{
		"shoulder_r", "shoulder_l", "elbow_r", "elbow_l", "wrist_r", "wrist_l",
		"hip_r", "hip_l", "knee_r", "knee_l", "ankle_r", "ankle_l",
	}, names)

	foot, ok := m.Part("foot_r")
	require.True(t, ok)
	assert.Equal(t, geometry.PrimaryXPlaneXZ, foot.Construction())
	_, ok = m.Part("pelvis")
	assert.False(t, ok)

	// Every marker the model reads is either measured or a derived landmark.
	landmark := make(map[string]bool)
	for _, d := range markers.Landmarks {
		landmark[d.Name] = true
	}
	measured := make(map[string]bool)
	for _, n := range testutil.SwingMarkerNames() {
		measured[n] = true
	}
	for _, n := range m.Markers() {
		assert.True(t, landmark[n] || measured[n], n)
	}
}

func TestPartValidate(t *testing.T) {
	pair := AxisPair{From: "A", To: "B"}
	tests := []struct {
		name string
		part Part
	}{
		{"no name", Part{Origin: "A", Y: pair, YZ: pair}},
		{"no origin", Part{Name: "p", Y: pair, YZ: pair}},
		{"no primary", Part{Name: "p", Origin: "A"}},
		{"both primaries", Part{Name: "p", Origin: "A", Y: pair, YZ: pair, X: pair, XZ: pair}},
		{"y with xz", Part{Name: "p", Origin: "A", Y: pair, XZ: pair}},
		{"y without plane", Part{Name: "p", Origin: "A", Y: pair}},
		{"half pair", Part{Name: "p", Origin: "A", Y: AxisPair{From: "A"}, YZ: pair}},
		{"repeated marker", Part{Name: "p", Origin: "A", Y: AxisPair{From: "A", To: "A"}, YZ: pair}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.part.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "part", ce.Kind)
		})
	}
	assert.NoError(t, UpperArmRight.Validate())
	assert.NoError(t, FootLeft.Validate())
}

func TestNewModel_Invalid(t *testing.T) {
	_, err := NewModel([]Part{UpperArmRight, UpperArmRight}, nil)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewModel([]Part{UpperArmRight}, []Joint{{Type: Elbow, Proximal: UpperArmRight, Distal: ForearmRight, Side: SideRight}})
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "elbow_r", ce.Name)

	_, err = NewModel(Parts, []Joint{{Type: JointType(42), Proximal: UpperArmRight, Distal: ForearmRight}})
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewModel(Parts, []Joint{{Type: Elbow, Proximal: UpperArmRight, Distal: ForearmRight, Side: "X"}})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func seriesOf(t *testing.T, points map[string][]r3.Vec, n int) *timeseries.Series {
	t.Helper()
	tm := make([]float64, n)
	for i := range tm {
		tm[i] = float64(i)
	}
	s, err := timeseries.New(tm)
	require.NoError(t, err)
	for name, pts := range points {
		require.NoError(t, s.AddPoints(name, pts))
	}
	return s
}

func TestPartFrames_Scenario(t *testing.T) {
	s := seriesOf(t, map[string][]r3.Vec{
		"A": {{X: 0, Y: 0, Z: 0}},
		"B": {{X: 0, Y: 1, Z: 0}},
		"C": {{X: 1, Y: 1, Z: 0}},
	}, 1)
	p := Part{Name: "segment", Origin: "A", Y: AxisPair{From: "A", To: "B"}, YZ: AxisPair{From: "A", To: "C"}}

	poses, err := p.Frames(s)
	require.NoError(t, err)
	require.Len(t, poses, 1)
	pose := poses[0]
	assertVec(t, r3.Vec{Z: -1}, pose.Axis(0))
	assertVec(t, r3.Vec{Y: 1}, pose.Axis(1))
	assertVec(t, r3.Vec{X: 1}, pose.Axis(2))

	missing := Part{Name: "segment", Origin: "A", Y: AxisPair{From: "A", To: "B"}, YZ: AxisPair{From: "A", To: "D"}}
	_, err = missing.Frames(s)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestJointSigns(t *testing.T) {
	tests := []struct {
		joint      Joint
		batterHand Side
		want       [3]float64
	}{
		{Joint{Type: Shoulder, Side: SideRight}, SideRight, [3]float64{-1, 1, -1}},
		{Joint{Type: Shoulder, Side: SideLeft}, SideRight, [3]float64{1, 1, 1}},
		{Joint{Type: Elbow, Side: SideRight}, SideLeft, [3]float64{-1, 1, 1}},
		{Joint{Type: Elbow, Side: SideLeft}, SideLeft, [3]float64{1, 1, -1}},
		{Joint{Type: Elbow}, SideRight, [3]float64{1, 1, 1}},
		{Joint{Type: Wrist, Side: SideRight}, SideRight, [3]float64{-1, -1, 1}},
		{Joint{Type: Wrist, Side: SideRight}, SideLeft, [3]float64{1, -1, 1}},
		{Joint{Type: Wrist, Side: SideLeft}, SideLeft, [3]float64{-1, -1, 1}},
		{Joint{Type: Wrist}, SideNone, [3]float64{1, -1, 1}},
		{Joint{Type: Hip, Side: SideRight}, SideRight, [3]float64{-1, 1, 1}},
		{Joint{Type: Hip, Side: SideLeft}, SideRight, [3]float64{1, 1, -1}},
		{Joint{Type: Knee, Side: SideRight}, SideRight, [3]float64{1, 1, 1}},
		{Joint{Type: Knee, Side: SideLeft}, SideRight, [3]float64{-1, 1, 1}},
		{Joint{Type: Ankle, Side: SideRight}, SideRight, [3]float64{1, 1, -1}},
		{Joint{Type: Ankle, Side: SideLeft}, SideRight, [3]float64{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.joint.Name()+"/batter_"+string(tt.batterHand), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.joint.Signs(tt.batterHand))
		})
	}
}

func TestCorrection_ElbowUnwrap(t *testing.T) {
	unwrap := Correction{Kind: UnwrapAbove, Axis: 2, Threshold: 340}
	assert.Equal(t, [3]float64{0, 0, -5}, unwrap.Apply([3]float64{0, 0, 355}))
	assert.Equal(t, [3]float64{0, 0, 339}, unwrap.Apply([3]float64{0, 0, 339}))
	assert.Equal(t, [3]float64{0, 0, 340}, unwrap.Apply([3]float64{0, 0, 340}))
	assert.Equal(t, [3]float64{400, 0, 0}, unwrap.Apply([3]float64{400, 0, 0}), "other axes untouched")

	zero := Correction{Kind: ZeroAxis, Axis: 1}
	assert.Equal(t, [3]float64{1, 0, 3}, zero.Apply([3]float64{1, 2, 3}))
}

func TestElbowAngles_UnwrapThroughPipeline(t *testing.T) {
	seq := geometry.MustParseSequence("ZXY")
	proximal := geometry.NewPose(r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}, r3.Vec{})
	elbow := Joint{Type: Elbow, Proximal: UpperArmRight, Distal: ForearmRight, Side: SideRight}

	// Raw axis 2 of 175 becomes 175 + 180 = 355 before unwrapping.
	distal := geometry.Pose{Rotation: geometry.Compose([3]float64{0, 0, 175}, seq), Origin: r3.Vec{}}
	got, err := elbow.AnglesFromFrames([]geometry.Pose{proximal}, []geometry.Pose{distal}, SideRight)
	require.NoError(t, err)
	assert.InDelta(t, -5, got[0][2], 1e-9)

	// Raw 159 gives 339, which is left alone.
	distal = geometry.Pose{Rotation: geometry.Compose([3]float64{0, 0, 159}, seq), Origin: r3.Vec{}}
	got, err = elbow.AnglesFromFrames([]geometry.Pose{proximal}, []geometry.Pose{distal}, SideRight)
	require.NoError(t, err)
	assert.InDelta(t, 339, got[0][2], 1e-9)

	_, err = elbow.AnglesFromFrames([]geometry.Pose{proximal}, nil, SideRight)
	assert.Error(t, err)
}

func synthesizedSwing(t *testing.T, s *timeseries.Series) *timeseries.Series {
	t.Helper()
	g, err := markers.BuildGraph(s.PointNames())
	require.NoError(t, err)
	out, err := markers.Synthesize(g, s)
	require.NoError(t, err)
	return out
}

func TestAngles_ForcedZeros(t *testing.T) {
	s := synthesizedSwing(t, testutil.SwingMarkers(40))
	m := DefaultModel()
	framed, err := m.Frames(s)
	require.NoError(t, err)

	for _, j := range m.Joints() {
		for _, hand := range []Side{SideRight, SideLeft} {
			angles, err := j.Angles(framed, hand)
			require.NoError(t, err)
			require.Len(t, angles, 40)
			for i, a := range angles {
				for axis := range a {
					require.False(t, math.IsNaN(a[axis]), "%s sample %d axis %d", j.Name(), i, axis)
				}
				switch j.Type {
				case Elbow:
					assert.Equal(t, 0.0, a[1])
				case Wrist:
					assert.Equal(t, 0.0, a[2])
				case Knee:
					assert.Equal(t, 0.0, a[1])
					assert.Equal(t, 0.0, a[2])
				}
			}
		}
	}
}

func TestAngles_FramesFromChannelOrMarkers(t *testing.T) {
	s := synthesizedSwing(t, testutil.SwingMarkers(10))
	framed, err := DefaultModel().Frames(s)
	require.NoError(t, err)

	hip := Joints[6]
	fromChannel, err := hip.Angles(framed, SideRight)
	require.NoError(t, err)
	fromMarkers, err := hip.Angles(s, SideRight)
	require.NoError(t, err)
	assert.Equal(t, fromChannel, fromMarkers)
}

func TestFrames_RejectsNonRigidChannel(t *testing.T) {
	s := synthesizedSwing(t, testutil.SwingMarkers(3))
	sheared := geometry.NewPose(r3.Vec{X: 1}, r3.Vec{X: 1, Y: 1}, r3.Vec{Z: 1}, r3.Vec{})
	require.NoError(t, s.AddPoses(UpperArmRight.FramesName(), []geometry.Pose{geometry.NaNPose(), sheared, geometry.NaNPose()}))

	_, err := DefaultModel().Frames(s)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, UpperArmRight.Name, cfgErr.Name)
	assert.Contains(t, err.Error(), "sample 1")
}

// Right-arm markers and their reflection across X = 0.
func mirroredArms(t *testing.T) *timeseries.Series {
	right := map[string]r3.Vec{
		"SHO":  {X: 0.20, Y: 1.40, Z: 0.00},
		"ELB":  {X: 0.30, Y: 1.10, Z: 0.05},
		"MELB": {X: 0.20, Y: 1.12, Z: 0.02},
		"WRA":  {X: 0.36, Y: 1.02, Z: 0.30},
		"WRB":  {X: 0.30, Y: 0.98, Z: 0.33},
	}
	points := make(map[string][]r3.Vec)
	for m, p := range right {
		points["R"+m] = []r3.Vec{p}
		points["L"+m] = []r3.Vec{{X: -p.X, Y: p.Y, Z: p.Z}}
	}
	elbow := geometry.Mean(right["ELB"], right["MELB"])
	wrist := geometry.Mean(right["WRA"], right["WRB"])
	points["elbow_r"] = []r3.Vec{elbow}
	points["wrist_r"] = []r3.Vec{wrist}
	points["elbow_l"] = []r3.Vec{{X: -elbow.X, Y: elbow.Y, Z: elbow.Z}}
	points["wrist_l"] = []r3.Vec{{X: -wrist.X, Y: wrist.Y, Z: wrist.Z}}
	return seriesOf(t, points, 1)
}

func TestElbowAngles_MirroredSides(t *testing.T) {
	s := mirroredArms(t)
	right := Joint{Type: Elbow, Proximal: UpperArmRight, Distal: ForearmRight, Side: SideRight}
	left := Joint{Type: Elbow, Proximal: UpperArmLeft, Distal: ForearmLeft, Side: SideLeft}

	// The raw decompositions are mirrored on axes 0 and 2.
	raw := func(j Joint) [3]float64 {
		p, err := j.Proximal.Frames(s)
		require.NoError(t, err)
		d, err := j.Distal.Frames(s)
		require.NoError(t, err)
		return geometry.Decompose(geometry.LocalCoordinates(d[0], p[0]).Rotation, j.Sequence())
	}
	rawR, rawL := raw(right), raw(left)
	assert.InDelta(t, rawR[0], -rawL[0], 1e-9)
	assert.InDelta(t, rawR[1], rawL[1], 1e-9)
	assert.InDelta(t, rawR[2], -rawL[2], 1e-9)
	assert.NotEqual(t, math.Signbit(rawR[2]), math.Signbit(rawL[2]))

	gotR, err := right.Angles(s, SideRight)
	require.NoError(t, err)
	gotL, err := left.Angles(s, SideRight)
	require.NoError(t, err)

	// After the side signs both arms report the same flexion and rotation.
	assert.InDelta(t, -57.18328508771045, gotR[0][0], 1e-9)
	assert.Equal(t, 0.0, gotR[0][1])
	assert.InDelta(t, -3.375642437637566, gotR[0][2], 1e-9)
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, gotR[0][axis], gotL[0][axis], 1e-9, "axis %d", axis)
	}
}

func TestAngles_MissingMarkerStaysLocal(t *testing.T) {
	const n, missing = 20, 10
	clean := synthesizedSwing(t, testutil.SwingMarkers(n))
	torso, err := clean.Points("torso_m")
	require.NoError(t, err)

	tests := []struct {
		name        string
		supplyTorso bool
		wantParts   []string
		wantJoints  []string
	}{
		{
			name:        "torso supplied",
			supplyTorso: true,
			wantParts:   []string{"scapula_r", "upper_arm_r"},
			wantJoints:  []string{"shoulder_r", "elbow_r"},
		},
		{
			// torso_m is derived from RSHO, which reaches the left scapula too.
			name:       "torso derived",
			wantParts:  []string{"scapula_r", "scapula_l", "upper_arm_r"},
			wantJoints: []string{"shoulder_r", "shoulder_l", "elbow_r"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testutil.WithUndefined(testutil.SwingMarkers(n), "RSHO", missing)
			if tt.supplyTorso {
				require.NoError(t, raw.AddPoints("torso_m", torso))
			}
			m := DefaultModel()
			framed, err := m.Frames(synthesizedSwing(t, raw))
			require.NoError(t, err)

			for _, p := range m.Parts() {
				poses, err := framed.Poses(p.FramesName())
				require.NoError(t, err)
				affected := contains(tt.wantParts, p.Name)
				for i, pose := range poses {
					want := !(affected && i == missing)
					assert.Equal(t, want, pose.Defined(), "%s sample %d", p.Name, i)
				}
			}
			for _, j := range m.Joints() {
				angles, err := j.Angles(framed, SideRight)
				require.NoError(t, err)
				affected := contains(tt.wantJoints, j.Name())
				for i, a := range angles {
					undefined := affected && i == missing
					for axis := range a {
						assert.Equal(t, undefined, math.IsNaN(a[axis]), "%s sample %d axis %d", j.Name(), i, axis)
					}
				}
			}
		})
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "X")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "Y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "Z")
}
