package kinematics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/banshee-data/swing.kinematics/internal/body"
	"github.com/banshee-data/swing.kinematics/internal/markers"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
	"github.com/banshee-data/swing.kinematics/internal/testutil"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"github.com/banshee-data/swing.kinematics/internal/trial"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swingTrial(sessionSwing string, hand body.Side) trial.Trial {
	return trial.Trial{
		Path:         sessionSwing + ".csv",
		SessionSwing: sessionSwing,
		Metadata:     trial.Metadata{SessionID: "492", BatterHand: hand, Swing: 1, ExitVelocity: 85.3},
	}
}

// without returns a copy of s lacking the named point channel.
func without(t *testing.T, s *timeseries.Series, name string) *timeseries.Series {
	t.Helper()
	out, err := timeseries.New(s.Time())
	require.NoError(t, err)
	for _, n := range s.PointNames() {
		if n == name {
			continue
		}
		pts, err := s.Points(n)
		require.NoError(t, err)
		require.NoError(t, out.AddPoints(n, pts))
	}
	return out
}

func muteLogs(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func TestProcess_LabelsAndColumns(t *testing.T) {
	model := body.DefaultModel()
	res, err := Process(model, swingTrial("492_1", body.SideRight), testutil.SwingMarkers(30), body.SideNone)
	require.NoError(t, err)

	assert.Equal(t, "492_1", res.SessionSwing)
	assert.Len(t, res.Time, 30)
	require.Len(t, res.Joints, 12)

	assert.Equal(t, "rear", res.Joints[0].Label)
	assert.Equal(t, [3]string{"rear_shoulder_angle_x", "rear_shoulder_angle_y", "rear_shoulder_angle_z"}, res.Joints[0].Columns)
	assert.Equal(t, "lead", res.Joints[1].Label)
	assert.Equal(t, "lead_shoulder_angle_x", res.Joints[1].Columns[0])

	cols := res.Columns()
	assert.Len(t, cols, 36)
	assert.Equal(t, "rear_shoulder_angle_x", cols[0])
	assert.Equal(t, "lead_ankle_angle_z", cols[35])

	for _, j := range res.Joints {
		require.Len(t, j.Angles, 30, j.Joint.Name())
		for i, a := range j.Angles {
			for axis, v := range a {
				assert.False(t, math.IsNaN(v), "%s sample %d axis %d", j.Joint.Name(), i, axis)
			}
		}
	}

	elbow, ok := res.Column("rear_elbow_angle_x")
	require.True(t, ok)
	assert.Len(t, elbow, 30)
	assert.Equal(t, res.Joints[2].Angles[7][0], elbow[7])
	_, ok = res.Column("rear_neck_angle_x")
	assert.False(t, ok)
}

func TestProcess_LeftHandedLabels(t *testing.T) {
	res, err := Process(body.DefaultModel(), swingTrial("125_1", body.SideLeft), testutil.SwingMarkers(5), body.SideNone)
	require.NoError(t, err)
	assert.Equal(t, "lead", res.Joints[0].Label)
	assert.Equal(t, "rear", res.Joints[1].Label)
	assert.Equal(t, "rear_shoulder_angle_x", res.Columns()[3])
}

func TestProcess_MatchesJointAngles(t *testing.T) {
	model := body.DefaultModel()
	s := testutil.SwingMarkers(20)

	gr, err := markers.BuildGraph(s.PointNames())
	require.NoError(t, err)
	synthesized, err := markers.Synthesize(gr, s)
	require.NoError(t, err)

	res, err := Process(model, swingTrial("492_1", body.SideRight), s, body.SideNone)
	require.NoError(t, err)

	for i, j := range model.Joints() {
		want, err := j.Angles(synthesized, body.SideRight)
		require.NoError(t, err)
		if diff := cmp.Diff(want, res.Joints[i].Angles, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", j.Name(), diff)
		}
	}
}

func TestProcess_BatterHandOverride(t *testing.T) {
	model := body.DefaultModel()
	s := testutil.SwingMarkers(20)
	tr := swingTrial("492_1", body.SideRight)

	own, err := Process(model, tr, s, body.SideNone)
	require.NoError(t, err)
	forced, err := Process(model, tr, s, body.SideLeft)
	require.NoError(t, err)

	// Labels follow the trial; only hand-dependent signs change.
	assert.Equal(t, own.Columns(), forced.Columns())

	const wristRight = 4
	require.Equal(t, "wrist_r", own.Joints[wristRight].Joint.Name())
	for i := range own.Joints[wristRight].Angles {
		a, b := own.Joints[wristRight].Angles[i], forced.Joints[wristRight].Angles[i]
		assert.InDelta(t, a[0], -b[0], 1e-9)
		assert.InDelta(t, a[1], b[1], 1e-9)
		assert.InDelta(t, a[2], b[2], 1e-9)
	}
	assert.Equal(t, own.Joints[0].Angles, forced.Joints[0].Angles, "shoulder does not depend on the hand")
}

func TestProcess_WarnsOnNonUniformSampling(t *testing.T) {
	var lines []string
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(prev) })

	swing := testutil.SwingMarkers(12)
	_, err := Process(body.DefaultModel(), swingTrial("492_1", body.SideRight), swing, body.SideNone)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// A dropped frame stretches one interval to twice the others.
	times := swing.Time()
	for i := 6; i < len(times); i++ {
		times[i] += 1 / testutil.SampleRate
	}
	jittered, err := timeseries.New(times)
	require.NoError(t, err)
	for _, n := range swing.PointNames() {
		pts, err := swing.Points(n)
		require.NoError(t, err)
		require.NoError(t, jittered.AddPoints(n, pts))
	}
	_, err = Process(body.DefaultModel(), swingTrial("492_1", body.SideRight), jittered, body.SideNone)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "492_1: sampling is not uniform")
}

func TestProcess_MissingMarkers(t *testing.T) {
	model := body.DefaultModel()
	tr := swingTrial("492_1", body.SideRight)

	t.Run("landmark parent", func(t *testing.T) {
		_, err := Process(model, tr, without(t, testutil.SwingMarkers(5), "RWRB"), body.SideNone)
		require.Error(t, err)
		assert.ErrorIs(t, err, body.ErrConfiguration)
		assert.ErrorIs(t, err, markers.ErrUnresolved)

		var cfg *body.ConfigurationError
		require.ErrorAs(t, err, &cfg)
		assert.Equal(t, "marker", cfg.Kind)
		assert.Equal(t, "wrist_r", cfg.Name)
	})

	t.Run("part marker", func(t *testing.T) {
		_, err := Process(model, tr, without(t, testutil.SwingMarkers(5), "RFIN"), body.SideNone)
		require.Error(t, err)

		var cfg *body.ConfigurationError
		require.ErrorAs(t, err, &cfg)
		assert.Equal(t, "part", cfg.Kind)
		assert.Equal(t, "hand_r", cfg.Name)
	})
}

func TestRun_OrderAndErrors(t *testing.T) {
	muteLogs(t)

	var trials []trial.Trial
	for i := 1; i <= 7; i++ {
		trials = append(trials, swingTrial(fmt.Sprintf("492_%d", i), body.SideRight))
	}
	markersFor := testutil.SwingMarkers(10)
	var loads atomic.Int32
	load := func(t trial.Trial) (*timeseries.Series, error) {
		loads.Add(1)
		if t.SessionSwing == "492_4" {
			return nil, errors.New("unreadable")
		}
		return markersFor, nil
	}

	outcomes := Run(context.Background(), body.DefaultModel(), trials, Options{Workers: 3, Load: load})
	require.Len(t, outcomes, len(trials))
	assert.Equal(t, int32(len(trials)), loads.Load())

	for i, o := range outcomes {
		assert.Equal(t, trials[i].SessionSwing, o.Trial.SessionSwing)
		if o.Trial.SessionSwing == "492_4" {
			require.Error(t, o.Err)
			assert.Contains(t, o.Err.Error(), "trial 492_4: unreadable")
			assert.Nil(t, o.Result)
			continue
		}
		require.NoError(t, o.Err)
		assert.Equal(t, trials[i].SessionSwing, o.Result.SessionSwing)
	}
}

func TestRun_NoLoader(t *testing.T) {
	muteLogs(t)

	outcomes := Run(context.Background(), body.DefaultModel(), []trial.Trial{swingTrial("1_1", body.SideRight)}, Options{})
	require.Len(t, outcomes, 1)
	assert.ErrorContains(t, outcomes[0].Err, "no loader")
}

func TestRun_Cancelled(t *testing.T) {
	muteLogs(t)

	trials := []trial.Trial{
		swingTrial("1_1", body.SideRight),
		swingTrial("1_2", body.SideRight),
		swingTrial("1_3", body.SideRight),
		swingTrial("1_4", body.SideRight),
	}

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var loads atomic.Int32
		outcomes := Run(ctx, body.DefaultModel(), trials, Options{Workers: 2, Load: func(trial.Trial) (*timeseries.Series, error) {
			loads.Add(1)
			return testutil.SwingMarkers(3), nil
		}})
		assert.Zero(t, loads.Load())
		for _, o := range outcomes {
			assert.ErrorIs(t, o.Err, context.Canceled)
		}
	})

	t.Run("during run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var loads atomic.Int32
		outcomes := Run(ctx, body.DefaultModel(), trials, Options{Workers: 1, Load: func(trial.Trial) (*timeseries.Series, error) {
			loads.Add(1)
			cancel()
			return testutil.SwingMarkers(3), nil
		}})

		require.NoError(t, outcomes[0].Err)
		assert.LessOrEqual(t, loads.Load(), int32(2))
		assert.ErrorIs(t, outcomes[2].Err, context.Canceled)
		assert.ErrorIs(t, outcomes[3].Err, context.Canceled)
	})
}
