// Package kinematics runs the per-trial joint angle pipeline: virtual
// landmarks, segment frames, then joint angles for every joint of a body
// model.
package kinematics

import (
	"errors"
	"fmt"

	"github.com/banshee-data/swing.kinematics/internal/body"
	"github.com/banshee-data/swing.kinematics/internal/markers"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"github.com/banshee-data/swing.kinematics/internal/trial"
)

// JointResult holds one joint's angles over a trial.
type JointResult struct {
	Joint body.Joint
	// Label is "lead", "rear" or empty, relative to the trial's batter hand.
	Label   string
	Columns [3]string
	// Angles are in degrees, in the joint's sequence order. Undefined
	// samples are NaN on all three axes.
	Angles [][3]float64
}

// Result is the output of one trial.
type Result struct {
	SessionSwing string
	Metadata     trial.Metadata
	Time         []float64
	Joints       []JointResult
}

// Columns returns every angle column of the result in joint order.
func (r *Result) Columns() []string {
	cols := make([]string, 0, 3*len(r.Joints))
	for _, j := range r.Joints {
		cols = append(cols, j.Columns[:]...)
	}
	return cols
}

// Column returns the values of the named angle column.
func (r *Result) Column(name string) ([]float64, bool) {
	for _, j := range r.Joints {
		for axis, c := range j.Columns {
			if c != name {
				continue
			}
			out := make([]float64, len(j.Angles))
			for i, a := range j.Angles {
				out[i] = a[axis]
			}
			return out, true
		}
	}
	return nil, false
}

// uniformTolerance is the allowed deviation of a sampling interval from the
// mean, as a fraction of the mean interval.
const uniformTolerance = 0.01

// Process computes the joint angles of one trial. batterHand selects the
// sign convention of hand-dependent joints; SideNone uses the trial's own
// hand. Lead and rear labels always follow the trial's hand.
func Process(model *body.Model, t trial.Trial, s *timeseries.Series, batterHand body.Side) (*Result, error) {
	if batterHand == body.SideNone {
		batterHand = t.Metadata.BatterHand
	}
	if rate := s.SampleRate(); rate > 0 && !s.IsUniform(uniformTolerance/rate) {
		monitoring.Logf("trial %s: sampling is not uniform (mean rate %.1f Hz)", t.SessionSwing, rate)
	}

	gr, err := markers.BuildGraph(s.PointNames())
	if err != nil {
		return nil, markerError(err)
	}
	synthesized, err := markers.Synthesize(gr, s)
	if err != nil {
		return nil, markerError(err)
	}
	framed, err := model.Frames(synthesized)
	if err != nil {
		return nil, err
	}

	res := &Result{
		SessionSwing: t.SessionSwing,
		Metadata:     t.Metadata,
		Time:         s.Time(),
	}
	for _, j := range model.Joints() {
		angles, err := j.Angles(framed, batterHand)
		if err != nil {
			return nil, err
		}
		res.Joints = append(res.Joints, JointResult{
			Joint:   j,
			Label:   trial.Label(j.Side, t.Metadata.BatterHand),
			Columns: trial.Columns(j.Type, j.Side, t.Metadata.BatterHand),
			Angles:  angles,
		})
	}
	return res, nil
}

// markerError reports a marker graph failure as a configuration error while
// keeping the markers sentinel in the chain.
func markerError(err error) error {
	name := ""
	var ue *markers.UnresolvedError
	if errors.As(err, &ue) {
		name = ue.Marker
	}
	cfg := &body.ConfigurationError{Kind: "marker", Name: name, Reason: "virtual markers cannot be synthesized"}
	return fmt.Errorf("%w: %w", cfg, err)
}
