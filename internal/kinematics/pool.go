package kinematics

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/swing.kinematics/internal/body"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"github.com/banshee-data/swing.kinematics/internal/timeutil"
	"github.com/banshee-data/swing.kinematics/internal/trial"
)

// Loader reads the marker trajectories of a trial.
type Loader func(t trial.Trial) (*timeseries.Series, error)

// Options configures Run.
type Options struct {
	// Workers bounds the number of trials processed at once. Values below 1
	// are treated as 1.
	Workers int
	// BatterHand overrides every trial's hand for sign conventions when set.
	BatterHand body.Side
	// Load reads a trial's markers inside the worker.
	Load Loader
	// Clock times the run; nil uses the real clock.
	Clock timeutil.Clock
}

// Outcome is the result or error of one trial.
type Outcome struct {
	Trial  trial.Trial
	Result *Result
	Err    error
}

// Run processes trials concurrently and returns one outcome per trial in
// input order. A failing trial does not stop the others. Once ctx is done no
// further trials are started and the remaining outcomes carry ctx.Err().
func Run(ctx context.Context, model *body.Model, trials []trial.Trial, opts Options) []Outcome {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()

	outcomes := make([]Outcome, len(trials))
	for i, t := range trials {
		outcomes[i].Trial = t
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i].Result, outcomes[i].Err = runOne(model, trials[i], opts)
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range trials {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()

	for i := dispatched; i < len(trials); i++ {
		outcomes[i].Err = ctx.Err()
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	monitoring.Logf("processed %d trials (%d failed) with %d workers in %s",
		len(trials), failed, workers, clock.Since(start))
	return outcomes
}

func runOne(model *body.Model, t trial.Trial, opts Options) (*Result, error) {
	if opts.Load == nil {
		return nil, fmt.Errorf("trial %s: no loader configured", t.SessionSwing)
	}
	s, err := opts.Load(t)
	if err != nil {
		return nil, fmt.Errorf("trial %s: %w", t.SessionSwing, err)
	}
	res, err := Process(model, t, s, opts.BatterHand)
	if err != nil {
		return nil, fmt.Errorf("trial %s: %w", t.SessionSwing, err)
	}
	monitoring.Debugf("trial %s: %d samples, %d joints", t.SessionSwing, len(res.Time), len(res.Joints))
	return res, nil
}
