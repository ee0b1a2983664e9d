package annealing

import (
	"context"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/rehearsal/core/logger"
)

// Attempt records one full run made by Retry.
type Attempt struct {
	Energy   float64
	Steps    int
	Accepted int
	Improved int
	Duration time.Duration
}

// Outcome summarises a Retry.
type Outcome struct {
	Best     Result
	Attempts []Attempt
	// Satisfied is true when Best reached the threshold.
	Satisfied bool
	Elapsed   time.Duration
	// MeanEnergy and StdEnergy describe the energies of all attempts.
	MeanEnergy float64
	StdEnergy  float64
}

// Retry restarts the annealer from fresh seeds until a run reaches
// Threshold, the budget runs out or the context is cancelled. The budget
// and the context are checked between runs only, so a run in progress
// always completes.
type Retry struct {
	Annealer  *Annealer
	Threshold float64
	Budget    time.Duration
	// MaxAttempts caps the number of runs. Zero means unlimited.
	MaxAttempts int
	Log         logger.Logger

	now func() time.Time
}

// NewRetry builds a Retry from cfg.
func NewRetry(a *Annealer, cfg RetryConfig, log logger.Logger) *Retry {
	cfg.SetDefaults()
	return &Retry{
		Annealer:    a,
		Threshold:   cfg.Threshold,
		Budget:      cfg.Budget(),
		MaxAttempts: cfg.MaxAttempts,
		Log:         log,
	}
}

// Run performs at least one attempt. It returns ctx.Err() when cancelled
// before the first attempt; later cancellations stop the loop and are
// reported alongside the best outcome so far.
func (r *Retry) Run(ctx context.Context) (Outcome, error) {
	now := r.now
	if now == nil {
		now = time.Now
	}
	log := r.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	start := now()
	var out Outcome
	var err error
	for {
		res := r.Annealer.Run(r.Annealer.Seed())
		out.Attempts = append(out.Attempts, Attempt{
			Energy:   res.Energy(),
			Steps:    res.Steps,
			Accepted: res.Accepted,
			Improved: res.Improved,
			Duration: res.Duration,
		})
		if len(out.Attempts) == 1 || res.Energy() < out.Best.Energy() {
			out.Best = res
		}
		if out.Best.Energy() <= r.Threshold {
			out.Satisfied = true
			break
		}
		if r.MaxAttempts > 0 && len(out.Attempts) >= r.MaxAttempts {
			break
		}
		if now().Sub(start) >= r.Budget {
			break
		}
		if err = ctx.Err(); err != nil {
			break
		}
	}
	out.Elapsed = now().Sub(start)

	energies := make([]float64, len(out.Attempts))
	for i, a := range out.Attempts {
		energies[i] = a.Energy
	}
	if len(energies) > 1 {
		out.MeanEnergy, out.StdEnergy = stat.MeanStdDev(energies, nil)
	} else {
		out.MeanEnergy = energies[0]
	}

	if !out.Satisfied {
		log.Warnf("no schedule reached energy %.1f after %d attempts in %s, best %.1f",
			r.Threshold, len(out.Attempts), out.Elapsed.Round(time.Millisecond), out.Best.Energy())
	} else {
		log.Infof("schedule with energy %.1f found after %d attempts", out.Best.Energy(), len(out.Attempts))
	}
	return out, err
}
