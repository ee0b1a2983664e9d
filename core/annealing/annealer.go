// Package annealing runs simulated annealing over rehearsal schedules and
// wraps it in a time-boxed restart policy.
package annealing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kilianp07/rehearsal/core/logger"
	"github.com/kilianp07/rehearsal/core/model"
	"github.com/kilianp07/rehearsal/core/neighbor"
	"github.com/kilianp07/rehearsal/core/scoring"
)

// Problem bundles the immutable inputs of a search.
type Problem struct {
	Attendance  *model.Attendance
	Constraints *model.Constraints
	Scorer      *scoring.Scorer
}

// Result is the outcome of one annealing run.
type Result struct {
	State      model.State
	Evaluation scoring.Evaluation
	// Steps is the number of proposals evaluated.
	Steps    int
	Accepted int
	// Improved counts updates of the best snapshot.
	Improved int
	Duration time.Duration
	Warnings []string
}

// Energy is shorthand for r.Evaluation.Energy.
func (r Result) Energy() float64 { return r.Evaluation.Energy }

// Annealer owns a random source and is not safe for concurrent use.
type Annealer struct {
	cfg      Config
	problem  Problem
	rng      *rand.Rand
	gen      *neighbor.Generator
	schedule LinearSchedule
	log      logger.Logger
}

// New returns an Annealer. cfg is used as given; start from DefaultConfig
// for the stock schedule. A nil rng is seeded from cfg.Seed.
func New(cfg Config, p Problem, rng *rand.Rand, log logger.Logger) *Annealer {
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Annealer{
		cfg:      cfg,
		problem:  p,
		rng:      rng,
		gen:      neighbor.New(cfg.Neighbor(), rng),
		schedule: LinearSchedule{TMax: cfg.TMax, TMin: cfg.TMin, StepMax: cfg.StepMax},
		log:      log,
	}
}

// Seed returns a starting state drawn from the annealer's random source.
func (a *Annealer) Seed() model.State {
	return Seed(a.rng, a.problem.Constraints, a.problem.Attendance.Scenes())
}

// Run anneals from seed and returns the best schedule seen. seed is not
// modified.
func (a *Annealer) Run(seed model.State) Result {
	start := time.Now()
	nScenes := a.problem.Attendance.Scenes()
	c := a.problem.Constraints

	current := seed.Clone()
	currentEv := a.problem.Scorer.Score(current)
	res := Result{State: current.Clone(), Evaluation: currentEv}

	for step := 0; step < a.cfg.StepMax; step++ {
		t := a.schedule.T(step)
		cand := a.gen.Next(current, c, nScenes)
		candEv := a.problem.Scorer.Score(cand)
		res.Steps++

		delta := candEv.Energy - currentEv.Energy
		if delta >= 0 && (t <= 0 || a.rng.Float64() >= SafeExp(-delta/t)) {
			continue
		}
		current, currentEv = cand, candEv
		res.Accepted++
		if currentEv.Energy < res.Evaluation.Energy {
			res.State = current.Clone()
			res.Evaluation = currentEv
			res.Improved++
		}
	}

	res.Duration = time.Since(start)
	res.Warnings = a.validate(res)
	a.log.Debugw("annealing run finished", map[string]any{
		"energy":   res.Evaluation.Energy,
		"scenes":   len(res.State),
		"steps":    res.Steps,
		"accepted": res.Accepted,
		"improved": res.Improved,
		"duration": res.Duration.String(),
	})
	for _, w := range res.Warnings {
		a.log.Warnf("%s", w)
	}
	return res
}

// validate reports must-include scenes missing from the best schedule and
// flags results that still carry hard-constraint violations.
func (a *Annealer) validate(res Result) []string {
	var out []string
	for _, scene := range a.problem.Constraints.IncludedScenes() {
		if !res.State.Contains(scene) {
			out = append(out, fmt.Sprintf("must-include scene %d is missing from the schedule", scene+1))
		}
	}
	if b := res.Evaluation.Breakdown; b.Hard() > 0 {
		out = append(out, fmt.Sprintf("hard constraints violated: ignored actor penalty %.0f, avoided scene penalty %.0f",
			b.IgnoredActorPenalty, b.AvoidedScenePenalty))
	}
	return out
}
