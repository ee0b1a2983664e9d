package scoring

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/rehearsal/core/model"
)

// Breakdown lists the individual energy terms of a schedule.
type Breakdown struct {
	TotalMinutes        int     `json:"total_minutes"`
	WaitMinutes         int     `json:"wait_minutes"`
	CallPenalty         float64 `json:"call_penalty"`
	ShortWorkPenalty    float64 `json:"short_work_penalty"`
	TimePenalty         float64 `json:"time_penalty"`
	IgnoredActorPenalty float64 `json:"ignored_actor_penalty"`
	AvoidedScenePenalty float64 `json:"avoided_scene_penalty"`
}

// Terms returns the breakdown keyed by display label.
func (b Breakdown) Terms() map[string]float64 {
	return map[string]float64{
		"Total Time (min)":        float64(b.TotalMinutes),
		"Wait Time (min)":         float64(b.WaitMinutes),
		"Call Penalty":            b.CallPenalty,
		"Short Work Penalty":      b.ShortWorkPenalty,
		"Time Constraint Penalty": b.TimePenalty,
		"Actor Ignore Penalty":    b.IgnoredActorPenalty,
		"Avoided Scene Penalty":   b.AvoidedScenePenalty,
	}
}

// Hard returns the sum of hard-constraint penalties.
func (b Breakdown) Hard() float64 {
	return b.IgnoredActorPenalty + b.AvoidedScenePenalty
}

// Evaluation is the full result of scoring one schedule.
type Evaluation struct {
	Energy    float64
	Breakdown Breakdown
	// CallTimes maps an actor name to the minutes elapsed before their first
	// scene. Actors without a scheduled scene are absent; ignored actors who
	// are scheduled anyway are present.
	CallTimes map[string]int
	// CallCounts[k] is the number of actors first called at position k.
	CallCounts []int
}

// Scorer computes the energy of schedules against a fixed attendance matrix
// and constraint set. It never mutates either and keeps no state between
// calls, so a Scorer can be shared freely.
type Scorer struct {
	att *model.Attendance
	c   *model.Constraints
	cfg Config
}

// New returns a Scorer. cfg is used as given, so a zero weight switches its
// term off; start from DefaultConfig and call Validate for anything built
// by hand.
func New(att *model.Attendance, c *model.Constraints, cfg Config) *Scorer {
	return &Scorer{att: att, c: c, cfg: cfg}
}

// Config returns the effective configuration.
func (s *Scorer) Config() Config { return s.cfg }

// Score evaluates state. Lower energy is better.
func (s *Scorer) Score(state model.State) Evaluation {
	w := s.cfg.Weights
	var b Breakdown

	b.TotalMinutes = s.att.TotalMinutes(state)
	b.TimePenalty = s.timePenalty(b.TotalMinutes)

	if n, ok := s.ignoredViolations(state); ok {
		b.IgnoredActorPenalty = float64(n) * w.Hard
	} else {
		b.IgnoredActorPenalty = w.Hard
	}
	b.AvoidedScenePenalty = float64(s.avoidedViolations(state)) * w.Hard

	if len(state) == 0 {
		return Evaluation{
			Energy:    w.EmptyState + b.TimePenalty + b.Hard(),
			Breakdown: b,
			CallTimes: map[string]int{},
		}
	}

	wait, short := s.waitTimes(state)
	b.WaitMinutes = wait
	b.ShortWorkPenalty = float64(short) * w.ShortWork

	callTimes, callCounts := s.calls(state)
	called := 0
	for _, n := range callCounts {
		called += n
	}
	b.CallPenalty = float64(called) * w.Call

	return Evaluation{
		Energy:     s.combine(b),
		Breakdown:  b,
		CallTimes:  callTimes,
		CallCounts: callCounts,
	}
}

func (s *Scorer) combine(b Breakdown) float64 {
	w := s.cfg.Weights
	wait := float64(b.WaitMinutes) * w.Wait
	if s.cfg.Mode != ModeWeighted {
		return b.Hard() + b.TimePenalty + wait + b.CallPenalty + b.ShortWorkPenalty
	}
	t := s.cfg.TermWeights
	total := t.Hard*b.Hard() + t.Time*b.TimePenalty + t.Wait*wait + t.Call*b.CallPenalty + t.ShortWork*b.ShortWorkPenalty
	return total / t.sum()
}

func (s *Scorer) timePenalty(total int) float64 {
	t := float64(total)
	over := math.Max(0, t-s.c.MaxMinutes())
	under := math.Max(0, s.c.MinMinutes()-t)
	return s.cfg.Weights.Time*over + s.cfg.Weights.Time*under
}

// ignoredViolations counts scheduled attendances of ignored actors. ok is
// false when an ignored actor index falls outside the matrix.
func (s *Scorer) ignoredViolations(state model.State) (n int, ok bool) {
	ignored := s.c.IgnoredActors()
	if len(ignored) == 0 {
		return 0, true
	}
	defer func() {
		if r := recover(); r != nil {
			if _, isMat := r.(mat.Error); !isMat {
				panic(r)
			}
			n, ok = 0, false
		}
	}()
	for _, scene := range state {
		for _, a := range ignored {
			if s.att.Attends(scene, a) {
				n++
			}
		}
	}
	return n, true
}

func (s *Scorer) avoidedViolations(state model.State) int {
	n := 0
	for _, scene := range state {
		if s.c.Avoided(scene) {
			n++
		}
	}
	return n
}

// waitTimes returns the total idle minutes of non-ignored actors between
// their first and last scene, and how many of them work a token amount.
func (s *Scorer) waitTimes(state model.State) (wait, short int) {
	limit := s.cfg.Weights.ShortWorkMinutes
	for a := 0; a < s.att.Actors(); a++ {
		if s.c.Ignored(a) {
			continue
		}
		first, last := -1, -1
		for pos, scene := range state {
			if s.att.Attends(scene, a) {
				if first < 0 {
					first = pos
				}
				last = pos
			}
		}
		if first < 0 {
			continue
		}
		span, work := 0, 0
		for pos := first; pos <= last; pos++ {
			d := s.att.Duration(state[pos])
			span += d
			if s.att.Attends(state[pos], a) {
				work += d
			}
		}
		wait += span - work
		if work > 0 && work < limit {
			short++
		}
	}
	return wait, short
}

// calls locates the first scheduled scene of every actor, ignored ones
// included.
func (s *Scorer) calls(state model.State) (map[string]int, []int) {
	callTimes := make(map[string]int)
	callCounts := make([]int, len(state))
	for a := 0; a < s.att.Actors(); a++ {
		elapsed := 0
		for pos, scene := range state {
			if s.att.Attends(scene, a) {
				callCounts[pos]++
				callTimes[s.att.ActorName(a)] = elapsed
				break
			}
			elapsed += s.att.Duration(scene)
		}
	}
	return callTimes, callCounts
}
