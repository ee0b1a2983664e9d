package annealing

import (
	"math"
	"math/rand"

	"github.com/kilianp07/rehearsal/core/model"
)

// LinearSchedule cools linearly from TMax at step 0 to TMin at StepMax.
type LinearSchedule struct {
	TMax    float64
	TMin    float64
	StepMax int
}

// T returns the temperature at step.
func (s LinearSchedule) T(step int) float64 {
	if s.StepMax <= 0 {
		return s.TMin
	}
	return s.TMin + (s.TMax-s.TMin)*float64(s.StepMax-step)/float64(s.StepMax)
}

// SafeExp is math.Exp returning 0 instead of +Inf or NaN.
func SafeExp(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	v := math.Exp(x)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// Seed builds the starting schedule: the must-include scenes that are not
// also avoided, in the order given. Without any, it picks one random scene
// that is not avoided, and falls back to scene 0 when every scene is.
func Seed(rng *rand.Rand, c *model.Constraints, nScenes int) model.State {
	var s model.State
	for _, scene := range c.IncludedScenes() {
		if scene < 0 || scene >= nScenes || c.Avoided(scene) {
			continue
		}
		s = append(s, scene)
	}
	if len(s) > 0 {
		return s
	}
	var allowed []int
	for scene := 0; scene < nScenes; scene++ {
		if !c.Avoided(scene) {
			allowed = append(allowed, scene)
		}
	}
	if len(allowed) == 0 {
		return model.State{0}
	}
	return model.State{allowed[rng.Intn(len(allowed))]}
}
