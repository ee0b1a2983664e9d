// Package neighbor proposes random structural mutations of a schedule. Every
// move keeps scene indices unique, never inserts a must-avoid scene and
// never drops a must-include scene, so hard membership rules are enforced by
// construction instead of through penalties alone.
package neighbor

import (
	"fmt"
	"math/rand"

	"github.com/kilianp07/rehearsal/core/model"
)

// Move identifies the mutation applied by Next.
type Move int

const (
	// MoveNone means no mutation was possible; the copy is unchanged.
	MoveNone Move = iota
	// MoveAdd inserts a permitted scene at a random position.
	MoveAdd
	// MoveRemove drops a scene that is not must-include.
	MoveRemove
	// MoveSwap exchanges the scenes at two positions.
	MoveSwap
)

// String returns the move name.
func (m Move) String() string {
	switch m {
	case MoveAdd:
		return "add"
	case MoveRemove:
		return "remove"
	case MoveSwap:
		return "swap"
	default:
		return "none"
	}
}

// Config sets the move distribution. Both probabilities are used as given,
// so AddRemoveProb 0 produces swaps only once a state holds two scenes.
type Config struct {
	// AddRemoveProb is the probability of a membership move (add or
	// remove) rather than a swap.
	AddRemoveProb float64 `json:"add_remove_prob"`
	// RemoveProb is the probability that a membership move removes a scene.
	RemoveProb float64 `json:"remove_prob"`
}

// DefaultConfig returns an even split between membership moves and swaps,
// and between adds and removes.
func DefaultConfig() Config {
	return Config{AddRemoveProb: 0.5, RemoveProb: 0.5}
}

// Validate checks both probabilities lie in [0,1].
func (c Config) Validate() error {
	if c.AddRemoveProb < 0 || c.AddRemoveProb > 1 {
		return fmt.Errorf("add_remove_prob must be within [0,1]")
	}
	if c.RemoveProb < 0 || c.RemoveProb > 1 {
		return fmt.Errorf("remove_prob must be within [0,1]")
	}
	return nil
}

// Generator draws neighbors from a single random source.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// New returns a Generator. rng must not be nil.
func New(cfg Config, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Next returns a fresh neighbor of state. state itself is never modified.
func (g *Generator) Next(state model.State, c *model.Constraints, nScenes int) model.State {
	next, _ := g.Propose(state, c, nScenes)
	return next
}

// Propose is Next that also reports which move was applied. A move that
// found nothing to do returns an unchanged copy and MoveNone.
func (g *Generator) Propose(state model.State, c *model.Constraints, nScenes int) (model.State, Move) {
	next := make(model.State, len(state), len(state)+1)
	copy(next, state)

	if len(next) < 2 {
		return g.add(next, c, nScenes)
	}
	if g.rng.Float64() >= g.cfg.AddRemoveProb {
		return g.swap(next)
	}
	if len(next) >= nScenes || g.rng.Float64() < g.cfg.RemoveProb {
		return g.remove(next, c)
	}
	return g.add(next, c, nScenes)
}

func (g *Generator) add(s model.State, c *model.Constraints, nScenes int) (model.State, Move) {
	present := make(map[int]struct{}, len(s))
	for _, v := range s {
		present[v] = struct{}{}
	}
	var eligible []int
	for scene := 0; scene < nScenes; scene++ {
		if _, ok := present[scene]; ok || c.Avoided(scene) {
			continue
		}
		eligible = append(eligible, scene)
	}
	if len(eligible) == 0 {
		return s, MoveNone
	}
	scene := eligible[g.rng.Intn(len(eligible))]
	pos := g.rng.Intn(len(s) + 1)
	s = append(s, 0)
	copy(s[pos+1:], s[pos:])
	s[pos] = scene
	return s, MoveAdd
}

func (g *Generator) remove(s model.State, c *model.Constraints) (model.State, Move) {
	var candidates []int
	for pos, scene := range s {
		if !c.Included(scene) {
			candidates = append(candidates, pos)
		}
	}
	if len(candidates) == 0 {
		return g.swap(s)
	}
	pos := candidates[g.rng.Intn(len(candidates))]
	return append(s[:pos], s[pos+1:]...), MoveRemove
}

func (g *Generator) swap(s model.State) (model.State, Move) {
	if len(s) < 2 {
		return s, MoveNone
	}
	i := g.rng.Intn(len(s))
	j := g.rng.Intn(len(s) - 1)
	if j >= i {
		j++
	}
	s[i], s[j] = s[j], s[i]
	return s, MoveSwap
}
