package neighbor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rehearsal/core/model"
)

func open() *model.Constraints {
	return model.NewConstraints(model.Bounds{MaxMinutes: 600}, nil, nil, nil)
}

func TestNextKeepsInvariants(t *testing.T) {
	const nScenes = 8
	g := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	c := model.NewConstraints(model.Bounds{}, nil, []int{2}, []int{5, 6})
	state := model.State{2}
	for i := 0; i < 10_000; i++ {
		next := g.Next(state, c, nScenes)
		if err := next.Valid(nScenes); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if next.Contains(5) || next.Contains(6) {
			t.Fatalf("step %d: avoided scene inserted: %v", i, next)
		}
		if !next.Contains(2) {
			t.Fatalf("step %d: must-include scene dropped: %v", i, next)
		}
		if len(next) == 0 {
			t.Fatalf("step %d: empty neighbor", i)
		}
		state = next
	}
}

func TestNextDoesNotMutateInput(t *testing.T) {
	g := New(DefaultConfig(), rand.New(rand.NewSource(3)))
	state := model.State{0, 1, 2, 3}
	for i := 0; i < 500; i++ {
		g.Next(state, open(), 6)
		require.Equal(t, model.State{0, 1, 2, 3}, state)
	}
}

func TestNextAddsWhenShort(t *testing.T) {
	g := New(DefaultConfig(), rand.New(rand.NewSource(5)))
	for _, st := range []model.State{nil, {3}} {
		next, mv := g.Propose(st, open(), 5)
		assert.Equal(t, MoveAdd, mv)
		assert.Len(t, next, len(st)+1)
	}
}

func TestNextNoEligibleAdd(t *testing.T) {
	g := New(DefaultConfig(), rand.New(rand.NewSource(5)))
	c := model.NewConstraints(model.Bounds{}, nil, nil, []int{1})
	next, mv := g.Propose(model.State{0}, c, 2)
	assert.Equal(t, MoveNone, mv)
	assert.Equal(t, model.State{0}, next)
}

func TestNextFullStateRemovesOrSwaps(t *testing.T) {
	g := New(Config{AddRemoveProb: 1, RemoveProb: 0.01}, rand.New(rand.NewSource(9)))
	for i := 0; i < 200; i++ {
		next, mv := g.Propose(model.State{2, 0, 1}, open(), 3)
		if mv != MoveRemove {
			t.Fatalf("expected forced remove on a full state, got %s", mv)
		}
		assert.Len(t, next, 2)
	}
}

func TestRemoveFallsBackToSwap(t *testing.T) {
	g := New(Config{AddRemoveProb: 1, RemoveProb: 1}, rand.New(rand.NewSource(11)))
	c := model.NewConstraints(model.Bounds{}, nil, []int{0, 1, 2}, nil)
	for i := 0; i < 200; i++ {
		next, mv := g.Propose(model.State{0, 1, 2}, c, 5)
		require.Equal(t, MoveSwap, mv)
		assert.ElementsMatch(t, []int{0, 1, 2}, next)
		assert.NotEqual(t, model.State{0, 1, 2}, next)
	}
}

func TestSwapOnly(t *testing.T) {
	g := New(Config{AddRemoveProb: 0, RemoveProb: 0.5}, rand.New(rand.NewSource(13)))
	for i := 0; i < 1000; i++ {
		next, mv := g.Propose(model.State{4, 2}, open(), 6)
		require.Equal(t, MoveSwap, mv)
		assert.Equal(t, model.State{2, 4}, next)
	}
	next, mv := g.Propose(model.State{4}, open(), 6)
	assert.Equal(t, MoveAdd, mv, "short states still grow")
	assert.Len(t, next, 2)
}

func TestDeterministicWithSeed(t *testing.T) {
	g1 := New(DefaultConfig(), rand.New(rand.NewSource(42)))
	g2 := New(DefaultConfig(), rand.New(rand.NewSource(42)))
	s1, s2 := model.State{0}, model.State{0}
	for i := 0; i < 100; i++ {
		s1 = g1.Next(s1, open(), 10)
		s2 = g2.Next(s2, open(), 10)
		if !assert.Equal(t, s1, s2) {
			t.Fatalf("diverged at step %d", i)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{AddRemoveProb: 1.5, RemoveProb: 0.5}.Validate())
	assert.Error(t, Config{AddRemoveProb: 0.5, RemoveProb: -0.1}.Validate())
	assert.NoError(t, Config{}.Validate())
}
