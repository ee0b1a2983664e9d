package model

import "fmt"

// State is a candidate schedule: an ordered subset of 0-based scene indices
// with no duplicates.
type State []int

// Clone returns an independent copy of s.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Contains reports whether scene is part of s.
func (s State) Contains(scene int) bool {
	for _, v := range s {
		if v == scene {
			return true
		}
	}
	return false
}

// Valid checks that every index lies in [0, nScenes) and appears once.
func (s State) Valid(nScenes int) error {
	seen := make(map[int]struct{}, len(s))
	for pos, v := range s {
		if v < 0 || v >= nScenes {
			return fmt.Errorf("position %d: scene %d out of range [0,%d)", pos, v, nScenes)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("position %d: duplicate scene %d", pos, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// OneBased returns the scene numbers as shown to users.
func (s State) OneBased() []int {
	out := make([]int, len(s))
	for i, v := range s {
		out[i] = v + 1
	}
	return out
}

// FromOneBased converts user-facing 1-based indices to 0-based ones.
// Entries outside [1, limit] are returned separately so callers can warn
// about them.
func FromOneBased(xs []int, limit int) (valid []int, dropped []int) {
	for _, x := range xs {
		if x < 1 || x > limit {
			dropped = append(dropped, x)
			continue
		}
		valid = append(valid, x-1)
	}
	return valid, dropped
}
