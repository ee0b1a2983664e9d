package model

import "sort"

// Bounds limits the total rehearsal time of a schedule, in minutes.
type Bounds struct {
	MinMinutes float64
	MaxMinutes float64
}

// BoundsFromHours converts hour bounds to minutes.
func BoundsFromHours(minHours, maxHours float64) Bounds {
	return Bounds{MinMinutes: minHours * 60, MaxMinutes: maxHours * 60}
}

// Constraints holds the hard and soft rules of a search. All indices are
// 0-based. A Constraints value is immutable once built and can be shared by
// the scorer and the neighbor generator without copying.
type Constraints struct {
	bounds  Bounds
	ignored []int
	include []int
	avoid   []int

	ignoredSet map[int]struct{}
	includeSet map[int]struct{}
	avoidSet   map[int]struct{}
}

// NewConstraints builds a Constraints from 0-based index lists. Duplicates
// are removed; the first occurrence order is kept.
func NewConstraints(b Bounds, ignoredActors, mustInclude, mustAvoid []int) *Constraints {
	c := &Constraints{bounds: b}
	c.ignored, c.ignoredSet = dedupe(ignoredActors)
	c.include, c.includeSet = dedupe(mustInclude)
	c.avoid, c.avoidSet = dedupe(mustAvoid)
	return c
}

func dedupe(xs []int) ([]int, map[int]struct{}) {
	set := make(map[int]struct{}, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if _, ok := set[x]; ok {
			continue
		}
		set[x] = struct{}{}
		out = append(out, x)
	}
	return out, set
}

// MinMinutes is the lower bound on total rehearsal time.
func (c *Constraints) MinMinutes() float64 { return c.bounds.MinMinutes }

// MaxMinutes is the upper bound on total rehearsal time.
func (c *Constraints) MaxMinutes() float64 { return c.bounds.MaxMinutes }

// Ignored reports whether actor is excluded from wait and call accounting.
func (c *Constraints) Ignored(actor int) bool {
	_, ok := c.ignoredSet[actor]
	return ok
}

// Included reports whether scene must appear in the schedule.
func (c *Constraints) Included(scene int) bool {
	_, ok := c.includeSet[scene]
	return ok
}

// Avoided reports whether scene must never appear in the schedule.
func (c *Constraints) Avoided(scene int) bool {
	_, ok := c.avoidSet[scene]
	return ok
}

// IgnoredActors returns a copy of the ignored actor indices.
func (c *Constraints) IgnoredActors() []int { return append([]int(nil), c.ignored...) }

// IncludedScenes returns a copy of the must-include scenes in caller order.
func (c *Constraints) IncludedScenes() []int { return append([]int(nil), c.include...) }

// AvoidedScenes returns a copy of the must-avoid scenes.
func (c *Constraints) AvoidedScenes() []int { return append([]int(nil), c.avoid...) }

// Conflicts returns the sorted scenes listed both as must-include and
// must-avoid.
func (c *Constraints) Conflicts() []int {
	var out []int
	for _, s := range c.include {
		if c.Avoided(s) {
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}
