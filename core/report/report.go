// Package report turns a schedule into the per-actor table shown to the
// director: one column per scheduled scene, one row per called actor.
package report

import (
	"strconv"

	"github.com/kilianp07/rehearsal/core/model"
)

// Mark is the cell value for an actor required in a scene.
const Mark = "X"

// Row is one actor line of a Report.
type Row struct {
	Actor string   `json:"actor" yaml:"actor"`
	Marks []string `json:"marks" yaml:"marks"`
	// WaitMinutes is idle time between the actor's first and last scene.
	WaitMinutes int `json:"wait_minutes" yaml:"wait_minutes"`
	// TotalMinutes spans the actor's first to last scene, inclusive.
	TotalMinutes int `json:"total_minutes" yaml:"total_minutes"`
}

// Report is the display view of a schedule.
type Report struct {
	// Order lists the scheduled scenes as 1-based numbers.
	Order     []int `json:"order" yaml:"order"`
	Durations []int `json:"durations" yaml:"durations"`
	Rows      []Row `json:"rows" yaml:"rows"`
	// TotalMinutes is the length of the whole schedule.
	TotalMinutes int `json:"total_minutes" yaml:"total_minutes"`
}

// Header returns the column labels: scene numbers followed by the wait and
// total columns.
func (r Report) Header() []string {
	h := make([]string, 0, len(r.Order)+2)
	for _, s := range r.Order {
		h = append(h, strconv.Itoa(s))
	}
	return append(h, "Wait (min)", "Total (min)")
}

// Empty reports whether the schedule has no scenes.
func (r Report) Empty() bool { return len(r.Order) == 0 }

// Build renders state. Ignored actors and actors without a scene are left
// out. Ignored indices outside the roster are skipped.
func Build(att *model.Attendance, state model.State, c *model.Constraints) Report {
	r := Report{
		Order:        state.OneBased(),
		Durations:    make([]int, len(state)),
		TotalMinutes: att.TotalMinutes(state),
	}
	for pos, scene := range state {
		r.Durations[pos] = att.Duration(scene)
	}
	if len(state) == 0 {
		return r
	}

	for a := 0; a < att.Actors(); a++ {
		if c != nil && c.Ignored(a) {
			continue
		}
		row := Row{Actor: att.ActorName(a), Marks: make([]string, len(state))}
		first, last, work := -1, -1, 0
		for pos, scene := range state {
			if !att.Attends(scene, a) {
				continue
			}
			row.Marks[pos] = Mark
			work += r.Durations[pos]
			if first < 0 {
				first = pos
			}
			last = pos
		}
		if first < 0 {
			continue
		}
		for pos := first; pos <= last; pos++ {
			row.TotalMinutes += r.Durations[pos]
		}
		if row.TotalMinutes == 0 {
			continue
		}
		row.WaitMinutes = row.TotalMinutes - work
		r.Rows = append(r.Rows, row)
	}
	return r
}
