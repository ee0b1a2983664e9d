package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyAttendance is returned when the matrix has no scenes or no actors.
	ErrEmptyAttendance = errors.New("attendance matrix is empty")
	// ErrInvalidCell is returned for matrix cells other than 0 or 1.
	ErrInvalidCell = errors.New("attendance cell must be 0 or 1")
)

// Attendance is a read-only view over the scene × actor attendance matrix,
// the per-scene durations and the actor roster. Rows are scenes, columns are
// actors. Durations and actor names are index-aligned with rows and columns.
type Attendance struct {
	matrix    *mat.Dense
	durations []int
	actors    []string
	byName    map[string]int
}

// NewAttendance copies rows, durations and actors into an immutable
// Attendance. Every row must have one cell per actor and every cell must be
// 0 or 1.
func NewAttendance(rows [][]float64, durations []int, actors []string) (*Attendance, error) {
	if len(rows) == 0 || len(actors) == 0 {
		return nil, ErrEmptyAttendance
	}
	if len(durations) != len(rows) {
		return nil, fmt.Errorf("got %d durations for %d scenes", len(durations), len(rows))
	}
	m := mat.NewDense(len(rows), len(actors), nil)
	for i, row := range rows {
		if len(row) != len(actors) {
			return nil, fmt.Errorf("scene %d: got %d cells for %d actors", i+1, len(row), len(actors))
		}
		for j, v := range row {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("scene %d actor %q: %w (got %v)", i+1, actors[j], ErrInvalidCell, v)
			}
			m.Set(i, j, v)
		}
	}
	d := make([]int, len(durations))
	for i, v := range durations {
		if v < 0 {
			return nil, fmt.Errorf("scene %d: negative duration %d", i+1, v)
		}
		d[i] = v
	}
	a := make([]string, len(actors))
	copy(a, actors)
	byName := make(map[string]int, len(a))
	for i, name := range a {
		if _, ok := byName[name]; !ok {
			byName[name] = i
		}
	}
	return &Attendance{matrix: m, durations: d, actors: a, byName: byName}, nil
}

// Scenes returns the number of scenes (M).
func (a *Attendance) Scenes() int { return len(a.durations) }

// Actors returns the number of actors (N).
func (a *Attendance) Actors() int { return len(a.actors) }

// Attends reports whether actor is required in scene. It panics with
// mat.ErrRowAccess or mat.ErrColAccess when an index is outside the matrix.
func (a *Attendance) Attends(scene, actor int) bool {
	return a.matrix.At(scene, actor) == 1
}

// Duration returns the rehearsal time of scene in minutes.
func (a *Attendance) Duration(scene int) int { return a.durations[scene] }

// Durations returns a copy of all scene durations.
func (a *Attendance) Durations() []int {
	d := make([]int, len(a.durations))
	copy(d, a.durations)
	return d
}

// ActorName returns the roster name of actor i.
func (a *Attendance) ActorName(i int) string { return a.actors[i] }

// ActorNames returns a copy of the roster.
func (a *Attendance) ActorNames() []string {
	n := make([]string, len(a.actors))
	copy(n, a.actors)
	return n
}

// ActorIndex looks up the first actor with the given name.
func (a *Attendance) ActorIndex(name string) (int, bool) {
	i, ok := a.byName[name]
	return i, ok
}

// TotalMinutes sums the durations of the scenes in state.
func (a *Attendance) TotalMinutes(state State) int {
	total := 0
	for _, s := range state {
		total += a.durations[s]
	}
	return total
}

// Cast returns the actors required by scene.
func (a *Attendance) Cast(scene int) []int {
	var cast []int
	for j := 0; j < len(a.actors); j++ {
		if a.Attends(scene, j) {
			cast = append(cast, j)
		}
	}
	return cast
}
