// Package store defines persistence of the best schedule of each search.
// Only the winning solution is kept; intermediate annealing states are
// never written.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/rehearsal/core/report"
)

// ErrNotFound is returned when no solution matches.
var ErrNotFound = errors.New("solution not found")

// Solution is the persisted outcome of one search.
type Solution struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// Order holds the 1-based scene numbers in rehearsal order.
	Order      []int              `json:"order" yaml:"order"`
	Energy     float64            `json:"energy" yaml:"energy"`
	Terms      map[string]float64 `json:"terms" yaml:"terms"`
	CallTimes  map[string]int     `json:"call_times" yaml:"call_times"`
	CallCounts []int              `json:"call_counts" yaml:"call_counts"`
	Warnings   []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Attempts   int                `json:"attempts" yaml:"attempts"`
	Satisfied  bool               `json:"satisfied" yaml:"satisfied"`
	Report     report.Report      `json:"report" yaml:"report"`
}

// ResultStore persists Solutions.
type ResultStore interface {
	Save(ctx context.Context, s Solution) error
	Get(ctx context.Context, id string) (Solution, error)
	// Latest returns the most recently saved solution.
	Latest(ctx context.Context) (Solution, error)
	Close() error
}
