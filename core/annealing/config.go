package annealing

import (
	"fmt"
	"time"

	"github.com/kilianp07/rehearsal/core/neighbor"
)

const (
	DefaultStepMax = 10_000
	DefaultTMax    = 105.0
	DefaultTMin    = 0.0
	DefaultBudget  = 30 * time.Second
)

// Config tunes a single annealing run.
type Config struct {
	StepMax       int     `json:"step_max"`
	TMax          float64 `json:"t_max"`
	TMin          float64 `json:"t_min"`
	AddRemoveProb float64 `json:"add_remove_prob"`
	RemoveProb    float64 `json:"remove_prob"`
	// Seed feeds the random source. Zero picks a time based seed.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the stock schedule: 10,000 steps cooling linearly
// from 105 to 0, with an even move distribution. Fields are used as given,
// so StepMax 0 returns the seed untouched.
func DefaultConfig() Config {
	n := neighbor.DefaultConfig()
	return Config{
		StepMax:       DefaultStepMax,
		TMax:          DefaultTMax,
		TMin:          DefaultTMin,
		AddRemoveProb: n.AddRemoveProb,
		RemoveProb:    n.RemoveProb,
	}
}

// Validate rejects negative steps and inverted temperatures.
func (c Config) Validate() error {
	if c.StepMax < 0 {
		return fmt.Errorf("step_max must be non-negative")
	}
	if c.TMin < 0 {
		return fmt.Errorf("t_min must be non-negative")
	}
	if c.TMax < c.TMin {
		return fmt.Errorf("t_max (%g) must be >= t_min (%g)", c.TMax, c.TMin)
	}
	return c.Neighbor().Validate()
}

// Neighbor returns the move distribution part of the config.
func (c Config) Neighbor() neighbor.Config {
	return neighbor.Config{AddRemoveProb: c.AddRemoveProb, RemoveProb: c.RemoveProb}
}

// RetryConfig controls the outer restart policy.
type RetryConfig struct {
	Enabled bool `json:"enabled"`
	// Threshold is the energy a run must reach to stop retrying.
	Threshold float64 `json:"threshold"`
	// BudgetSeconds bounds the wall time spent across attempts.
	BudgetSeconds float64 `json:"budget_seconds"`
	// MaxAttempts caps the number of runs. Zero means unlimited.
	MaxAttempts int `json:"max_attempts"`
}

// SetDefaults applies the 30 second budget.
func (r *RetryConfig) SetDefaults() {
	if r.BudgetSeconds == 0 {
		r.BudgetSeconds = DefaultBudget.Seconds()
	}
}

// Validate checks the budget and attempt cap.
func (r RetryConfig) Validate() error {
	if r.BudgetSeconds < 0 {
		return fmt.Errorf("budget_seconds must be non-negative")
	}
	if r.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be non-negative")
	}
	return nil
}

// Budget returns BudgetSeconds as a duration.
func (r RetryConfig) Budget() time.Duration {
	return time.Duration(r.BudgetSeconds * float64(time.Second))
}
