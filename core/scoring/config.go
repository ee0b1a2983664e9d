package scoring

import "fmt"

// Mode selects how penalty terms are combined into an energy.
type Mode string

const (
	// ModeSum adds every term as-is. It is the default.
	ModeSum Mode = "sum"
	// ModeWeighted divides the weighted sum of terms by the sum of the
	// term weights.
	ModeWeighted Mode = "weighted"
)

// Default penalty magnitudes. They were tuned by hand on real casts and
// are kept overridable rather than derived.
const (
	DefaultHardPenalty      = 1_000_000
	DefaultTimePenalty      = 1000
	DefaultWaitWeight       = 1
	DefaultCallPenalty      = 50
	DefaultShortWorkPenalty = 500
	DefaultShortWorkMinutes = 60
	DefaultEmptyState       = 999_999
)

// Weights holds the magnitude of each penalty term.
type Weights struct {
	// Hard is charged per hard-constraint violation.
	Hard float64 `json:"hard"`
	// Time is charged per minute outside [min, max].
	Time float64 `json:"time"`
	// Wait multiplies total actor wait minutes.
	Wait float64 `json:"wait"`
	// Call is charged once per called actor.
	Call float64 `json:"call"`
	// ShortWork is charged per actor working less than ShortWorkMinutes.
	ShortWork float64 `json:"short_work"`
	// ShortWorkMinutes is the exclusive upper bound of a "token" call.
	ShortWorkMinutes int `json:"short_work_minutes"`
	// EmptyState is the base energy of a schedule with no scenes.
	EmptyState float64 `json:"empty_state"`
}

// TermWeights scale the terms in ModeWeighted.
type TermWeights struct {
	Hard      float64 `json:"hard"`
	Time      float64 `json:"time"`
	Wait      float64 `json:"wait"`
	Call      float64 `json:"call"`
	ShortWork float64 `json:"short_work"`
}

func (t TermWeights) sum() float64 {
	return t.Hard + t.Time + t.Wait + t.Call + t.ShortWork
}

// Config configures the scorer.
type Config struct {
	Mode        Mode        `json:"mode"`
	Weights     Weights     `json:"weights"`
	TermWeights TermWeights `json:"term_weights"`
}

// DefaultConfig returns the unweighted scoring used by the reporting path.
// Every term weight is 1, so switching to ModeWeighted alone averages the
// stock terms.
func DefaultConfig() Config {
	return Config{
		Mode: ModeSum,
		Weights: Weights{
			Hard:             DefaultHardPenalty,
			Time:             DefaultTimePenalty,
			Wait:             DefaultWaitWeight,
			Call:             DefaultCallPenalty,
			ShortWork:        DefaultShortWorkPenalty,
			ShortWorkMinutes: DefaultShortWorkMinutes,
			EmptyState:       DefaultEmptyState,
		},
		TermWeights: TermWeights{Hard: 1, Time: 1, Wait: 1, Call: 1, ShortWork: 1},
	}
}

// Validate checks the mode and rejects negative magnitudes. Zero is a valid
// magnitude for every soft term, but hard violations must always cost
// something.
func (c Config) Validate() error {
	if c.Mode != ModeSum && c.Mode != ModeWeighted {
		return fmt.Errorf("unknown scoring mode %q", c.Mode)
	}
	w := c.Weights
	if w.Hard <= 0 {
		return fmt.Errorf("weights.hard must be positive")
	}
	if w.Time < 0 || w.Wait < 0 || w.Call < 0 || w.ShortWork < 0 || w.EmptyState < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if w.ShortWorkMinutes < 0 {
		return fmt.Errorf("short_work_minutes must be non-negative")
	}
	if c.Mode == ModeWeighted {
		t := c.TermWeights
		if t.Hard < 0 || t.Time < 0 || t.Wait < 0 || t.Call < 0 || t.ShortWork < 0 {
			return fmt.Errorf("term weights must be non-negative")
		}
		if t.Hard <= 0 {
			return fmt.Errorf("term_weights.hard must be positive")
		}
	}
	return nil
}
