package metrics

import "time"

// RunRecord describes one finished annealing run.
type RunRecord struct {
	RunID        string
	Attempt      int
	Energy       float64
	Steps        int
	Accepted     int
	Improved     int
	Scenes       int
	TotalMinutes int
	WaitMinutes  int
	Duration     time.Duration
	Time         time.Time
}

// AcceptanceRate is the share of proposals accepted during the run.
func (r RunRecord) AcceptanceRate() float64 {
	if r.Steps == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Steps)
}

// MetricsSink records annealing runs for observability purposes.
type MetricsSink interface {
	RecordRun(rec RunRecord) error
}

// OutcomeRecord summarises a whole search.
type OutcomeRecord struct {
	RunID      string
	Attempts   int
	Satisfied  bool
	BestEnergy float64
	MeanEnergy float64
	StdEnergy  float64
	Warnings   int
	Elapsed    time.Duration
	Time       time.Time
}

// OutcomeRecorder records search outcomes.
type OutcomeRecorder interface {
	RecordOutcome(rec OutcomeRecord) error
}

// NopSink implements MetricsSink and OutcomeRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error         { return nil }
func (NopSink) RecordOutcome(OutcomeRecord) error { return nil }
