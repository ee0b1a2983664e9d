package events

import "time"

// RunEvent is published after each annealing run.
type RunEvent struct {
	RunID string
	// Attempt is 1 for a single run and counts restarts under a retry policy.
	Attempt      int
	Energy       float64
	Steps        int
	Accepted     int
	Improved     int
	Scenes       int
	TotalMinutes int
	WaitMinutes  int
	Duration     time.Duration
}

// OutcomeEvent is published once per search with the best solution found.
type OutcomeEvent struct {
	RunID      string
	Attempts   int
	Satisfied  bool
	BestEnergy float64
	MeanEnergy float64
	StdEnergy  float64
	Warnings   int
	Elapsed    time.Duration
}
