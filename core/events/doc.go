// Package events defines the scheduling events emitted on the event bus.
//
// Available event types:
//   - RunEvent: one annealing run finished
//   - OutcomeEvent: a search, possibly made of several runs, finished
package events
