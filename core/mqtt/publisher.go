// Package mqtt defines how finished schedules are announced to other
// systems, typically a call-sheet board subscribed over MQTT.
package mqtt

import (
	"context"
	"errors"

	"github.com/kilianp07/rehearsal/core/store"
)

// ErrPublishTimeout is returned when the broker does not confirm a publish
// in time.
var ErrPublishTimeout = errors.New("timeout waiting for publish confirmation")

// Publisher announces the best solution of a search.
type Publisher interface {
	Publish(ctx context.Context, sol store.Solution) error
}

// NopPublisher drops every solution.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, store.Solution) error { return nil }
