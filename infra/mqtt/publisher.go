package mqtt

import (
	"context"
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/rehearsal/core/mqtt"
	"github.com/kilianp07/rehearsal/core/store"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// New returns a PahoPublisher when a broker is configured and a
// NopPublisher otherwise.
func New(cfg Config) (Publisher, error) {
	if !cfg.Enabled() {
		return coremqtt.NopPublisher{}, nil
	}
	return NewPahoPublisher(cfg)
}

// MockPublisher records announcements in memory. It is used in tests.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []Announcement
	// Fail makes every publish return an error.
	Fail bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// Publish records the announcement or fails when configured to.
func (m *MockPublisher) Publish(_ context.Context, sol store.Solution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Messages = append(m.Messages, NewAnnouncement(sol))
	return nil
}

// Published returns a copy of the recorded announcements.
func (m *MockPublisher) Published() []Announcement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Announcement(nil), m.Messages...)
}
