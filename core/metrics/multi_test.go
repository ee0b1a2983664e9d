package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	runs     int
	outcomes int
}

func (r *recordSink) RecordRun(RunRecord) error { r.runs++; return nil }

func (r *recordSink) RecordOutcome(OutcomeRecord) error { r.outcomes++; return nil }

type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunRecord) error { r.runs++; return nil }

type failing struct{}

func (failing) RecordRun(RunRecord) error { return errors.New("down") }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &runOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordRun(RunRecord{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordOutcome(OutcomeRecord{}); err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	if s1.runs != 1 || s2.runs != 1 || s1.outcomes != 1 {
		t.Fatalf("records not forwarded")
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	after := &runOnly{}
	m := NewMultiSink(failing{}, after)
	if err := m.RecordRun(RunRecord{}); err == nil {
		t.Fatal("expected error")
	}
	if after.runs != 0 {
		t.Fatal("sink after a failure must not be called")
	}
}

func TestAcceptanceRate(t *testing.T) {
	if r := (RunRecord{}).AcceptanceRate(); r != 0 {
		t.Fatalf("expected 0 for no steps, got %v", r)
	}
	if r := (RunRecord{Steps: 200, Accepted: 50}).AcceptanceRate(); r != 0.25 {
		t.Fatalf("expected 0.25, got %v", r)
	}
}

type closingSink struct {
	runOnly
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	c := &closingSink{}
	NewMultiSink(&runOnly{}, c).Close()
	if !c.closed {
		t.Fatalf("closer not closed")
	}
}
