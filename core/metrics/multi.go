package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(rec RunRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordOutcome forwards outcomes to the sinks that support them.
func (m *MultiSink) RecordOutcome(rec OutcomeRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(OutcomeRecorder); ok {
			if err := r.RecordOutcome(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the sinks that hold a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
