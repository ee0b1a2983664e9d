package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/rehearsal/core/events"
	coremetrics "github.com/kilianp07/rehearsal/core/metrics"
	"github.com/kilianp07/rehearsal/infra/logger"
	"github.com/kilianp07/rehearsal/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// scheduling events. It stops when the context is canceled or the bus is
// closed. The returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.RunEvent:
		return sink.RecordRun(coremetrics.RunRecord{
			RunID:        e.RunID,
			Attempt:      e.Attempt,
			Energy:       e.Energy,
			Steps:        e.Steps,
			Accepted:     e.Accepted,
			Improved:     e.Improved,
			Scenes:       e.Scenes,
			TotalMinutes: e.TotalMinutes,
			WaitMinutes:  e.WaitMinutes,
			Duration:     e.Duration,
			Time:         time.Now(),
		})
	case events.OutcomeEvent:
		r, ok := sink.(coremetrics.OutcomeRecorder)
		if !ok {
			return nil
		}
		return r.RecordOutcome(coremetrics.OutcomeRecord{
			RunID:      e.RunID,
			Attempts:   e.Attempts,
			Satisfied:  e.Satisfied,
			BestEnergy: e.BestEnergy,
			MeanEnergy: e.MeanEnergy,
			StdEnergy:  e.StdEnergy,
			Warnings:   e.Warnings,
			Elapsed:    e.Elapsed,
			Time:       time.Now(),
		})
	}
	return nil
}
