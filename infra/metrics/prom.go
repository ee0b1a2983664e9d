package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/rehearsal/core/metrics"
)

// PromSink records annealing runs and search outcomes in Prometheus metrics.
type PromSink struct {
	runs       prometheus.Counter
	steps      prometheus.Counter
	duration   prometheus.Histogram
	acceptance prometheus.Histogram
	outcomes   *prometheus.CounterVec
	best       prometheus.Gauge
	attempts   prometheus.Histogram
}

// NewPromSink registers scheduling metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rehearsal_annealing_runs_total",
			Help: "Total number of annealing runs",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rehearsal_annealing_steps_total",
			Help: "Total number of neighbor proposals evaluated",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rehearsal_annealing_run_seconds",
			Help:    "Wall time of a single annealing run",
			Buckets: prometheus.DefBuckets,
		}),
		acceptance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rehearsal_annealing_acceptance_ratio",
			Help:    "Share of proposals accepted during a run",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rehearsal_searches_total",
			Help: "Total number of searches by threshold outcome",
		}, []string{"satisfied"}),
		best: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rehearsal_best_energy",
			Help: "Energy of the best schedule of the latest search",
		}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rehearsal_search_attempts",
			Help:    "Number of annealing runs per search",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
		}),
	}

	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.steps, err = register(reg, s.steps); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.acceptance, err = register(reg, s.acceptance); err != nil {
		return nil, err
	}
	if s.outcomes, err = register(reg, s.outcomes); err != nil {
		return nil, err
	}
	if s.best, err = register(reg, s.best); err != nil {
		return nil, err
	}
	if s.attempts, err = register(reg, s.attempts); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates the run counters and histograms.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	s.runs.Inc()
	s.steps.Add(float64(rec.Steps))
	s.duration.Observe(rec.Duration.Seconds())
	s.acceptance.Observe(rec.AcceptanceRate())
	return nil
}

// RecordOutcome counts the search and sets the best energy gauge.
func (s *PromSink) RecordOutcome(rec coremetrics.OutcomeRecord) error {
	s.outcomes.WithLabelValues(strconv.FormatBool(rec.Satisfied)).Inc()
	s.best.Set(rec.BestEnergy)
	s.attempts.Observe(float64(rec.Attempts))
	return nil
}
