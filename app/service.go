// Package app wires the search core to its collaborators: input
// conversion, persistence, publication and metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kilianp07/rehearsal/config"
	"github.com/kilianp07/rehearsal/core/annealing"
	"github.com/kilianp07/rehearsal/core/events"
	coremetrics "github.com/kilianp07/rehearsal/core/metrics"
	"github.com/kilianp07/rehearsal/core/model"
	"github.com/kilianp07/rehearsal/core/monitoring"
	coremqtt "github.com/kilianp07/rehearsal/core/mqtt"
	"github.com/kilianp07/rehearsal/core/report"
	"github.com/kilianp07/rehearsal/core/scoring"
	"github.com/kilianp07/rehearsal/core/store"
	"github.com/kilianp07/rehearsal/infra/logger"
	"github.com/kilianp07/rehearsal/infra/metrics"
	"github.com/kilianp07/rehearsal/infra/mqtt"
	infrastore "github.com/kilianp07/rehearsal/infra/store"
	"github.com/kilianp07/rehearsal/internal/eventbus"
)

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrConflictingScenes is returned when a scene is both required and
	// forbidden.
	ErrConflictingScenes = errors.New("scenes are both included and avoided")
	// ErrUnknownActor is returned for an ignored actor name not in the roster.
	ErrUnknownActor = errors.New("unknown actor")
)

// eventBuffer is large enough to hold the run events of a long retry.
const eventBuffer = 256

// Request describes one search. Scene numbers and actor indices are
// 1-based, as shown to users.
type Request struct {
	Attendance *model.Attendance `json:"-" validate:"required"`
	MinHours   float64           `json:"min_hours" validate:"gte=0"`
	MaxHours   float64           `json:"max_hours" validate:"gtefield=MinHours"`
	Include    []int             `json:"include"`
	Avoid      []int             `json:"avoid"`
	Ignore     ActorRefs         `json:"ignore" validate:"dive,required"`
	// Threshold enables the retry policy with the given target energy.
	Threshold *float64 `json:"threshold,omitempty"`
	// Seed overrides the configured seed when non-zero.
	Seed int64 `json:"seed"`
	// Steps overrides the configured step count when positive.
	Steps int `json:"steps" validate:"gte=0"`
}

// ActorRefs lists actors by name or by 1-based number. In JSON both
// ["bruno", 2] and ["bruno", "2"] are accepted.
type ActorRefs []string

// UnmarshalJSON reads a JSON array of strings and integers.
func (r *ActorRefs) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("ignore: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if doc.Type == gjson.Null {
		*r = nil
		return nil
	}
	if !doc.IsArray() {
		return fmt.Errorf("ignore: expected an array, got %s", doc.Raw)
	}
	refs := ActorRefs{}
	var err error
	doc.ForEach(func(_, v gjson.Result) bool {
		switch v.Type {
		case gjson.String:
			refs = append(refs, v.Str)
		case gjson.Number:
			if v.Num != math.Trunc(v.Num) {
				err = fmt.Errorf("ignore: actor number %s is not an integer", v.Raw)
				return false
			}
			refs = append(refs, strconv.FormatInt(v.Int(), 10))
		default:
			err = fmt.Errorf("ignore: %s is neither a name nor a number", v.Raw)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	*r = refs
	return nil
}

// Response is the result of Schedule.
type Response struct {
	RunID string `json:"run_id"`
	// Order is the 0-based scene order; Scenes is the same order 1-based.
	Order      []int              `json:"order"`
	Scenes     []int              `json:"scenes"`
	Energy     float64            `json:"energy"`
	Breakdown  scoring.Breakdown  `json:"breakdown"`
	Terms      map[string]float64 `json:"terms"`
	CallTimes  map[string]int     `json:"call_times"`
	CallCounts []int              `json:"call_counts"`
	Report     report.Report      `json:"report"`
	Warnings   []string           `json:"warnings,omitempty"`
	Attempts   int                `json:"attempts"`
	Satisfied  bool               `json:"satisfied"`
	Elapsed    time.Duration      `json:"elapsed"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Solution converts the response into its stored form.
func (r Response) Solution() store.Solution {
	return store.Solution{
		ID:         r.RunID,
		CreatedAt:  r.CreatedAt,
		Order:      r.Scenes,
		Energy:     r.Energy,
		Terms:      r.Terms,
		CallTimes:  r.CallTimes,
		CallCounts: r.CallCounts,
		Warnings:   r.Warnings,
		Attempts:   r.Attempts,
		Satisfied:  r.Satisfied,
		Report:     r.Report,
	}
}

// Service runs searches and fans their results out to the store, the
// MQTT publisher and the metrics sinks.
type Service struct {
	cfg      *config.Config
	store    store.ResultStore
	pub      coremqtt.Publisher
	sink     coremetrics.MetricsSink
	bus      eventbus.EventBus
	validate *validator.Validate
	log      logger.Logger

	stopCollector context.CancelFunc
	collectorDone <-chan struct{}
}

// Option overrides a collaborator built from the configuration.
type Option func(*Service)

func WithStore(s store.ResultStore) Option { return func(svc *Service) { svc.store = s } }

func WithPublisher(p coremqtt.Publisher) Option { return func(svc *Service) { svc.pub = p } }

func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

func WithBus(b eventbus.EventBus) Option { return func(svc *Service) { svc.bus = b } }

func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	svc := &Service{cfg: cfg, validate: validator.New(validator.WithRequiredStructEnabled())}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		svc.log = logger.New("service")
	}
	var err error
	if svc.store == nil {
		if svc.store, err = infrastore.New(cfg.Store); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	if svc.pub == nil {
		if svc.pub, err = mqtt.New(cfg.MQTT); err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}
	if svc.sink == nil {
		if svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if svc.bus == nil {
		svc.bus = eventbus.NewWithBuffer(eventBuffer)
	}
	ctx, cancel := context.WithCancel(context.Background())
	svc.stopCollector = cancel
	svc.collectorDone = metrics.StartEventCollector(ctx, svc.bus, svc.sink)
	return svc, nil
}

// Schedule validates req, searches for the best rehearsal order and
// records the result.
func (s *Service) Schedule(ctx context.Context, req Request) (Response, error) {
	if err := s.validate.Struct(req); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	att := req.Attendance
	c, warnings, err := constraints(att, req)
	if err != nil {
		return Response{}, err
	}
	problem := annealing.Problem{
		Attendance:  att,
		Constraints: c,
		Scorer:      scoring.New(att, c, s.cfg.Scoring),
	}

	acfg := s.cfg.Annealing
	if req.Steps > 0 {
		acfg.StepMax = req.Steps
	}
	if req.Seed != 0 {
		acfg.Seed = req.Seed
	}
	rcfg := s.cfg.Retry
	if req.Threshold != nil {
		rcfg.Enabled = true
		rcfg.Threshold = *req.Threshold
	}

	runID := uuid.NewString()
	log := s.log
	log.Infof("search %s: %d scenes, %d actors, %d steps", runID, att.Scenes(), att.Actors(), acfg.StepMax)

	a := annealing.New(acfg, problem, nil, log)
	out, err := s.search(ctx, a, rcfg)
	if err != nil {
		return Response{}, err
	}

	best := out.Best
	resp := Response{
		RunID:      runID,
		Order:      best.State.Clone(),
		Scenes:     best.State.OneBased(),
		Energy:     best.Energy(),
		Breakdown:  best.Evaluation.Breakdown,
		Terms:      best.Evaluation.Breakdown.Terms(),
		CallTimes:  best.Evaluation.CallTimes,
		CallCounts: best.Evaluation.CallCounts,
		Report:     report.Build(att, best.State, c),
		Warnings:   append(warnings, best.Warnings...),
		Attempts:   len(out.Attempts),
		Satisfied:  out.Satisfied,
		Elapsed:    out.Elapsed,
		CreatedAt:  time.Now().UTC(),
	}
	s.publishEvents(runID, out, resp)

	sol := resp.Solution()
	if err := s.store.Save(ctx, sol); err != nil {
		monitoring.CaptureException(err, map[string]string{"component": "store", "run_id": runID})
		return resp, fmt.Errorf("save solution: %w", err)
	}
	if err := s.pub.Publish(ctx, sol); err != nil {
		log.Warnf("publish solution %s: %v", runID, err)
		monitoring.CaptureException(err, map[string]string{"component": "mqtt", "run_id": runID})
	}
	return resp, nil
}

// search runs the retry policy when enabled and a single run otherwise.
// A single run counts as satisfied when no hard constraint is violated.
func (s *Service) search(ctx context.Context, a *annealing.Annealer, rcfg annealing.RetryConfig) (annealing.Outcome, error) {
	if rcfg.Enabled {
		return annealing.NewRetry(a, rcfg, s.log).Run(ctx)
	}
	if err := ctx.Err(); err != nil {
		return annealing.Outcome{}, err
	}
	res := a.Run(a.Seed())
	return annealing.Outcome{
		Best: res,
		Attempts: []annealing.Attempt{{
			Energy:   res.Energy(),
			Steps:    res.Steps,
			Accepted: res.Accepted,
			Improved: res.Improved,
			Duration: res.Duration,
		}},
		Satisfied:  res.Evaluation.Breakdown.Hard() == 0,
		Elapsed:    res.Duration,
		MeanEnergy: res.Energy(),
	}, nil
}

func (s *Service) publishEvents(runID string, out annealing.Outcome, resp Response) {
	bestIdx := -1
	for i, at := range out.Attempts {
		ev := events.RunEvent{
			RunID:    runID,
			Attempt:  i + 1,
			Energy:   at.Energy,
			Steps:    at.Steps,
			Accepted: at.Accepted,
			Improved: at.Improved,
			Duration: at.Duration,
		}
		if bestIdx < 0 && at.Energy == resp.Energy {
			bestIdx = i
			ev.Scenes = len(resp.Order)
			ev.TotalMinutes = resp.Breakdown.TotalMinutes
			ev.WaitMinutes = resp.Breakdown.WaitMinutes
		}
		s.bus.Publish(ev)
	}
	s.bus.Publish(events.OutcomeEvent{
		RunID:      runID,
		Attempts:   len(out.Attempts),
		Satisfied:  out.Satisfied,
		BestEnergy: resp.Energy,
		MeanEnergy: out.MeanEnergy,
		StdEnergy:  out.StdEnergy,
		Warnings:   len(resp.Warnings),
		Elapsed:    out.Elapsed,
	})
}

// Get returns a stored solution.
func (s *Service) Get(ctx context.Context, id string) (store.Solution, error) {
	return s.store.Get(ctx, id)
}

// Latest returns the most recent stored solution.
func (s *Service) Latest(ctx context.Context) (store.Solution, error) {
	return s.store.Latest(ctx)
}

// Sink returns the metrics sink fed by the event collector.
func (s *Service) Sink() coremetrics.MetricsSink { return s.sink }

// Close stops the collector and releases the store, publisher and sinks.
func (s *Service) Close() error {
	s.stopCollector()
	<-s.collectorDone
	s.bus.Close()
	if d, ok := s.pub.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return s.store.Close()
}

// constraints converts the 1-based request lists into core constraints.
// Scene numbers outside the matrix are dropped with a warning.
func constraints(att *model.Attendance, req Request) (*model.Constraints, []string, error) {
	var warnings []string
	include, dropped := model.FromOneBased(req.Include, att.Scenes())
	for _, d := range dropped {
		warnings = append(warnings, fmt.Sprintf("included scene %d does not exist and was ignored", d))
	}
	avoid, dropped := model.FromOneBased(req.Avoid, att.Scenes())
	for _, d := range dropped {
		warnings = append(warnings, fmt.Sprintf("avoided scene %d does not exist and was ignored", d))
	}
	ignored, w, err := ignoredActors(att, req.Ignore)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, w...)

	c := model.NewConstraints(model.BoundsFromHours(req.MinHours, req.MaxHours), ignored, include, avoid)
	if conflicts := c.Conflicts(); len(conflicts) > 0 {
		return nil, nil, fmt.Errorf("%w: %v", ErrConflictingScenes, model.State(conflicts).OneBased())
	}
	return c, warnings, nil
}

func ignoredActors(att *model.Attendance, names []string) ([]int, []string, error) {
	var (
		idx      []int
		warnings []string
	)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if n, err := strconv.Atoi(name); err == nil {
			if n < 1 || n > att.Actors() {
				warnings = append(warnings, fmt.Sprintf("ignored actor %d does not exist and was skipped", n))
				continue
			}
			idx = append(idx, n-1)
			continue
		}
		i, ok := att.ActorIndex(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownActor, raw)
		}
		idx = append(idx, i)
	}
	return idx, warnings, nil
}
