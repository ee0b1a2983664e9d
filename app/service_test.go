package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rehearsal/config"
	coremetrics "github.com/kilianp07/rehearsal/core/metrics"
	"github.com/kilianp07/rehearsal/core/model"
	"github.com/kilianp07/rehearsal/core/store"
	"github.com/kilianp07/rehearsal/infra/logger"
	"github.com/kilianp07/rehearsal/infra/mqtt"
)

type countingSink struct {
	mu       sync.Mutex
	runs     []coremetrics.RunRecord
	outcomes []coremetrics.OutcomeRecord
}

func (c *countingSink) RecordRun(r coremetrics.RunRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, r)
	return nil
}

func (c *countingSink) RecordOutcome(r coremetrics.OutcomeRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, r)
	return nil
}

func (c *countingSink) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.runs), len(c.outcomes)
}

type fixture struct {
	svc   *Service
	store *store.MemoryStore
	pub   *mqtt.MockPublisher
	sink  *countingSink
}

func newFixture(t *testing.T, mutate func(*config.Config)) fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Annealing.Seed = 3
	if mutate != nil {
		mutate(cfg)
	}
	f := fixture{store: store.NewMemoryStore(), pub: mqtt.NewMockPublisher(), sink: &countingSink{}}
	svc, err := New(cfg,
		WithStore(f.store),
		WithPublisher(f.pub),
		WithSink(f.sink),
		WithLogger(logger.NopLogger{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	f.svc = svc
	return f
}

// a plays scenes 1-2, b plays scenes 3-4; every scene lasts an hour.
func pairs(t *testing.T) *model.Attendance {
	t.Helper()
	att, err := model.NewAttendance(
		[][]float64{{1, 0}, {1, 0}, {0, 1}, {0, 1}},
		[]int{60, 60, 60, 60},
		[]string{"a", "b"},
	)
	require.NoError(t, err)
	return att
}

func TestScheduleFindsPairAndRecordsIt(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.svc.Schedule(context.Background(), Request{Attendance: pairs(t), MinHours: 2, MaxHours: 2})
	require.NoError(t, err)

	assert.Equal(t, 50.0, resp.Energy)
	require.Len(t, resp.Order, 2)
	for i := range resp.Order {
		assert.Equal(t, resp.Order[i]+1, resp.Scenes[i])
	}
	assert.Equal(t, 120, resp.Report.TotalMinutes)
	assert.Len(t, resp.Report.Rows, 1)
	assert.Equal(t, 1, resp.Attempts)
	assert.True(t, resp.Satisfied)
	assert.NotEmpty(t, resp.RunID)
	assert.Contains(t, resp.Terms, "Call Penalty")

	stored, err := f.svc.Get(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, resp.Scenes, stored.Order)
	latest, err := f.svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, latest.ID)

	msgs := f.pub.Published()
	require.Len(t, msgs, 1)

	require.Eventually(t, func() bool {
		runs, outcomes := f.sink.counts()
		return runs == 1 && outcomes == 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduleHonoursIncludeAndAvoid(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.svc.Schedule(context.Background(), Request{
		Attendance: pairs(t), MinHours: 2, MaxHours: 2,
		Include: []int{3}, Avoid: []int{1},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Scenes, 3)
	assert.NotContains(t, resp.Scenes, 1)
	assert.Equal(t, 50.0, resp.Energy)
}

func TestScheduleRejectsConflicts(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Schedule(context.Background(), Request{
		Attendance: pairs(t), MaxHours: 2, Include: []int{2, 3}, Avoid: []int{3},
	})
	assert.ErrorIs(t, err, ErrConflictingScenes)
	assert.Empty(t, f.pub.Published())
}

func TestScheduleValidation(t *testing.T) {
	f := newFixture(t, nil)
	cases := map[string]Request{
		"no attendance":  {MaxHours: 1},
		"negative min":   {Attendance: pairs(t), MinHours: -1, MaxHours: 1},
		"max below min":  {Attendance: pairs(t), MinHours: 3, MaxHours: 2},
		"blank ignore":   {Attendance: pairs(t), MaxHours: 2, Ignore: []string{""}},
		"negative steps": {Attendance: pairs(t), MaxHours: 2, Steps: -1},
	}
	for name, req := range cases {
		_, err := f.svc.Schedule(context.Background(), req)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}
}

func TestScheduleDropsUnknownScenes(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.svc.Schedule(context.Background(), Request{
		Attendance: pairs(t), MinHours: 2, MaxHours: 2, Include: []int{9}, Avoid: []int{0},
		Steps: 2000,
	})
	require.NoError(t, err)
	require.Len(t, resp.Warnings, 2)
	assert.Contains(t, resp.Warnings[0], "included scene 9")
	assert.Contains(t, resp.Warnings[1], "avoided scene 0")
}

func TestScheduleIgnoredActors(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.svc.Schedule(context.Background(), Request{
		Attendance: pairs(t), MinHours: 2, MaxHours: 2, Ignore: []string{" B ", "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, resp.Energy)
	assert.ElementsMatch(t, []int{1, 2}, resp.Scenes)
	_, called := resp.CallTimes["b"]
	assert.False(t, called)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "ignored actor 7")

	_, err = f.svc.Schedule(context.Background(), Request{Attendance: pairs(t), MaxHours: 2, Ignore: []string{"zoe"}})
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestActorRefsUnmarshal(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"ignore": ["Bruno", 2, "3"]}`), &req))
	assert.Equal(t, ActorRefs{"Bruno", "2", "3"}, req.Ignore)

	req = Request{}
	require.NoError(t, json.Unmarshal([]byte(`{"ignore": null}`), &req))
	assert.Nil(t, req.Ignore)

	for _, body := range []string{`{"ignore": [2.5]}`, `{"ignore": [{}]}`, `{"ignore": "bruno"}`} {
		if err := json.Unmarshal([]byte(body), &req); err == nil {
			t.Errorf("%s: expected error", body)
		}
	}
}

func TestScheduleThresholdUsesRetry(t *testing.T) {
	f := newFixture(t, nil)
	threshold := 50.0
	resp, err := f.svc.Schedule(context.Background(), Request{
		Attendance: pairs(t), MinHours: 2, MaxHours: 2, Threshold: &threshold,
	})
	require.NoError(t, err)
	assert.True(t, resp.Satisfied)
	assert.LessOrEqual(t, resp.Energy, threshold)
}

func TestScheduleRetryGivesUp(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Retry.Enabled = true
		c.Retry.Threshold = -1
		c.Retry.MaxAttempts = 3
	})
	resp, err := f.svc.Schedule(context.Background(), Request{
		Attendance: pairs(t), MinHours: 2, MaxHours: 2, Steps: 500,
	})
	require.NoError(t, err)
	assert.False(t, resp.Satisfied)
	assert.Equal(t, 3, resp.Attempts)

	require.Eventually(t, func() bool {
		runs, outcomes := f.sink.counts()
		return runs == 3 && outcomes == 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduleCancelled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Schedule(ctx, Request{Attendance: pairs(t), MaxHours: 2})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = f.svc.Latest(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSchedulePublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.pub.Fail = true
	resp, err := f.svc.Schedule(context.Background(), Request{Attendance: pairs(t), MinHours: 2, MaxHours: 2, Steps: 500})
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), resp.RunID)
	assert.NoError(t, err)
}

func TestNewBuildsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.StoreJSONL
	cfg.Store.Path = t.TempDir() + "/solutions.jsonl"
	svc, err := New(cfg, WithLogger(logger.NopLogger{}))
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, svc.Sink())
	require.NoError(t, svc.Close())

	cfg.Store.Backend = "redis"
	_, err = New(cfg)
	assert.Error(t, err)
}
