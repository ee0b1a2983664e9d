package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rehearsal/core/metrics"
	"github.com/kilianp07/rehearsal/infra/logger"
)

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes scheduling records to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one annealing run.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(rec))
}

// RecordOutcome writes the summary of a search.
func (s *InfluxSink) RecordOutcome(rec coremetrics.OutcomeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, outcomePoint(rec))
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func runPoint(rec coremetrics.RunRecord) *write.Point {
	return write.NewPointWithMeasurement("annealing_run").
		AddTag("run_id", rec.RunID).
		AddTag("attempt", strconv.Itoa(rec.Attempt)).
		AddTag("component", "annealer").
		AddField("energy", round3(rec.Energy)).
		AddField("steps", rec.Steps).
		AddField("accepted", rec.Accepted).
		AddField("improved", rec.Improved).
		AddField("scenes", rec.Scenes).
		AddField("total_minutes", rec.TotalMinutes).
		AddField("wait_minutes", rec.WaitMinutes).
		AddField("acceptance_rate", round3(rec.AcceptanceRate())).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(rec.Time)
}

func outcomePoint(rec coremetrics.OutcomeRecord) *write.Point {
	return write.NewPointWithMeasurement("search_outcome").
		AddTag("run_id", rec.RunID).
		AddTag("satisfied", strconv.FormatBool(rec.Satisfied)).
		AddTag("component", "retry").
		AddField("attempts", rec.Attempts).
		AddField("best_energy", round3(rec.BestEnergy)).
		AddField("mean_energy", round3(rec.MeanEnergy)).
		AddField("std_energy", round3(rec.StdEnergy)).
		AddField("warnings", rec.Warnings).
		AddField("elapsed_ms", round3(rec.Elapsed.Seconds()*1000)).
		SetTime(rec.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
