package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rehearsal/app"
	"github.com/kilianp07/rehearsal/infra/logger"
	"github.com/kilianp07/rehearsal/pkg/export"
	"github.com/kilianp07/rehearsal/pkg/input"
)

var scheduleOpts struct {
	input     string
	minHours  float64
	maxHours  float64
	include   []int
	avoid     []int
	ignore    []string
	threshold float64
	seed      int64
	steps     int
	format    string
	output    string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Search for a rehearsal order",
	Example: `  rehearsal schedule --input scenes.csv --min-hours 2 --max-hours 8 \
    --include 1,2 --avoid 4 --ignore salvador --threshold 800 --format text`,
	RunE: runSchedule,
}

func init() {
	f := scheduleCmd.Flags()
	f.StringVarP(&scheduleOpts.input, "input", "i", "", "attendance table (.csv, .json or .yaml)")
	f.Float64Var(&scheduleOpts.minHours, "min-hours", 0, "minimum rehearsal length in hours")
	f.Float64Var(&scheduleOpts.maxHours, "max-hours", 8, "maximum rehearsal length in hours")
	f.IntSliceVar(&scheduleOpts.include, "include", nil, "scene numbers that must be rehearsed")
	f.IntSliceVar(&scheduleOpts.avoid, "avoid", nil, "scene numbers that must not be rehearsed")
	f.StringSliceVar(&scheduleOpts.ignore, "ignore", nil, "actors (names or numbers) who must not be called")
	f.Float64Var(&scheduleOpts.threshold, "threshold", 0, "retry until the energy is at or below this value")
	f.Int64Var(&scheduleOpts.seed, "seed", 0, "random seed (0 picks one)")
	f.IntVar(&scheduleOpts.steps, "steps", 0, "annealing steps per run (0 uses the configuration)")
	f.StringVarP(&scheduleOpts.format, "format", "f", "text", "output format: text, json, csv or yaml")
	f.StringVarP(&scheduleOpts.output, "output", "o", "", "write to this file instead of stdout")
	_ = scheduleCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := export.ParseFormat(scheduleOpts.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flush, err := startMonitoring(cfg)
	if err != nil {
		return err
	}
	defer flush()
	att, err := input.LoadFile(scheduleOpts.input)
	if err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("schedule-command").Errorf("service close: %v", err)
		}
	}()

	req := app.Request{
		Attendance: att,
		MinHours:   scheduleOpts.minHours,
		MaxHours:   scheduleOpts.maxHours,
		Include:    scheduleOpts.include,
		Avoid:      scheduleOpts.avoid,
		Ignore:     scheduleOpts.ignore,
		Seed:       scheduleOpts.seed,
		Steps:      scheduleOpts.steps,
	}
	if cmd.Flags().Changed("threshold") {
		t := scheduleOpts.threshold
		req.Threshold = &t
	}
	resp, err := svc.Schedule(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scheduleOpts.output != "" {
		f, err := os.Create(scheduleOpts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := export.Write(out, format, resp.Solution()); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if !resp.Satisfied {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no schedule satisfied every constraint")
	}
	return nil
}
