package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/rehearsal/core/model"
)

// ParseCSV reads a table whose header holds actor names after a label
// cell, and whose rows start with the scene duration in minutes. Blank
// cells are 0.
func ParseCSV(r io.Reader) (Matrix, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Matrix{}, model.ErrEmptyAttendance
	}
	if err != nil {
		return Matrix{}, fmt.Errorf("header: %w", err)
	}
	if len(header) < 2 {
		return Matrix{}, fmt.Errorf("header: need a duration column and at least one actor")
	}
	m := Matrix{Actors: append([]string(nil), header[1:]...)}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Matrix{}, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		d, err := parseDuration(rec[0])
		if err != nil {
			return Matrix{}, fmt.Errorf("line %d: %w", line, err)
		}
		scene := Scene{Duration: d, Attendance: make([]float64, 0, len(rec)-1)}
		for col, cell := range rec[1:] {
			v, err := parseCell(cell)
			if err != nil {
				return Matrix{}, fmt.Errorf("line %d column %d: %w", line, col+2, err)
			}
			scene.Attendance = append(scene.Attendance, v)
		}
		m.Scenes = append(m.Scenes, scene)
	}
	if len(m.Scenes) == 0 {
		return Matrix{}, model.ErrEmptyAttendance
	}
	return m, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("scene duration %q is not an integer", s)
	}
	return int(f), nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidCell, s)
	}
	return v, nil
}
