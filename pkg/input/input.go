// Package input reads scene × actor attendance tables from CSV, JSON and
// YAML into a model.Attendance.
package input

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rehearsal/core/model"
)

// ErrUnsupportedFormat is returned for files that are not .csv, .json or .yaml.
var ErrUnsupportedFormat = errors.New("unsupported attendance format")

// Scene is one row of the table.
type Scene struct {
	Duration   int       `json:"duration" yaml:"duration"`
	Attendance []float64 `json:"attendance" yaml:"attendance"`
}

// Matrix is the parsed table before validation.
type Matrix struct {
	Actors []string `json:"actors" yaml:"actors"`
	Scenes []Scene  `json:"scenes" yaml:"scenes"`
}

// Attendance normalises the matrix and builds the read-only model. Actor
// names are lower-cased and trimmed, non-zero cells become 1 and missing
// trailing cells become 0.
func (m Matrix) Attendance() (*model.Attendance, error) {
	actors := make([]string, len(m.Actors))
	for i, a := range m.Actors {
		actors[i] = normalizeName(a)
	}
	rows := make([][]float64, len(m.Scenes))
	durations := make([]int, len(m.Scenes))
	for i, s := range m.Scenes {
		if len(s.Attendance) > len(actors) {
			return nil, fmt.Errorf("scene %d: %d cells for %d actors", i+1, len(s.Attendance), len(actors))
		}
		row := make([]float64, len(actors))
		for j, v := range s.Attendance {
			if v != 0 {
				row[j] = 1
			}
		}
		rows[i] = row
		durations[i] = s.Duration
	}
	return model.NewAttendance(rows, durations, actors)
}

// LoadFile reads path, picking the parser from its extension.
func LoadFile(path string) (*model.Attendance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Matrix
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		m, err = ParseCSV(bytes.NewReader(data))
	case ".json":
		m, err = ParseJSON(data)
	case ".yaml", ".yml":
		m, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m.Attendance()
}

// ParseYAML decodes the same shape as ParseJSON.
func ParseYAML(data []byte) (Matrix, error) {
	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Matrix{}, err
	}
	return m, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
