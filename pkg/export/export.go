// Package export renders a stored solution for people and for other tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rehearsal/core/store"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts the format names case-insensitively. "yml" is an
// alias of yaml and "" means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Write encodes sol to w in format f.
func Write(w io.Writer, f Format, sol store.Solution) error {
	switch f {
	case FormatText:
		return WriteText(w, sol)
	case FormatJSON:
		return WriteJSON(w, sol)
	case FormatCSV:
		return WriteCSV(w, sol)
	case FormatYAML:
		return WriteYAML(w, sol)
	}
	return fmt.Errorf("unknown format %q", f)
}

// WriteJSON writes sol as indented JSON.
func WriteJSON(w io.Writer, sol store.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sol)
}

// WriteYAML writes sol as YAML.
func WriteYAML(w io.Writer, sol store.Solution) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sol); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes the attendance grid: a header of scene numbers, one row
// per actor, and a final row of scene durations.
func WriteCSV(w io.Writer, sol store.Solution) error {
	r := sol.Report
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"actor"}, r.Header()...)); err != nil {
		return err
	}
	for _, row := range r.Rows {
		rec := append([]string{row.Actor}, row.Marks...)
		rec = append(rec, strconv.Itoa(row.WaitMinutes), strconv.Itoa(row.TotalMinutes))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	durations := []string{"duration (min)"}
	for _, d := range r.Durations {
		durations = append(durations, strconv.Itoa(d))
	}
	durations = append(durations, "", strconv.Itoa(r.TotalMinutes))
	if err := cw.Write(durations); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes a summary followed by the attendance grid.
func WriteText(w io.Writer, sol store.Solution) error {
	ew := &errWriter{w: w}
	ew.printf("Run: %s\n", sol.ID)
	ew.printf("Scenes: %s\n", joinInts(sol.Order, " "))
	ew.printf("Energy (lower is better): %.1f\n", sol.Energy)
	if sol.Attempts > 1 {
		ew.printf("Attempts: %d (threshold reached: %t)\n", sol.Attempts, sol.Satisfied)
	}

	if len(sol.Terms) > 0 {
		ew.printf("\nBreakdown:\n")
		for _, k := range sortedKeys(sol.Terms) {
			ew.printf("  %-24s %.1f\n", k, sol.Terms[k])
		}
	}
	if len(sol.CallTimes) > 0 {
		ew.printf("\nCall times (min after start):\n")
		for _, k := range sortedKeys(sol.CallTimes) {
			ew.printf("  %-24s %d\n", k, sol.CallTimes[k])
		}
	}
	for _, warn := range sol.Warnings {
		ew.printf("\nWarning: %s\n", warn)
	}
	if ew.err != nil {
		return ew.err
	}

	r := sol.Report
	if r.Empty() {
		return nil
	}
	ew.printf("\n")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\n", strings.Join(r.Header(), "\t"))
	for _, row := range r.Rows {
		marks := make([]string, len(row.Marks))
		for i, m := range row.Marks {
			if m == "" {
				m = "."
			}
			marks[i] = m
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", row.Actor, strings.Join(marks, "\t"), row.WaitMinutes, row.TotalMinutes)
	}
	fmt.Fprintf(tw, "duration\t%s\t\t%d\n", joinInts(r.Durations, "\t"), r.TotalMinutes)
	if err := tw.Flush(); err != nil {
		return err
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func joinInts(xs []int, sep string) string {
	s := make([]string, len(xs))
	for i, x := range xs {
		s[i] = strconv.Itoa(x)
	}
	return strings.Join(s, sep)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
