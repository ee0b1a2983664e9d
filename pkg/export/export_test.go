package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rehearsal/core/model"
	"github.com/kilianp07/rehearsal/core/report"
	"github.com/kilianp07/rehearsal/core/store"
)

func solution(t *testing.T) store.Solution {
	t.Helper()
	att, err := model.NewAttendance([][]float64{{1, 0}, {1, 1}, {0, 1}}, []int{30, 20, 40}, []string{"anna", "bruno"})
	require.NoError(t, err)
	state := model.State{0, 1, 2}
	return store.Solution{
		ID:         "run-1",
		Order:      state.OneBased(),
		Energy:     150,
		Terms:      map[string]float64{"Wait Time (min)": 0, "Call Penalty": 100},
		CallTimes:  map[string]int{"anna": 0, "bruno": 30},
		CallCounts: []int{1, 1, 0},
		Warnings:   []string{"must-include scene 4 is missing from the schedule"},
		Attempts:   1,
		Report:     report.Build(att, state, nil),
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, "csv": FormatCSV, "yml": FormatYAML}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, solution(t)))
	var got store.Solution
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []int{1, 2, 3}, got.Order)
	assert.Equal(t, 30, got.CallTimes["bruno"])
	assert.Len(t, got.Report.Rows, 2)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, solution(t)))
	assert.Contains(t, buf.String(), "call_times:")
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["id"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, solution(t)))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"actor", "1", "2", "3", "Wait (min)", "Total (min)"}, recs[0])
	assert.Equal(t, []string{"anna", "X", "X", "", "0", "50"}, recs[1])
	assert.Equal(t, []string{"bruno", "", "X", "X", "0", "60"}, recs[2])
	assert.Equal(t, []string{"duration (min)", "30", "20", "40", "", "90"}, recs[3])
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, solution(t)))
	out := buf.String()
	for _, want := range []string{
		"Scenes: 1 2 3",
		"Energy (lower is better): 150.0",
		"Call Penalty",
		"bruno",
		"Warning: must-include scene 4",
		"Wait (min)",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "anna"), strings.Index(out, "bruno"))
}

func TestWriteTextEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, store.Solution{ID: "x", Energy: 999999}))
	assert.NotContains(t, buf.String(), "Wait (min)")
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), store.Solution{}))
}
