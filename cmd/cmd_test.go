package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairsCSV = "time,a,b\n60,1,0\n60,1,0\n60,0,1\n60,0,1\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenes.csv")
	require.NoError(t, os.WriteFile(path, []byte(pairsCSV), 0o644))
	return path
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "--input", writeInput(t))
	require.NoError(t, err)
	assert.Contains(t, out, "4 scenes, 2 actors, 240 minutes")
	assert.Contains(t, out, "2 scenes")
}

func TestScheduleCommand(t *testing.T) {
	t.Setenv("REHEARSAL_STORE__BACKEND", "memory")
	out, err := run(t, "schedule", "--input", writeInput(t),
		"--min-hours", "2", "--max-hours", "2", "--seed", "4", "--format", "json")
	require.NoError(t, err)

	var sol struct {
		Order  []int   `json:"order"`
		Energy float64 `json:"energy"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sol))
	assert.Len(t, sol.Order, 2)
	assert.Equal(t, 50.0, sol.Energy)
}

func TestScheduleCommandRejectsFormat(t *testing.T) {
	_, err := run(t, "schedule", "--input", writeInput(t), "--format", "xml")
	assert.Error(t, err)
}
