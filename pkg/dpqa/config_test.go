package dpqa

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "compiler.yaml", `
grid:
  rows: 3
  cols: 2
max_extra_stages: 4
time_budget: 45s
objective: transfers
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Rows)
	assert.Equal(t, 2, cfg.Cols)
	assert.Equal(t, 4, cfg.MaxExtraStages)
	assert.Equal(t, 45*time.Second, cfg.TimeBudget)
	assert.Equal(t, ObjectiveTransfers, cfg.Objective)
	assert.Nil(t, cfg.Logger)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeFile(t, "compiler.yaml", `
grid:
  rows: 2
  cols: 2
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.TimeBudget)
	assert.Equal(t, ObjectiveMoves, cfg.Objective)
}

func TestLoadConfigRejections(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad duration", "grid: {rows: 2, cols: 2}\ntime_budget: later\n"},
		{"bad objective", "grid: {rows: 2, cols: 2}\nobjective: fewest\n"},
		{"unknown key", "grid: {rows: 2, cols: 2}\nretries: 3\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "compiler.yaml", tc.content))
			assert.ErrorIs(t, err, ErrPrecondition)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSequence(t *testing.T) {
	path := writeFile(t, "circuit.yaml", `
qubits: 4
stages:
  - gates:
      - {a: 0, b: 1, kind: cz}
      - {a: 2, b: 3, kind: cz}
  - gates:
      - {a: 1, b: 2, kind: cz}
`)
	seq, err := LoadSequence(path)
	require.NoError(t, err)
	assert.Equal(t, 4, seq.NumQubits())
	assert.Equal(t, 2, seq.NumStages())
	assert.Equal(t, Gate{A: 2, B: 3, Kind: "cz"}, seq.StageGates(0)[1])
}

func TestLoadSequenceValidates(t *testing.T) {
	path := writeFile(t, "circuit.yaml", `
qubits: 2
stages:
  - gates:
      - {a: 0, b: 5, kind: cz}
`)
	_, err := LoadSequence(path)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestParseObjective(t *testing.T) {
	for name, want := range map[string]Objective{
		"moves": ObjectiveMoves, "transfers": ObjectiveTransfers, "none": ObjectiveNone,
	} {
		got, err := ParseObjective(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseObjective("stages")
	assert.ErrorIs(t, err, ErrPrecondition)
}
