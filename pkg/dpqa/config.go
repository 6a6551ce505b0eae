package dpqa

import (
	"os"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// fileConfig is the YAML schema of a compiler configuration file.
type fileConfig struct {
	Grid struct {
		Rows int `yaml:"rows"`
		Cols int `yaml:"cols"`
	} `yaml:"grid"`
	MaxExtraStages int    `yaml:"max_extra_stages"`
	TimeBudget     string `yaml:"time_budget"`
	Objective      string `yaml:"objective"`
}

// LoadConfig reads a CompilerConfig from a YAML file. The Logger field
// is left nil; callers attach their own.
func LoadConfig(path string) (CompilerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CompilerConfig{}, errors.Wrapf(err, "reading config %s", path)
	}
	var fc fileConfig
	if err := yaml.UnmarshalStrict(raw, &fc); err != nil {
		return CompilerConfig{}, errors.Wrapf(ErrPrecondition, "parsing config %s: %v", path, err)
	}

	cfg := CompilerConfig{
		Rows:           fc.Grid.Rows,
		Cols:           fc.Grid.Cols,
		MaxExtraStages: fc.MaxExtraStages,
	}
	if fc.TimeBudget != "" {
		d, err := time.ParseDuration(fc.TimeBudget)
		if err != nil {
			return CompilerConfig{}, errors.Wrapf(ErrPrecondition, "parsing time_budget %q: %v", fc.TimeBudget, err)
		}
		cfg.TimeBudget = d
	}
	if fc.Objective != "" {
		obj, err := ParseObjective(fc.Objective)
		if err != nil {
			return CompilerConfig{}, err
		}
		cfg.Objective = obj
	}
	return cfg, nil
}

// ParseObjective maps an objective name to its enum value.
func ParseObjective(name string) (Objective, error) {
	switch name {
	case "moves":
		return ObjectiveMoves, nil
	case "transfers":
		return ObjectiveTransfers, nil
	case "none":
		return ObjectiveNone, nil
	}
	return 0, errors.Wrapf(ErrPrecondition, "unknown objective %q", name)
}

// fileCircuit is the YAML schema of a circuit file: a qubit count and
// the ordered interaction stages.
type fileCircuit struct {
	Qubits int `yaml:"qubits"`
	Stages []struct {
		Gates []struct {
			A    int    `yaml:"a"`
			B    int    `yaml:"b"`
			Kind string `yaml:"kind"`
		} `yaml:"gates"`
	} `yaml:"stages"`
}

// LoadSequence reads a stage sequence from a YAML circuit file and
// validates it through NewSequence.
func LoadSequence(path string) (*Sequence, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading circuit %s", path)
	}
	var fc fileCircuit
	if err := yaml.UnmarshalStrict(raw, &fc); err != nil {
		return nil, errors.Wrapf(ErrPrecondition, "parsing circuit %s: %v", path, err)
	}

	stages := make([]Stage, len(fc.Stages))
	for i, st := range fc.Stages {
		for _, g := range st.Gates {
			stages[i].Gates = append(stages[i].Gates, Gate{A: g.A, B: g.B, Kind: g.Kind})
		}
	}
	return NewSequence(fc.Qubits, stages)
}
