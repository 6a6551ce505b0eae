package dpqa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeMovesBetweenGates(t *testing.T) {
	grid, err := NewGrid(2, 2)
	require.NoError(t, err)
	seq := mustSequence(t, 3, []Stage{
		{Gates: []Gate{{A: 0, B: 1, Kind: "cz"}}},
		{Gates: []Gate{{A: 1, B: 2, Kind: "cz"}}},
	})
	asg := &Assignment{
		Stages: [][]Placement{
			{{X: 0, Y: 0, Kind: SLM}, {X: 0, Y: 0, Kind: AOD}, {X: 1, Y: 1, Kind: SLM}},
			{{X: 0, Y: 0, Kind: SLM}, {X: 1, Y: 1, Kind: AOD}, {X: 1, Y: 1, Kind: SLM}},
		},
		GateStage: []int{0, 1},
	}
	require.NoError(t, Verify(grid, seq, asg))

	instrs := Synthesize(seq, asg)
	assert.Equal(t, []Instruction{
		Initialize{Qubit: 0, X: 0, Y: 0, Kind: SLM},
		Initialize{Qubit: 1, X: 0, Y: 0, Kind: AOD},
		Initialize{Qubit: 2, X: 1, Y: 1, Kind: SLM},
		Execute{Gates: []Gate{{A: 0, B: 1, Kind: "cz"}}},
		Move{Qubits: []int{1}, Axis: AxisX, From: 0, To: 1},
		Move{Qubits: []int{1}, Axis: AxisY, From: 0, To: 1},
		Execute{Gates: []Gate{{A: 1, B: 2, Kind: "cz"}}},
	}, instrs)

	trace, err := Replay(grid, seq.NumQubits(), instrs)
	require.NoError(t, err)
	require.Len(t, trace.Executes, 2)
	assert.Equal(t, asg.Stages[0], trace.Executes[0])
	assert.Equal(t, asg.Stages[1], trace.Executes[1])
	assert.Equal(t, asg.Stages[1], trace.Final)
}

func TestSynthesizeTransferOrdering(t *testing.T) {
	// A qubit dropping to SLM moves before its transfer; a qubit lifting
	// to AOD transfers before any move. Both directions in one boundary.
	grid, err := NewGrid(1, 2)
	require.NoError(t, err)
	seq := mustSequence(t, 2, nil)
	asg := &Assignment{
		Stages: [][]Placement{
			{{X: 0, Y: 0, Kind: AOD}, {X: 1, Y: 0, Kind: SLM}},
			{{X: 1, Y: 0, Kind: SLM}, {X: 1, Y: 0, Kind: AOD}},
		},
	}
	require.NoError(t, Verify(grid, seq, asg))

	instrs := Synthesize(seq, asg)
	assert.Equal(t, []Instruction{
		Initialize{Qubit: 0, X: 0, Y: 0, Kind: AOD},
		Initialize{Qubit: 1, X: 1, Y: 0, Kind: SLM},
		Transfer{Qubit: 1, To: AOD},
		Move{Qubits: []int{0}, Axis: AxisX, From: 0, To: 1},
		Transfer{Qubit: 0, To: SLM},
	}, instrs)

	trace, err := Replay(grid, seq.NumQubits(), instrs)
	require.NoError(t, err)
	assert.Empty(t, trace.Executes)
	assert.Equal(t, asg.Stages[1], trace.Final)
}

func TestSynthesizeGroupsMovesBySourceAndTarget(t *testing.T) {
	grid, err := NewGrid(2, 3)
	require.NoError(t, err)
	seq := mustSequence(t, 3, nil)
	asg := &Assignment{
		Stages: [][]Placement{
			{{X: 0, Y: 0, Kind: AOD}, {X: 0, Y: 1, Kind: AOD}, {X: 1, Y: 0, Kind: AOD}},
			{{X: 1, Y: 0, Kind: AOD}, {X: 1, Y: 1, Kind: AOD}, {X: 2, Y: 0, Kind: AOD}},
		},
	}
	require.NoError(t, Verify(grid, seq, asg))

	instrs := Synthesize(seq, asg)
	assert.Equal(t, []Instruction{
		Initialize{Qubit: 0, X: 0, Y: 0, Kind: AOD},
		Initialize{Qubit: 1, X: 0, Y: 1, Kind: AOD},
		Initialize{Qubit: 2, X: 1, Y: 0, Kind: AOD},
		Move{Qubits: []int{0, 1}, Axis: AxisX, From: 0, To: 1},
		Move{Qubits: []int{2}, Axis: AxisX, From: 1, To: 2},
	}, instrs)

	trace, err := Replay(grid, seq.NumQubits(), instrs)
	require.NoError(t, err)
	assert.Equal(t, asg.Stages[1], trace.Final)
}
