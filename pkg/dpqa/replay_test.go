package dpqa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSequence(t *testing.T, qubits int, stages []Stage) *Sequence {
	t.Helper()
	seq, err := NewSequence(qubits, stages)
	require.NoError(t, err)
	return seq
}

func TestVerifyAcceptsLegalAssignment(t *testing.T) {
	grid, err := NewGrid(2, 2)
	require.NoError(t, err)
	seq := mustSequence(t, 2, []Stage{{Gates: []Gate{{A: 0, B: 1}}}})
	asg := &Assignment{
		Stages: [][]Placement{
			{{X: 0, Y: 0, Kind: SLM}, {X: 0, Y: 0, Kind: AOD}},
		},
		GateStage: []int{0},
	}
	assert.NoError(t, Verify(grid, seq, asg))
}

func TestVerifyRejections(t *testing.T) {
	grid, err := NewGrid(2, 2)
	require.NoError(t, err)
	gateSeq := mustSequence(t, 2, []Stage{{Gates: []Gate{{A: 0, B: 1}}}})
	freeSeq := mustSequence(t, 2, nil)

	cases := []struct {
		name string
		seq  *Sequence
		asg  *Assignment
	}{
		{
			"gate pair not colocated", gateSeq,
			&Assignment{
				Stages:    [][]Placement{{{X: 0, Y: 0, Kind: SLM}, {X: 1, Y: 0, Kind: AOD}}},
				GateStage: []int{0},
			},
		},
		{
			"gate pair in same trap kind", gateSeq,
			&Assignment{
				Stages:    [][]Placement{{{X: 0, Y: 0, Kind: AOD}, {X: 0, Y: 0, Kind: AOD}}},
				GateStage: []int{0},
			},
		},
		{
			"two qubits in one trap", freeSeq,
			&Assignment{
				Stages: [][]Placement{{{X: 1, Y: 1, Kind: SLM}, {X: 1, Y: 1, Kind: SLM}}},
			},
		},
		{
			"off-grid placement", freeSeq,
			&Assignment{
				Stages: [][]Placement{{{X: 2, Y: 0, Kind: SLM}, {X: 0, Y: 0, Kind: AOD}}},
			},
		},
		{
			"fixed qubit moved", freeSeq,
			&Assignment{
				Stages: [][]Placement{
					{{X: 0, Y: 0, Kind: SLM}, {X: 1, Y: 1, Kind: AOD}},
					{{X: 1, Y: 0, Kind: SLM}, {X: 1, Y: 1, Kind: AOD}},
				},
			},
		},
		{
			"movable qubits crossed", freeSeq,
			&Assignment{
				Stages: [][]Placement{
					{{X: 0, Y: 0, Kind: AOD}, {X: 1, Y: 0, Kind: AOD}},
					{{X: 1, Y: 0, Kind: AOD}, {X: 0, Y: 0, Kind: AOD}},
				},
			},
		},
		{
			"rigid group split", freeSeq,
			&Assignment{
				Stages: [][]Placement{
					{{X: 0, Y: 0, Kind: AOD}, {X: 0, Y: 1, Kind: AOD}},
					{{X: 0, Y: 0, Kind: AOD}, {X: 1, Y: 1, Kind: AOD}},
				},
			},
		},
		{
			"lift under a movable qubit", freeSeq,
			&Assignment{
				Stages: [][]Placement{
					{{X: 0, Y: 0, Kind: SLM}, {X: 0, Y: 0, Kind: AOD}},
					{{X: 0, Y: 0, Kind: AOD}, {X: 0, Y: 0, Kind: SLM}},
				},
			},
		},
		{
			"gate stage not increasing",
			mustSequence(t, 2, []Stage{
				{Gates: []Gate{{A: 0, B: 1}}},
				{Gates: []Gate{{A: 0, B: 1}}},
			}),
			&Assignment{
				Stages: [][]Placement{
					{{X: 0, Y: 0, Kind: SLM}, {X: 0, Y: 0, Kind: AOD}},
					{{X: 0, Y: 0, Kind: SLM}, {X: 0, Y: 0, Kind: AOD}},
				},
				GateStage: []int{0, 0},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, Verify(grid, tc.seq, tc.asg))
		})
	}
}

func TestReplayHappyPath(t *testing.T) {
	grid, err := NewGrid(2, 2)
	require.NoError(t, err)
	instrs := []Instruction{
		Initialize{Qubit: 0, X: 0, Y: 0, Kind: SLM},
		Initialize{Qubit: 1, X: 1, Y: 0, Kind: AOD},
		Move{Qubits: []int{1}, Axis: AxisX, From: 1, To: 0},
		Execute{Gates: []Gate{{A: 0, B: 1, Kind: "cz"}}},
		Move{Qubits: []int{1}, Axis: AxisX, From: 0, To: 1},
		Transfer{Qubit: 1, To: SLM},
	}
	trace, err := Replay(grid, 2, instrs)
	require.NoError(t, err)
	require.Len(t, trace.Executes, 1)
	assert.Equal(t, []Placement{
		{X: 0, Y: 0, Kind: SLM},
		{X: 0, Y: 0, Kind: AOD},
	}, trace.Executes[0])
	assert.Equal(t, Placement{X: 1, Y: 0, Kind: SLM}, trace.Final[1])
}

func TestReplayRejections(t *testing.T) {
	grid, err := NewGrid(2, 2)
	require.NoError(t, err)
	initBoth := []Instruction{
		Initialize{Qubit: 0, X: 0, Y: 0, Kind: SLM},
		Initialize{Qubit: 1, X: 1, Y: 0, Kind: AOD},
	}

	cases := []struct {
		name   string
		instrs []Instruction
	}{
		{"uninitialized qubit", []Instruction{
			Initialize{Qubit: 0, X: 0, Y: 0, Kind: SLM},
		}},
		{"double initialize", append(initBoth[:2:2],
			Initialize{Qubit: 0, X: 1, Y: 1, Kind: AOD},
		)},
		{"initialize off grid", []Instruction{
			Initialize{Qubit: 0, X: 5, Y: 0, Kind: SLM},
			Initialize{Qubit: 1, X: 1, Y: 0, Kind: AOD},
		}},
		{"move from wrong coordinate", append(initBoth[:2:2],
			Move{Qubits: []int{1}, Axis: AxisX, From: 0, To: 1},
		)},
		{"move a fixed qubit", append(initBoth[:2:2],
			Move{Qubits: []int{0}, Axis: AxisX, From: 0, To: 1},
		)},
		{"move off grid", append(initBoth[:2:2],
			Move{Qubits: []int{1}, Axis: AxisY, From: 0, To: 3},
		)},
		{"transfer to current kind", append(initBoth[:2:2],
			Transfer{Qubit: 1, To: AOD},
		)},
		{"transfer into occupied trap", append(initBoth[:2:2],
			Move{Qubits: []int{1}, Axis: AxisX, From: 1, To: 0},
			Transfer{Qubit: 0, To: AOD},
		)},
		{"execute without colocation", append(initBoth[:2:2],
			Execute{Gates: []Gate{{A: 0, B: 1}}},
		)},
		{"execute with matching kinds", append(initBoth[:2:2],
			Transfer{Qubit: 0, To: AOD},
			Move{Qubits: []int{1}, Axis: AxisX, From: 1, To: 0},
			Execute{Gates: []Gate{{A: 0, B: 1}}},
		)},
		{"capacity violation", append(initBoth[:2:2],
			Transfer{Qubit: 0, To: AOD},
			Move{Qubits: []int{0}, Axis: AxisX, From: 0, To: 1},
		)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Replay(grid, 2, tc.instrs)
			assert.Error(t, err)
		})
	}
}
