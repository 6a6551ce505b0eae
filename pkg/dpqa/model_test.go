package dpqa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildModelRejectsTooFewStages(t *testing.T) {
	grid, err := NewGrid(2, 2)
	require.NoError(t, err)
	seq := mustSequence(t, 2, []Stage{
		{Gates: []Gate{{A: 0, B: 1}}},
		{Gates: []Gate{{A: 0, B: 1}}},
	})
	_, err = buildModel(grid, seq, 1, ObjectiveNone)
	assert.ErrorIs(t, err, ErrInternalSolver)
}

func TestModelColocationOnSingleSite(t *testing.T) {
	grid, err := NewGrid(1, 1)
	require.NoError(t, err)
	seq := mustSequence(t, 2, []Stage{{Gates: []Gate{{A: 0, B: 1}}}})
	m, err := buildModel(grid, seq, 1, ObjectiveNone)
	require.NoError(t, err)

	sols, err := m.store.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sols, 2, "only the two kind assignments of the pair")
	for _, sol := range sols {
		asg := m.assignment(sol)
		p0, p1 := asg.Stages[0][0], asg.Stages[0][1]
		assert.Equal(t, p0.X, p1.X)
		assert.Equal(t, p0.Y, p1.Y)
		assert.NotEqual(t, p0.Kind, p1.Kind)
	}
}

func TestModelEverySolutionVerifies(t *testing.T) {
	// Exhaustive check of the encoding on a small instance: every raw
	// solution the engine emits passes the independent validator.
	grid, err := NewGrid(1, 2)
	require.NoError(t, err)
	seq := mustSequence(t, 2, []Stage{{Gates: []Gate{{A: 0, B: 1}}}})
	m, err := buildModel(grid, seq, 2, ObjectiveNone)
	require.NoError(t, err)

	sols, err := m.store.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, sols)
	for _, sol := range sols {
		require.NoError(t, Verify(grid, seq, m.assignment(sol)))
	}
}

func TestModelFixedQubitAnchored(t *testing.T) {
	grid, err := NewGrid(1, 2)
	require.NoError(t, err)
	seq := mustSequence(t, 1, nil)
	m, err := buildModel(grid, seq, 2, ObjectiveNone)
	require.NoError(t, err)

	sols, err := m.store.Solve(context.Background(), 0)
	require.NoError(t, err)
	// 4 placements per stage, minus the two where an SLM qubit changes
	// site across the boundary.
	assert.Len(t, sols, 14)
	for _, sol := range sols {
		asg := m.assignment(sol)
		p0, p1 := asg.Stages[0][0], asg.Stages[1][0]
		if p0.Kind == SLM && p1.Kind == SLM {
			assert.Equal(t, p0.X, p1.X)
		}
	}
}

func TestModelOrderPreservation(t *testing.T) {
	grid, err := NewGrid(1, 2)
	require.NoError(t, err)
	seq := mustSequence(t, 2, nil)
	m, err := buildModel(grid, seq, 2, ObjectiveNone)
	require.NoError(t, err)

	sols, err := m.store.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, sols)
	for _, sol := range sols {
		asg := m.assignment(sol)
		kept := true
		for _, s := range []int{0, 1} {
			for _, q := range []int{0, 1} {
				kept = kept && asg.Stages[s][q].Kind == AOD
			}
		}
		if !kept {
			continue
		}
		x00, x01 := asg.Stages[0][0].X, asg.Stages[0][1].X
		x10, x11 := asg.Stages[1][0].X, asg.Stages[1][1].X
		switch {
		case x00 < x01:
			assert.Less(t, x10, x11)
		case x00 > x01:
			assert.Greater(t, x10, x11)
		default:
			assert.Equal(t, x10, x11)
		}
	}
}

func TestModelMoveIndicatorsCountMoves(t *testing.T) {
	grid, err := NewGrid(1, 2)
	require.NoError(t, err)
	seq := mustSequence(t, 1, nil)
	m, err := buildModel(grid, seq, 2, ObjectiveMoves)
	require.NoError(t, err)
	require.NotNil(t, m.obj)

	sols, err := m.store.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, sols)
	for _, sol := range sols {
		asg := m.assignment(sol)
		p0, p1 := asg.Stages[0][0], asg.Stages[1][0]
		// Any coordinate change rides a move, whether the qubit is
		// movable throughout or changes trap kind at the boundary.
		want := 0
		if p0.X != p1.X {
			want = 1
		}
		assert.Equal(t, want, sol[m.obj.ID()], "placements %s -> %s", p0, p1)
	}
}

func TestModelForbidsInPlaceSwap(t *testing.T) {
	// One site, one gate pair interacting at both stages: the only
	// legal schedules keep each qubit in its trap. Swapping traps would
	// lift a fixed qubit into an occupied movable trap.
	grid, err := NewGrid(1, 1)
	require.NoError(t, err)
	seq := mustSequence(t, 2, []Stage{
		{Gates: []Gate{{A: 0, B: 1}}},
		{Gates: []Gate{{A: 0, B: 1}}},
	})
	m, err := buildModel(grid, seq, 2, ObjectiveNone)
	require.NoError(t, err)

	sols, err := m.store.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sols, 2)
	for _, sol := range sols {
		asg := m.assignment(sol)
		require.NoError(t, Verify(grid, seq, asg))
		for q := 0; q < 2; q++ {
			assert.Equal(t, asg.Stages[0][q].Kind, asg.Stages[1][q].Kind, "qubit %d", q)
		}
	}
}

func TestModelProvesOvercommittedGridInfeasible(t *testing.T) {
	// Three qubits on a single site exceed its two traps; counting
	// detects it without search.
	grid, err := NewGrid(1, 1)
	require.NoError(t, err)
	seq := mustSequence(t, 3, nil)
	m, err := buildModel(grid, seq, 1, ObjectiveNone)
	require.NoError(t, err)

	sols, err := m.store.Solve(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sols)
}

func TestModelTransferIndicatorsCountKindChanges(t *testing.T) {
	grid, err := NewGrid(1, 1)
	require.NoError(t, err)
	seq := mustSequence(t, 1, nil)
	m, err := buildModel(grid, seq, 2, ObjectiveTransfers)
	require.NoError(t, err)
	require.NotNil(t, m.obj)

	sols, err := m.store.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, sols)
	for _, sol := range sols {
		asg := m.assignment(sol)
		want := 0
		if asg.Stages[0][0].Kind != asg.Stages[1][0].Kind {
			want = 1
		}
		assert.Equal(t, want, sol[m.obj.ID()])
	}
}
