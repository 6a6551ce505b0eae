// Package dpqa compiles quantum circuits onto a dynamically
// field-programmable qubit array: a 2D grid of trap sites where
// two-qubit gates are realized by colocating both qubits at one site
// and movement is realized by translating rigid rows or columns of
// movable traps.
//
// The package exposes the scheduling/placement core: given a circuit
// already partitioned into qubit-disjoint stages, it computes a legal
// placement for every qubit at every stage and a legal sequence of
// inter-stage moves, then synthesizes the init/move/execute instruction
// stream that realizes them. The combinatorial search is delegated to
// the finite-domain engine in internal/fd.
package dpqa

import "github.com/pkg/errors"

// TrapKind distinguishes the two trap types of the hardware. Each grid
// site can hold at most one qubit of each kind at a time.
type TrapKind uint8

const (
	// SLM is a fixed trap anchored to its site; it cannot move.
	SLM TrapKind = iota
	// AOD is a movable trap that translates along grid rows/columns as
	// part of a rigid, order-preserving group.
	AOD
)

// String returns the hardware name of the trap kind.
func (k TrapKind) String() string {
	if k == AOD {
		return "AOD"
	}
	return "SLM"
}

// Grid describes the static trap lattice. Coordinates are zero-based:
// x in [0, Cols), y in [0, Rows). Every site holds at most one AOD and
// one SLM qubit simultaneously.
type Grid struct {
	Rows int
	Cols int
}

// NewGrid validates the lattice dimensions.
func NewGrid(rows, cols int) (Grid, error) {
	if rows <= 0 || cols <= 0 {
		return Grid{}, errors.Wrapf(ErrPrecondition, "grid dimensions must be positive, got %dx%d", rows, cols)
	}
	return Grid{Rows: rows, Cols: cols}, nil
}

// Sites returns the number of lattice sites.
func (g Grid) Sites() int { return g.Rows * g.Cols }

// Contains reports whether (x, y) lies on the lattice.
func (g Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.Cols && y >= 0 && y < g.Rows
}
