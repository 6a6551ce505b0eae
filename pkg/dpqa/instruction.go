package dpqa

import (
	"fmt"
	"strings"
)

// Axis names the coordinate changed by a Move. A column of AOD traps
// shares an x coordinate and translates along AxisX; a row shares y and
// translates along AxisY.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// String returns the axis letter.
func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// Instruction is one step of the synthesized hardware program. The
// concrete types are Initialize, Transfer, Move and Execute.
type Instruction interface {
	fmt.Stringer
	isInstruction()
}

// Initialize places one qubit at its stage-0 site and trap kind. The
// synthesizer emits exactly one per qubit, in increasing qubit id.
type Initialize struct {
	Qubit int
	X     int
	Y     int
	Kind  TrapKind
}

func (Initialize) isInstruction() {}

func (in Initialize) String() string {
	return fmt.Sprintf("init q%d at (%d,%d) %s", in.Qubit, in.X, in.Y, in.Kind)
}

// Transfer hands a qubit between trap kinds at its current site.
type Transfer struct {
	Qubit int
	To    TrapKind
}

func (Transfer) isInstruction() {}

func (tr Transfer) String() string {
	return fmt.Sprintf("transfer q%d to %s", tr.Qubit, tr.To)
}

// Move translates one rigid AOD group. Every listed qubit sits at
// From on the given axis before the move and at To after it; relative
// order along the axis is untouched because the group moves as a whole.
type Move struct {
	Qubits []int
	Axis   Axis
	From   int
	To     int
}

func (Move) isInstruction() {}

func (m Move) String() string {
	ids := make([]string, len(m.Qubits))
	for i, q := range m.Qubits {
		ids[i] = fmt.Sprintf("q%d", q)
	}
	return fmt.Sprintf("move [%s] %s=%d->%d", strings.Join(ids, " "), m.Axis, m.From, m.To)
}

// Execute fires all gates of one stage; the listed pairs are colocated
// at that point in the program.
type Execute struct {
	Gates []Gate
}

func (Execute) isInstruction() {}

func (e Execute) String() string {
	parts := make([]string, len(e.Gates))
	for i, g := range e.Gates {
		parts[i] = g.String()
	}
	return fmt.Sprintf("execute [%s]", strings.Join(parts, " "))
}
