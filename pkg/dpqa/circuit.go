package dpqa

import (
	"fmt"

	"github.com/pkg/errors"
)

// Gate is a single two-qubit interaction. The pair is unordered for
// placement purposes; Kind is an opaque tag (e.g. "cz") carried through
// to the Execute instruction and irrelevant to movement legality.
type Gate struct {
	A    int
	B    int
	Kind string
}

// Qubits returns the gate's qubit pair with the smaller id first.
func (g Gate) Qubits() (int, int) {
	if g.A <= g.B {
		return g.A, g.B
	}
	return g.B, g.A
}

// String renders the gate for logs and test failures.
func (g Gate) String() string {
	kind := g.Kind
	if kind == "" {
		kind = "gate"
	}
	return fmt.Sprintf("%s(%d,%d)", kind, g.A, g.B)
}

// Stage is one step of the interaction schedule: a set of gates that may
// run concurrently because they touch pairwise disjoint qubits.
type Stage struct {
	Gates []Gate
}

// Sequence is the caller-provided, ordered list of interaction stages
// plus the total qubit count. The compiler consumes the partition; it
// never computes one. Sequences are immutable for the duration of a
// Compile call.
type Sequence struct {
	numQubits int
	stages    []Stage
}

// NewSequence validates and wraps a stage partition. It rejects, as
// precondition violations rather than solver infeasibility:
//   - non-positive qubit counts,
//   - qubit ids outside [0, numQubits),
//   - gates joining a qubit to itself,
//   - a qubit appearing in more than one gate of the same stage.
func NewSequence(numQubits int, stages []Stage) (*Sequence, error) {
	if numQubits <= 0 {
		return nil, errors.Wrapf(ErrPrecondition, "qubit count must be positive, got %d", numQubits)
	}
	seen := make([]int, numQubits)
	for i := range seen {
		seen[i] = -1
	}
	for si, st := range stages {
		for _, g := range st.Gates {
			if g.A < 0 || g.A >= numQubits || g.B < 0 || g.B >= numQubits {
				return nil, errors.Wrapf(ErrPrecondition, "stage %d: gate %s outside qubit range [0,%d)", si, g, numQubits)
			}
			if g.A == g.B {
				return nil, errors.Wrapf(ErrPrecondition, "stage %d: gate %s joins a qubit to itself", si, g)
			}
			for _, q := range []int{g.A, g.B} {
				if seen[q] == si {
					return nil, errors.Wrapf(ErrPrecondition, "stage %d: qubit %d appears in two gates", si, q)
				}
				seen[q] = si
			}
		}
	}
	cp := make([]Stage, len(stages))
	for i, st := range stages {
		cp[i].Gates = append([]Gate(nil), st.Gates...)
	}
	return &Sequence{numQubits: numQubits, stages: cp}, nil
}

// NumQubits returns the qubit count the sequence was built for.
func (s *Sequence) NumQubits() int { return s.numQubits }

// NumStages returns the number of interaction stages.
func (s *Sequence) NumStages() int { return len(s.stages) }

// StageGates returns the gates of stage k in input order. The returned
// slice must not be modified.
func (s *Sequence) StageGates(k int) []Gate { return s.stages[k].Gates }

// String summarizes the sequence for logs.
func (s *Sequence) String() string {
	gates := 0
	for _, st := range s.stages {
		gates += len(st.Gates)
	}
	return fmt.Sprintf("sequence{qubits: %d, stages: %d, gates: %d}", s.numQubits, len(s.stages), gates)
}
