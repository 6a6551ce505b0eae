package dpqa

import (
	"github.com/pkg/errors"
)

// Verify checks a solved assignment against every placement rule:
// on-grid coordinates, site capacity, gate colocation with opposite
// trap kinds, SLM anchoring, rigid order-preserving AOD transport and a
// strictly increasing gate-stage mapping. The compiler runs it on every
// solution before synthesis; tests run it directly.
func Verify(grid Grid, seq *Sequence, asg *Assignment) error {
	if asg == nil || asg.NumStages() == 0 {
		return errors.New("empty assignment")
	}
	nq := seq.NumQubits()
	for s, stage := range asg.Stages {
		if len(stage) != nq {
			return errors.Errorf("stage %d: %d placements for %d qubits", s, len(stage), nq)
		}
		for q, p := range stage {
			if !grid.Contains(p.X, p.Y) {
				return errors.Errorf("stage %d: qubit %d at (%d,%d) off the %dx%d grid", s, q, p.X, p.Y, grid.Rows, grid.Cols)
			}
		}
		if err := checkCapacity(stage); err != nil {
			return errors.Wrapf(err, "stage %d", s)
		}
	}

	if len(asg.GateStage) != seq.NumStages() {
		return errors.Errorf("%d gate stages mapped for %d input stages", len(asg.GateStage), seq.NumStages())
	}
	prev := -1
	for k, s := range asg.GateStage {
		if s <= prev || s >= asg.NumStages() {
			return errors.Errorf("input stage %d mapped to solver stage %d after %d", k, s, prev)
		}
		prev = s
		for _, g := range seq.StageGates(k) {
			a, b := g.Qubits()
			pa, pb := asg.Stages[s][a], asg.Stages[s][b]
			if pa.X != pb.X || pa.Y != pb.Y {
				return errors.Errorf("gate %s at stage %d: qubits at %s and %s not colocated", g, s, pa, pb)
			}
			if pa.Kind == pb.Kind {
				return errors.Errorf("gate %s at stage %d: both qubits in %s traps", g, s, pa.Kind)
			}
		}
	}

	for s := 0; s+1 < asg.NumStages(); s++ {
		if err := checkBoundary(asg.Stages[s], asg.Stages[s+1]); err != nil {
			return errors.Wrapf(err, "boundary %d->%d", s, s+1)
		}
	}
	return nil
}

// checkCapacity rejects two qubits on one site in the same trap kind.
func checkCapacity(stage []Placement) error {
	type site struct {
		x, y int
		k    TrapKind
	}
	seen := make(map[site]int, len(stage))
	for q, p := range stage {
		s := site{p.X, p.Y, p.Kind}
		if other, dup := seen[s]; dup {
			return errors.Errorf("qubits %d and %d both at %s", other, q, p)
		}
		seen[s] = q
	}
	return nil
}

// checkBoundary enforces the movement rules across one boundary: a
// qubit fixed on both sides stays put, a qubit lifted into the movable
// layer needs the movable place of its site free, and qubits movable
// on both sides translate without crossing or merging on either axis.
func checkBoundary(cur, next []Placement) error {
	for q := range cur {
		if cur[q].Kind == SLM && next[q].Kind == SLM {
			if cur[q].X != next[q].X || cur[q].Y != next[q].Y {
				return errors.Errorf("fixed qubit %d moved %s -> %s", q, cur[q], next[q])
			}
		}
		if cur[q].Kind == SLM && next[q].Kind == AOD {
			for r := range cur {
				if r != q && cur[r].Kind == AOD && cur[r].X == cur[q].X && cur[r].Y == cur[q].Y {
					return errors.Errorf("qubit %d lifted under qubit %d at %s", q, r, cur[r])
				}
			}
		}
	}
	for i := range cur {
		if cur[i].Kind != AOD || next[i].Kind != AOD {
			continue
		}
		for j := i + 1; j < len(cur); j++ {
			if cur[j].Kind != AOD || next[j].Kind != AOD {
				continue
			}
			if err := checkOrder(cur[i].X, cur[j].X, next[i].X, next[j].X); err != nil {
				return errors.Wrapf(err, "qubits %d and %d on x", i, j)
			}
			if err := checkOrder(cur[i].Y, cur[j].Y, next[i].Y, next[j].Y); err != nil {
				return errors.Wrapf(err, "qubits %d and %d on y", i, j)
			}
		}
	}
	return nil
}

func checkOrder(a0, b0, a1, b1 int) error {
	switch {
	case a0 < b0 && a1 >= b1:
		return errors.Errorf("order %d<%d not preserved (%d,%d)", a0, b0, a1, b1)
	case a0 > b0 && a1 <= b1:
		return errors.Errorf("order %d>%d not preserved (%d,%d)", a0, b0, a1, b1)
	case a0 == b0 && a1 != b1:
		return errors.Errorf("rigid group %d split (%d,%d)", a0, a1, b1)
	}
	return nil
}

// Trace is the observable outcome of replaying an instruction stream:
// the full placement vector at each Execute, in stream order, and after
// the final instruction.
type Trace struct {
	Executes [][]Placement
	Final    []Placement
}

// Replay simulates an instruction stream from an empty grid, enforcing
// each instruction's preconditions: one Initialize per qubit on a valid
// site, transfers that change trap kind into a free trap, moves whose qubits
// are movable and located at the source coordinate, and executes whose
// gate pairs are colocated in opposite kinds. Site capacity is checked
// at every Execute and at the end of the stream.
//
// Replaying a compiler's output against its assignment is the round
// trip the tests rely on: the trace must reproduce the solved
// placements at every executed stage and at the last stage.
func Replay(grid Grid, numQubits int, instrs []Instruction) (*Trace, error) {
	state := make([]Placement, numQubits)
	placed := make([]bool, numQubits)
	trace := &Trace{}

	for i, in := range instrs {
		switch in := in.(type) {
		case Initialize:
			if in.Qubit < 0 || in.Qubit >= numQubits {
				return nil, errors.Errorf("instruction %d: %s: unknown qubit", i, in)
			}
			if placed[in.Qubit] {
				return nil, errors.Errorf("instruction %d: %s: qubit already initialized", i, in)
			}
			if !grid.Contains(in.X, in.Y) {
				return nil, errors.Errorf("instruction %d: %s: off the grid", i, in)
			}
			placed[in.Qubit] = true
			state[in.Qubit] = Placement{X: in.X, Y: in.Y, Kind: in.Kind}

		case Transfer:
			if err := requirePlaced(placed, in.Qubit, i, in); err != nil {
				return nil, err
			}
			if state[in.Qubit].Kind == in.To {
				return nil, errors.Errorf("instruction %d: %s: qubit already in %s", i, in, in.To)
			}
			for q, p := range state {
				if q != in.Qubit && placed[q] && p.Kind == in.To &&
					p.X == state[in.Qubit].X && p.Y == state[in.Qubit].Y {
					return nil, errors.Errorf("instruction %d: %s: %s trap at (%d,%d) holds qubit %d",
						i, in, in.To, p.X, p.Y, q)
				}
			}
			state[in.Qubit].Kind = in.To

		case Move:
			for _, q := range in.Qubits {
				if err := requirePlaced(placed, q, i, in); err != nil {
					return nil, err
				}
				if state[q].Kind != AOD {
					return nil, errors.Errorf("instruction %d: %s: qubit %d is in a fixed trap", i, in, q)
				}
				at := state[q].X
				if in.Axis == AxisY {
					at = state[q].Y
				}
				if at != in.From {
					return nil, errors.Errorf("instruction %d: %s: qubit %d at %d, not %d", i, in, q, at, in.From)
				}
			}
			for _, q := range in.Qubits {
				if in.Axis == AxisX {
					state[q].X = in.To
				} else {
					state[q].Y = in.To
				}
				if !grid.Contains(state[q].X, state[q].Y) {
					return nil, errors.Errorf("instruction %d: %s: qubit %d moved off the grid", i, in, q)
				}
			}

		case Execute:
			for _, g := range in.Gates {
				a, b := g.Qubits()
				if err := requirePlaced(placed, a, i, in); err != nil {
					return nil, err
				}
				if err := requirePlaced(placed, b, i, in); err != nil {
					return nil, err
				}
				pa, pb := state[a], state[b]
				if pa.X != pb.X || pa.Y != pb.Y {
					return nil, errors.Errorf("instruction %d: gate %s: qubits at %s and %s", i, g, pa, pb)
				}
				if pa.Kind == pb.Kind {
					return nil, errors.Errorf("instruction %d: gate %s: both qubits in %s traps", i, g, pa.Kind)
				}
			}
			if err := checkCapacity(state); err != nil {
				return nil, errors.Wrapf(err, "instruction %d", i)
			}
			trace.Executes = append(trace.Executes, append([]Placement(nil), state...))

		default:
			return nil, errors.Errorf("instruction %d: unknown instruction %T", i, in)
		}
	}

	for q, ok := range placed {
		if !ok {
			return nil, errors.Errorf("qubit %d never initialized", q)
		}
	}
	if err := checkCapacity(state); err != nil {
		return nil, errors.Wrap(err, "final state")
	}
	trace.Final = append([]Placement(nil), state...)
	return trace, nil
}

func requirePlaced(placed []bool, q, i int, in Instruction) error {
	if q < 0 || q >= len(placed) || !placed[q] {
		return errors.Errorf("instruction %d: %s: qubit %d not initialized", i, in, q)
	}
	return nil
}
