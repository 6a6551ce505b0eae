package dpqa

import "sort"

// Synthesize lowers a solved assignment into the instruction stream
// that realizes it. The stream is deterministic: qubits in increasing
// id, move groups in increasing source coordinate.
//
// Per stage boundary the order is: SLM→AOD transfers, column moves, row
// moves, AOD→SLM transfers. Lifting before moving makes newly movable
// qubits eligible for the boundary's moves; dropping after moving lets
// a qubit reach its fixed-trap site while still movable.
func Synthesize(seq *Sequence, asg *Assignment) []Instruction {
	var out []Instruction

	for q, p := range asg.Stages[0] {
		out = append(out, Initialize{Qubit: q, X: p.X, Y: p.Y, Kind: p.Kind})
	}

	// execAt[s] is the input stage whose gates run at solver stage s.
	execAt := make(map[int]int, len(asg.GateStage))
	for k, s := range asg.GateStage {
		execAt[s] = k
	}

	for s := 0; s < asg.NumStages(); s++ {
		if k, ok := execAt[s]; ok && len(seq.StageGates(k)) > 0 {
			out = append(out, Execute{Gates: append([]Gate(nil), seq.StageGates(k)...)})
		}
		if s+1 < asg.NumStages() {
			out = append(out, boundary(asg.Stages[s], asg.Stages[s+1])...)
		}
	}
	return out
}

// boundary emits the transfers and moves taking every qubit from its
// cur placement to its next placement.
func boundary(cur, next []Placement) []Instruction {
	var out []Instruction

	for q := range cur {
		if cur[q].Kind == SLM && next[q].Kind == AOD {
			out = append(out, Transfer{Qubit: q, To: AOD})
		}
	}

	movable := func(q int) bool {
		return cur[q].Kind == AOD || next[q].Kind == AOD
	}
	out = append(out, axisMoves(cur, next, AxisX, movable)...)
	out = append(out, axisMoves(cur, next, AxisY, movable)...)

	for q := range cur {
		if cur[q].Kind == AOD && next[q].Kind == SLM {
			out = append(out, Transfer{Qubit: q, To: SLM})
		}
	}
	return out
}

// axisMoves groups the boundary's movable qubits whose coordinate on
// the axis changes by (source, target) coordinate and emits one Move
// per group, sources ascending.
func axisMoves(cur, next []Placement, axis Axis, movable func(int) bool) []Instruction {
	coord := func(p Placement) int {
		if axis == AxisX {
			return p.X
		}
		return p.Y
	}

	type key struct{ from, to int }
	groups := make(map[key][]int)
	for q := range cur {
		if !movable(q) {
			continue
		}
		from, to := coord(cur[q]), coord(next[q])
		if from != to {
			k := key{from, to}
			groups[k] = append(groups[k], q)
		}
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})

	out := make([]Instruction, 0, len(keys))
	for _, k := range keys {
		qs := groups[k]
		sort.Ints(qs)
		out = append(out, Move{Qubits: qs, Axis: axis, From: k.from, To: k.to})
	}
	return out
}
