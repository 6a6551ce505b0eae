package dpqa

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/atomarray/dpqa/internal/fd"
)

// model is one constraint encoding of a sequence on a grid with a fixed
// solver stage count. It owns the store, the variable layout and the
// optional objective variable, and knows how to turn a raw solution
// vector back into an Assignment.
type model struct {
	store  *fd.Store
	grid   Grid
	seq    *Sequence
	stages int

	// qvars[s][q] holds qubit q's variables at solver stage s.
	qvars [][]qubitStage
	// tvars[k] is the solver stage executing input stage k.
	tvars []*fd.Var

	obj *fd.Var // nil unless an objective is modeled
}

// buildModel lays out variables and posts every structural constraint,
// plus the objective channeling when requested. Variable creation order
// fixes the deterministic tie-break of the search: stage-major, then
// qubit, then x, y, kind.
func buildModel(grid Grid, seq *Sequence, stages int, objective Objective) (*model, error) {
	if stages < seq.NumStages() {
		return nil, errors.Wrapf(ErrInternalSolver,
			"%d solver stages cannot host %d input stages", stages, seq.NumStages())
	}

	m := &model{
		store:  fd.NewStore(),
		grid:   grid,
		seq:    seq,
		stages: stages,
	}
	nq := seq.NumQubits()

	m.qvars = make([][]qubitStage, stages)
	for s := 0; s < stages; s++ {
		m.qvars[s] = make([]qubitStage, nq)
		for q := 0; q < nq; q++ {
			m.qvars[s][q] = qubitStage{
				x: m.store.NewVar(fd.FullDomain(grid.Cols), fmt.Sprintf("x[%d][q%d]", s, q)),
				y: m.store.NewVar(fd.FullDomain(grid.Rows), fmt.Sprintf("y[%d][q%d]", s, q)),
				k: m.store.NewVar(fd.FullDomain(2), fmt.Sprintf("k[%d][q%d]", s, q)),
			}
		}
	}

	m.tvars = make([]*fd.Var, seq.NumStages())
	for k := range m.tvars {
		m.tvars[k] = m.store.NewVar(fd.FullDomain(stages), fmt.Sprintf("t[%d]", k))
	}
	for k := 0; k+1 < len(m.tvars); k++ {
		less, err := fd.NewLess(m.tvars[k], m.tvars[k+1])
		if err != nil {
			return nil, errors.Wrap(ErrInternalSolver, err.Error())
		}
		m.store.AddConstraint(less)
	}

	for k := 0; k < seq.NumStages(); k++ {
		for _, g := range seq.StageGates(k) {
			a, b := g.Qubits()
			col := &gateColocation{t: m.tvars[k], gate: g}
			for s := 0; s < stages; s++ {
				col.a = append(col.a, m.qvars[s][a])
				col.b = append(col.b, m.qvars[s][b])
			}
			m.store.AddConstraint(col)
		}
	}

	for s := 0; s < stages; s++ {
		m.store.AddConstraint(&siteCapacity{
			stage: s, rows: grid.Rows, cols: grid.Cols, qubits: m.qvars[s],
		})
	}

	for s := 0; s+1 < stages; s++ {
		for q := 0; q < nq; q++ {
			m.store.AddConstraint(&slmAnchor{cur: m.qvars[s][q], next: m.qvars[s+1][q]})
		}
		for i := 0; i < nq; i++ {
			for j := i + 1; j < nq; j++ {
				m.store.AddConstraint(&keptOrder{
					iCur: m.qvars[s][i], iNext: m.qvars[s+1][i],
					jCur: m.qvars[s][j], jNext: m.qvars[s+1][j],
				})
				m.store.AddConstraint(&transferClearance{
					lift: m.qvars[s][i], liftNext: m.qvars[s+1][i].k, block: m.qvars[s][j],
				})
				m.store.AddConstraint(&transferClearance{
					lift: m.qvars[s][j], liftNext: m.qvars[s+1][j].k, block: m.qvars[s][i],
				})
			}
		}
	}

	if stages > 1 {
		if err := m.postObjective(objective); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// postObjective creates the derived indicator variables and the
// objective total for the chosen objective.
func (m *model) postObjective(objective Objective) error {
	nq := m.seq.NumQubits()
	var indicators []*fd.Var

	switch objective {
	case ObjectiveNone:
		return nil

	case ObjectiveMoves:
		// One indicator per boundary, axis and source-to-target
		// coordinate pair: a column move instruction exists exactly
		// when some qubit crosses from that x to the other, and
		// likewise for rows and y. Anchored qubits never change
		// coordinates, so matching qubits are exactly the ones the
		// boundary's move instructions carry.
		for s := 0; s+1 < m.stages; s++ {
			for from := 0; from < m.grid.Cols; from++ {
				for to := 0; to < m.grid.Cols; to++ {
					if to == from {
						continue
					}
					ind := m.store.NewDerivedVar(fd.FullDomain(2),
						fmt.Sprintf("mv[%d][x=%d>%d]", s, from, to))
					pm := &pairMove{ind: ind, from: from, to: to}
					for q := 0; q < nq; q++ {
						pm.pCur = append(pm.pCur, m.qvars[s][q].x)
						pm.pNext = append(pm.pNext, m.qvars[s+1][q].x)
					}
					m.store.AddConstraint(pm)
					indicators = append(indicators, ind)
				}
			}
			for from := 0; from < m.grid.Rows; from++ {
				for to := 0; to < m.grid.Rows; to++ {
					if to == from {
						continue
					}
					ind := m.store.NewDerivedVar(fd.FullDomain(2),
						fmt.Sprintf("mv[%d][y=%d>%d]", s, from, to))
					pm := &pairMove{ind: ind, from: from, to: to}
					for q := 0; q < nq; q++ {
						pm.pCur = append(pm.pCur, m.qvars[s][q].y)
						pm.pNext = append(pm.pNext, m.qvars[s+1][q].y)
					}
					m.store.AddConstraint(pm)
					indicators = append(indicators, ind)
				}
			}
		}

	case ObjectiveTransfers:
		for s := 0; s+1 < m.stages; s++ {
			for q := 0; q < nq; q++ {
				ind := m.store.NewDerivedVar(fd.FullDomain(2), fmt.Sprintf("xfer[%d][q%d]", s, q))
				m.store.AddConstraint(&kindChange{
					ind: ind, cur: m.qvars[s][q].k, next: m.qvars[s+1][q].k,
					qubit: q, bnd: s,
				})
				indicators = append(indicators, ind)
			}
		}

	default:
		return errors.Wrapf(ErrInternalSolver, "unknown objective %d", objective)
	}

	if len(indicators) == 0 {
		return nil
	}
	m.obj = m.store.NewDerivedVar(fd.FullDomain(len(indicators)+1), "objective")
	sum, err := fd.NewBoolSum(indicators, m.obj)
	if err != nil {
		return errors.Wrap(ErrInternalSolver, err.Error())
	}
	m.store.AddConstraint(sum)
	return nil
}

// assignment converts a raw solution vector into the public Assignment.
func (m *model) assignment(sol []int) *Assignment {
	a := &Assignment{
		Stages:    make([][]Placement, m.stages),
		GateStage: make([]int, m.seq.NumStages()),
	}
	for s := 0; s < m.stages; s++ {
		a.Stages[s] = make([]Placement, m.seq.NumQubits())
		for q := range a.Stages[s] {
			v := m.qvars[s][q]
			a.Stages[s][q] = Placement{
				X:    sol[v.x.ID()],
				Y:    sol[v.y.ID()],
				Kind: TrapKind(sol[v.k.ID()]),
			}
		}
	}
	for k, t := range m.tvars {
		a.GateStage[k] = sol[t.ID()]
	}
	return a
}
