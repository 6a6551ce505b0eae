package fd

import (
	"context"

	"github.com/pkg/errors"
)

// Solve runs backtracking search and returns up to limit solutions
// (all solutions when limit <= 0). A solution assigns one value per
// variable, indexed by Var.ID. An empty result with a nil error is a
// proof that no solution exists; context cancellation is reported via
// the returned error.
func (s *Store) Solve(ctx context.Context, limit int) ([][]int, error) {
	if err := s.fixpoint(); err != nil {
		if errors.Is(err, ErrInconsistent) {
			return nil, nil
		}
		return nil, err
	}

	var solutions [][]int
	err := s.search(ctx, func(sol []int) bool {
		solutions = append(solutions, sol)
		return limit > 0 && len(solutions) >= limit
	}, nil)
	if err != nil {
		return solutions, err
	}
	return solutions, nil
}

// Minimize runs branch-and-bound search minimizing the obj variable.
// It returns the optimal solution and objective value, or (nil, 0, nil)
// when the model is proven infeasible. If the context expires the best
// incumbent found so far is returned together with ctx.Err(), so a
// timeout is always distinguishable from a proof of infeasibility.
func (s *Store) Minimize(ctx context.Context, obj *Var) ([]int, int, error) {
	if err := s.fixpoint(); err != nil {
		if errors.Is(err, ErrInconsistent) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var best []int
	bestVal := 0
	have := false

	err := s.search(ctx, func(sol []int) bool {
		val := sol[obj.id]
		if !have || val < bestVal {
			best = sol
			bestVal = val
			have = true
		}
		return false // keep searching: optimality requires exhaustion
	}, func() *cutoff {
		if !have {
			return nil
		}
		return &cutoff{v: obj, below: bestVal}
	})
	if err != nil {
		if have {
			return best, bestVal, err
		}
		return nil, 0, err
	}
	if !have {
		return nil, 0, nil
	}
	return best, bestVal, nil
}

// cutoff tightens v to values strictly below a known incumbent.
type cutoff struct {
	v     *Var
	below int
}

type frame struct {
	varID  int
	values []int
	next   int
	mark   int
}

// search explores assignments of the decision variables depth first.
// onSolution receives each leaf solution and returns true to stop the
// search. bound, when non-nil, supplies the current incumbent cutoff
// applied after every propagation step.
func (s *Store) search(ctx context.Context, onSolution func([]int) bool, bound func() *cutoff) error {
	// Root may already be fully bound by propagation.
	if s.decisionBound() {
		sol, err := s.solution()
		if err != nil {
			return err
		}
		onSolution(sol)
		return nil
	}

	varID, values := s.selectVar()
	if varID < 0 {
		return errors.Wrap(ErrUnresolved, "no branchable variable in incomplete state")
	}
	stack := []*frame{{varID: varID, values: values, mark: s.snapshot()}}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			s.undo(stack[0].mark)
			return ctx.Err()
		default:
		}

		f := stack[len(stack)-1]
		if f.next >= len(f.values) {
			s.undo(f.mark)
			stack = stack[:len(stack)-1]
			continue
		}

		s.undo(f.mark)
		value := f.values[f.next]
		f.next++

		ok, err := s.tryBind(f.varID, value, bound)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if s.decisionBound() {
			sol, err := s.solution()
			if err != nil {
				return err
			}
			if onSolution(sol) {
				s.undo(stack[0].mark)
				return nil
			}
			continue
		}

		nextID, nextValues := s.selectVar()
		if nextID < 0 {
			return errors.Wrap(ErrUnresolved, "no branchable variable in incomplete state")
		}
		stack = append(stack, &frame{varID: nextID, values: nextValues, mark: s.snapshot()})
	}
	return nil
}

// tryBind assigns value to the variable and propagates, applying the
// incumbent cutoff if one exists. Returns false when the branch is
// inconsistent; the caller's next undo discards its effects.
func (s *Store) tryBind(varID, value int, bound func() *cutoff) (bool, error) {
	step := func(err error) (bool, error) {
		if err == nil {
			return true, nil
		}
		if errors.Is(err, ErrInconsistent) {
			return false, nil
		}
		return false, err
	}

	v := s.vars[varID]
	if ok, err := step(s.Bind(v, value)); !ok {
		return ok, err
	}
	if ok, err := step(s.fixpoint()); !ok {
		return ok, err
	}
	if bound != nil {
		if c := bound(); c != nil {
			if ok, err := step(s.SetDom(c.v, s.Dom(c.v).RemoveAtOrAbove(c.below))); !ok {
				return ok, err
			}
			if ok, err := step(s.fixpoint()); !ok {
				return ok, err
			}
		}
	}
	return true, nil
}

// decisionBound reports whether every decision variable is singleton.
func (s *Store) decisionBound() bool {
	for i, d := range s.doms {
		if s.decision[i] && !d.Singleton() {
			return false
		}
	}
	return true
}

// solution extracts values for all variables. Derived variables must
// have been bound by propagation by the time the decision variables are.
func (s *Store) solution() ([]int, error) {
	sol := make([]int, len(s.doms))
	for i, d := range s.doms {
		if !d.Singleton() {
			return nil, errors.Wrapf(ErrUnresolved, "variable %s = %s", s.vars[i].name, d)
		}
		sol[i] = d.Value()
	}
	return sol, nil
}

// selectVar picks the unbound decision variable with the smallest domain
// (MRV), breaking ties by creation order for determinism. Returns -1
// when all decision variables are bound.
func (s *Store) selectVar() (int, []int) {
	best := -1
	bestCount := 0
	for i, d := range s.doms {
		if !s.decision[i] {
			continue
		}
		c := d.Count()
		if c <= 1 {
			continue
		}
		if best == -1 || c < bestCount {
			best = i
			bestCount = c
		}
	}
	if best == -1 {
		return -1, nil
	}
	return best, s.doms[best].Values()
}
