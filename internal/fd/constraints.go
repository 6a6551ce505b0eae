package fd

import "github.com/pkg/errors"

// Less enforces x < y with bounds propagation.
type Less struct {
	x, y *Var
}

// NewLess creates the strict ordering constraint x < y.
func NewLess(x, y *Var) (*Less, error) {
	if x == nil || y == nil {
		return nil, errors.New("fd: Less requires two variables")
	}
	return &Less{x: x, y: y}, nil
}

// Vars implements Constraint.
func (c *Less) Vars() []*Var { return []*Var{c.x, c.y} }

// Propagate implements Constraint.
func (c *Less) Propagate(s *Store) error {
	if err := s.SetDom(c.x, s.Dom(c.x).RemoveAtOrAbove(s.Dom(c.y).Max())); err != nil {
		return err
	}
	return s.SetDom(c.y, s.Dom(c.y).RemoveAtOrBelow(s.Dom(c.x).Min()))
}

// BoolSum channels a set of boolean variables (domain {0,1}) into a
// total variable equal to the number of ones. Propagation is bounds
// consistent in both directions, which is what branch-and-bound needs:
// bound booleans tighten the total, and a tightened total forces the
// undecided booleans.
type BoolSum struct {
	vars  []*Var
	total *Var
}

// NewBoolSum creates the constraint total = Σ vars. The total's domain
// must cover [0, len(vars)].
func NewBoolSum(vars []*Var, total *Var) (*BoolSum, error) {
	if len(vars) == 0 {
		return nil, errors.New("fd: BoolSum requires at least one variable")
	}
	if total == nil {
		return nil, errors.New("fd: BoolSum requires a total variable")
	}
	vs := make([]*Var, len(vars))
	copy(vs, vars)
	return &BoolSum{vars: vs, total: total}, nil
}

// Vars implements Constraint.
func (c *BoolSum) Vars() []*Var {
	out := make([]*Var, 0, len(c.vars)+1)
	out = append(out, c.vars...)
	out = append(out, c.total)
	return out
}

// Propagate implements Constraint.
func (c *BoolSum) Propagate(s *Store) error {
	minCount, maxCount := 0, 0
	for _, v := range c.vars {
		d := s.Dom(v)
		if d.Has(1) {
			maxCount++
			if !d.Has(0) {
				minCount++
			}
		}
	}

	td := s.Dom(c.total)
	if err := s.SetDom(c.total, td.RemoveAtOrBelow(minCount-1).RemoveAtOrAbove(maxCount+1)); err != nil {
		return err
	}

	td = s.Dom(c.total)
	switch {
	case td.Max() == minCount:
		// Every remaining one is already forced; the rest must be zero.
		for _, v := range c.vars {
			d := s.Dom(v)
			if d.Has(0) && d.Has(1) {
				if err := s.Bind(v, 0); err != nil {
					return err
				}
			}
		}
	case td.Min() == maxCount:
		// The total can only be reached if every possible one is taken.
		for _, v := range c.vars {
			d := s.Dom(v)
			if d.Has(0) && d.Has(1) {
				if err := s.Bind(v, 1); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
