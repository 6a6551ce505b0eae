package fd

import (
	"github.com/pkg/errors"
)

// Engine errors. ErrInconsistent signals ordinary propagation failure
// (the current branch has no solution) and is consumed internally by
// search. ErrUnresolved escapes to the caller: it means propagation left
// a derived variable unbound after all decision variables were fixed,
// which indicates a broken constraint model rather than infeasibility.
var (
	ErrInconsistent = errors.New("fd: domain wipeout")
	ErrUnresolved   = errors.New("fd: derived variable left unbound at leaf")
)

// Var is a finite-domain decision variable. Domains are owned by the
// Store; a Var is just a stable identity used to post constraints and to
// look up values in solutions.
type Var struct {
	id   int
	name string
}

// ID returns the variable's index in store order. Solutions are indexed
// by ID.
func (v *Var) ID() int { return v.id }

// Name returns the debugging name given at creation.
func (v *Var) Name() string { return v.name }

// Constraint prunes variable domains. Propagate must be monotone (only
// remove values), must return ErrInconsistent-wrapped errors via the
// store's mutators when a domain wipes out, and must detect violation
// whenever all of its variables are bound.
type Constraint interface {
	// Vars lists every variable whose domain change should re-trigger
	// this constraint.
	Vars() []*Var

	// Propagate prunes domains through the store. It is re-run until no
	// constraint changes any domain.
	Propagate(s *Store) error
}

type change struct {
	vid  int
	prev *Domain
}

// Store holds the variables, domains and constraints of one model
// attempt, along with the propagation queue and the backtracking trail.
// A Store is built, solved once or twice, and discarded; it is not safe
// for concurrent use.
type Store struct {
	vars     []*Var
	doms     []*Domain
	decision []bool

	constraints []Constraint
	watchers    [][]int // var id -> constraint indices
	queued      []bool
	queue       []int

	trail []change
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewVar adds a decision variable with the given domain. The search
// branches on decision variables only.
func (s *Store) NewVar(dom *Domain, name string) *Var {
	return s.addVar(dom, name, true)
}

// NewDerivedVar adds a variable the search never branches on. Derived
// variables must become bound through propagation once all decision
// variables are fixed (move indicators, objective totals).
func (s *Store) NewDerivedVar(dom *Domain, name string) *Var {
	return s.addVar(dom, name, false)
}

func (s *Store) addVar(dom *Domain, name string, decision bool) *Var {
	v := &Var{id: len(s.vars), name: name}
	s.vars = append(s.vars, v)
	s.doms = append(s.doms, dom)
	s.decision = append(s.decision, decision)
	s.watchers = append(s.watchers, nil)
	return v
}

// VarCount returns the number of variables in the store.
func (s *Store) VarCount() int { return len(s.vars) }

// Dom returns the current domain of v.
func (s *Store) Dom(v *Var) *Domain { return s.doms[v.id] }

// AddConstraint registers c and schedules its initial propagation run.
func (s *Store) AddConstraint(c Constraint) {
	idx := len(s.constraints)
	s.constraints = append(s.constraints, c)
	s.queued = append(s.queued, false)
	for _, v := range c.Vars() {
		s.watchers[v.id] = append(s.watchers[v.id], idx)
	}
	s.enqueue(idx)
}

func (s *Store) enqueue(idx int) {
	if !s.queued[idx] {
		s.queued[idx] = true
		s.queue = append(s.queue, idx)
	}
}

// SetDom replaces v's domain, recording the old domain on the trail and
// waking the constraints watching v. Returns ErrInconsistent if the new
// domain is empty.
func (s *Store) SetDom(v *Var, dom *Domain) error {
	cur := s.doms[v.id]
	if cur.Equal(dom) {
		return nil
	}
	s.trail = append(s.trail, change{vid: v.id, prev: cur})
	s.doms[v.id] = dom
	if dom.Empty() {
		return errors.Wrapf(ErrInconsistent, "variable %s", v.name)
	}
	for _, ci := range s.watchers[v.id] {
		s.enqueue(ci)
	}
	return nil
}

// Bind narrows v to exactly value.
func (s *Store) Bind(v *Var, value int) error {
	return s.SetDom(v, s.doms[v.id].Only(value))
}

// Prune removes value from v's domain.
func (s *Store) Prune(v *Var, value int) error {
	return s.SetDom(v, s.doms[v.id].Remove(value))
}

// Narrow intersects v's domain with bound.
func (s *Store) Narrow(v *Var, bound *Domain) error {
	return s.SetDom(v, s.doms[v.id].Intersect(bound))
}

// fixpoint drains the constraint queue, re-running constraints until no
// domain changes. Bounded to guard against a propagator that keeps
// reporting changes without shrinking anything.
func (s *Store) fixpoint() error {
	const maxRuns = 1 << 22
	runs := 0
	for len(s.queue) > 0 {
		idx := s.queue[0]
		s.queue = s.queue[1:]
		s.queued[idx] = false
		if err := s.constraints[idx].Propagate(s); err != nil {
			s.flushQueue()
			return err
		}
		runs++
		if runs > maxRuns {
			return errors.New("fd: propagation did not reach a fixed point")
		}
	}
	return nil
}

func (s *Store) flushQueue() {
	for _, idx := range s.queue {
		s.queued[idx] = false
	}
	s.queue = s.queue[:0]
}

// snapshot returns the trail mark to undo to.
func (s *Store) snapshot() int { return len(s.trail) }

// undo rolls domains back to a previous snapshot.
func (s *Store) undo(mark int) {
	for i := len(s.trail) - 1; i >= mark; i-- {
		ch := s.trail[i]
		s.doms[ch.vid] = ch.prev
	}
	s.trail = s.trail[:mark]
	s.flushQueue()
}

// wakeAll schedules every constraint, used after out-of-band domain
// tightening such as an incumbent cutoff.
func (s *Store) wakeAll() {
	for i := range s.constraints {
		s.enqueue(i)
	}
}
