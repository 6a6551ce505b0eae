package dpqa

import (
	"fmt"

	"github.com/atomarray/dpqa/internal/fd"
)

// Trap kinds as finite-domain values. The encoding matches TrapKind so
// solved values convert directly.
const (
	fdSLM = int(SLM)
	fdAOD = int(AOD)
)

// qubitStage bundles one qubit's variables at one solver stage.
type qubitStage struct {
	x, y, k *fd.Var
}

// gateColocation ties one gate to the stage-time variable of its input
// stage: at whichever solver stage t takes, the two qubits must share a
// site and sit in different trap kinds. Stages where colocation is
// already impossible are pruned from t.
type gateColocation struct {
	t    *fd.Var
	a, b []qubitStage // per solver stage
	gate Gate
}

func (c *gateColocation) Vars() []*fd.Var {
	out := []*fd.Var{c.t}
	for s := range c.a {
		out = append(out, c.a[s].x, c.a[s].y, c.a[s].k, c.b[s].x, c.b[s].y, c.b[s].k)
	}
	return out
}

func (c *gateColocation) Propagate(s *fd.Store) error {
	td := s.Dom(c.t)
	var prune []int
	td.Each(func(stage int) {
		if !c.feasibleAt(s, stage) {
			prune = append(prune, stage)
		}
	})
	for _, stage := range prune {
		if err := s.Prune(c.t, stage); err != nil {
			return err
		}
	}

	td = s.Dom(c.t)
	if !td.Singleton() {
		return nil
	}
	stage := td.Value()
	a, b := c.a[stage], c.b[stage]
	if err := s.Narrow(a.x, s.Dom(b.x)); err != nil {
		return err
	}
	if err := s.Narrow(b.x, s.Dom(a.x)); err != nil {
		return err
	}
	if err := s.Narrow(a.y, s.Dom(b.y)); err != nil {
		return err
	}
	if err := s.Narrow(b.y, s.Dom(a.y)); err != nil {
		return err
	}
	// One qubit in the movable trap, the other in the fixed one.
	if s.Dom(a.k).Singleton() {
		if err := s.Prune(b.k, s.Dom(a.k).Value()); err != nil {
			return err
		}
	}
	if s.Dom(b.k).Singleton() {
		if err := s.Prune(a.k, s.Dom(b.k).Value()); err != nil {
			return err
		}
	}
	return nil
}

func (c *gateColocation) String() string {
	return fmt.Sprintf("colocate(%s)", c.gate)
}

// feasibleAt reports whether the gate's pair could still be colocated
// with opposite trap kinds at the given solver stage.
func (c *gateColocation) feasibleAt(s *fd.Store, stage int) bool {
	a, b := c.a[stage], c.b[stage]
	if s.Dom(a.x).Disjoint(s.Dom(b.x)) || s.Dom(a.y).Disjoint(s.Dom(b.y)) {
		return false
	}
	ka, kb := s.Dom(a.k), s.Dom(b.k)
	if ka.Singleton() && kb.Singleton() && ka.Value() == kb.Value() {
		return false
	}
	return true
}

// siteCapacity enforces, for one solver stage, that no two qubits share
// (x, y, trap kind). Two propagation layers: pigeonhole counting over
// columns, rows and sites catches overcommitment as soon as enough
// positions are forced, and pairwise exclusion resolves the last
// coordinate of a colliding pair.
type siteCapacity struct {
	stage  int
	rows   int
	cols   int
	qubits []qubitStage
}

func (c *siteCapacity) Vars() []*fd.Var {
	out := make([]*fd.Var, 0, 3*len(c.qubits))
	for _, q := range c.qubits {
		out = append(out, q.x, q.y, q.k)
	}
	return out
}

func (c *siteCapacity) String() string {
	return fmt.Sprintf("siteCapacity(stage %d)", c.stage)
}

func (c *siteCapacity) Propagate(s *fd.Store) error {
	line := func(q qubitStage) *fd.Var { return q.x }
	if err := c.lineCounts(s, line, c.cols, c.rows); err != nil {
		return err
	}
	line = func(q qubitStage) *fd.Var { return q.y }
	if err := c.lineCounts(s, line, c.rows, c.cols); err != nil {
		return err
	}
	if err := c.siteCounts(s); err != nil {
		return err
	}
	for i := range c.qubits {
		for j := range c.qubits {
			if i == j {
				continue
			}
			if err := c.pruneAgainst(s, c.qubits[i], c.qubits[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// lineCounts applies pigeonhole counting along one axis: a column holds
// at most Rows qubits per trap kind (a row at most Cols), so once the
// forced occupancy of a coordinate value reaches its cap, every
// undecided qubit is pushed off it.
func (c *siteCapacity) lineCounts(s *fd.Store, line func(qubitStage) *fd.Var, extent, depth int) error {
	for v := 0; v < extent; v++ {
		total := 0
		byKind := [2]int{}
		for _, q := range c.qubits {
			d := s.Dom(line(q))
			if !(d.Singleton() && d.Value() == v) {
				continue
			}
			total++
			kd := s.Dom(q.k)
			if kd.Singleton() {
				byKind[kd.Value()]++
			}
		}

		if total >= 2*depth {
			for _, q := range c.qubits {
				d := s.Dom(line(q))
				if d.Singleton() && d.Value() == v {
					if total > 2*depth {
						return s.Prune(line(q), v) // wipeout, line over capacity
					}
					continue
				}
				if err := s.Prune(line(q), v); err != nil {
					return err
				}
			}
		}

		for kind := 0; kind < 2; kind++ {
			if byKind[kind] < depth {
				continue
			}
			for _, q := range c.qubits {
				d, kd := s.Dom(line(q)), s.Dom(q.k)
				forced := d.Singleton() && d.Value() == v && kd.Singleton() && kd.Value() == kind
				if forced {
					if byKind[kind] > depth {
						return s.Prune(line(q), v)
					}
					continue
				}
				switch {
				case kd.Singleton() && kd.Value() == kind:
					if err := s.Prune(line(q), v); err != nil {
						return err
					}
				case d.Singleton() && d.Value() == v:
					if err := s.Prune(q.k, kind); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// siteCounts pushes qubits off sites whose two places are already
// taken.
func (c *siteCapacity) siteCounts(s *fd.Store) error {
	type site struct{ x, y int }
	forced := make(map[site]int)
	for _, q := range c.qubits {
		xd, yd := s.Dom(q.x), s.Dom(q.y)
		if xd.Singleton() && yd.Singleton() {
			forced[site{xd.Value(), yd.Value()}]++
		}
	}
	for at, n := range forced {
		if n < 2 {
			continue
		}
		for _, q := range c.qubits {
			xd, yd := s.Dom(q.x), s.Dom(q.y)
			onSite := xd.Singleton() && xd.Value() == at.x && yd.Singleton() && yd.Value() == at.y
			if onSite {
				if n > 2 {
					return s.Prune(q.x, at.x)
				}
				continue
			}
			switch {
			case xd.Singleton() && xd.Value() == at.x:
				if err := s.Prune(q.y, at.y); err != nil {
					return err
				}
			case yd.Singleton() && yd.Value() == at.y:
				if err := s.Prune(q.x, at.x); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// pruneAgainst removes from b whatever would make it collide with a
// fully or partially bound a.
func (c *siteCapacity) pruneAgainst(s *fd.Store, a, b qubitStage) error {
	ax, ay, ak := s.Dom(a.x), s.Dom(a.y), s.Dom(a.k)
	bx, by, bk := s.Dom(b.x), s.Dom(b.y), s.Dom(b.k)

	sameX := ax.Singleton() && bx.Singleton() && ax.Value() == bx.Value()
	sameY := ay.Singleton() && by.Singleton() && ay.Value() == by.Value()
	sameK := ak.Singleton() && bk.Singleton() && ak.Value() == bk.Value()

	switch {
	case sameX && sameY && ak.Singleton():
		return s.Prune(b.k, ak.Value())
	case sameX && sameK && ay.Singleton():
		return s.Prune(b.y, ay.Value())
	case sameY && sameK && ax.Singleton():
		return s.Prune(b.x, ax.Value())
	}
	return nil
}

// slmAnchor pins one qubit across one stage boundary: staying in the
// fixed trap on both sides means staying on the same site. The
// contrapositive also prunes: if the positions can no longer match, the
// qubit cannot be SLM on both sides.
type slmAnchor struct {
	cur, next qubitStage
}

func (c *slmAnchor) Vars() []*fd.Var {
	return []*fd.Var{c.cur.x, c.cur.y, c.cur.k, c.next.x, c.next.y, c.next.k}
}

func (c *slmAnchor) Propagate(s *fd.Store) error {
	k0, k1 := s.Dom(c.cur.k), s.Dom(c.next.k)

	bothSLM := k0.Singleton() && k0.Value() == fdSLM && k1.Singleton() && k1.Value() == fdSLM
	if bothSLM {
		if err := s.Narrow(c.cur.x, s.Dom(c.next.x)); err != nil {
			return err
		}
		if err := s.Narrow(c.next.x, s.Dom(c.cur.x)); err != nil {
			return err
		}
		if err := s.Narrow(c.cur.y, s.Dom(c.next.y)); err != nil {
			return err
		}
		return s.Narrow(c.next.y, s.Dom(c.cur.y))
	}

	cannotStay := s.Dom(c.cur.x).Disjoint(s.Dom(c.next.x)) || s.Dom(c.cur.y).Disjoint(s.Dom(c.next.y))
	if cannotStay {
		if k0.Singleton() && k0.Value() == fdSLM {
			return s.Prune(c.next.k, fdSLM)
		}
		if k1.Singleton() && k1.Value() == fdSLM {
			return s.Prune(c.cur.k, fdSLM)
		}
	}
	return nil
}

// keptOrder constrains one qubit pair across one stage boundary when
// both qubits stay in AOD traps on both sides: on each axis, equal
// coordinates move as one rigid group and strict order stays strict.
// Strict preservation is what rules out both crossings and two moving
// groups resolving to the same coordinate.
type keptOrder struct {
	iCur, iNext qubitStage
	jCur, jNext qubitStage
}

func (c *keptOrder) Vars() []*fd.Var {
	return []*fd.Var{
		c.iCur.x, c.iCur.y, c.iCur.k, c.iNext.x, c.iNext.y, c.iNext.k,
		c.jCur.x, c.jCur.y, c.jCur.k, c.jNext.x, c.jNext.y, c.jNext.k,
	}
}

func (c *keptOrder) Propagate(s *fd.Store) error {
	for _, k := range []*fd.Var{c.iCur.k, c.iNext.k, c.jCur.k, c.jNext.k} {
		d := s.Dom(k)
		if !(d.Singleton() && d.Value() == fdAOD) {
			return nil // not (yet) a kept-AOD pair
		}
	}
	if err := c.axis(s, c.iCur.x, c.jCur.x, c.iNext.x, c.jNext.x); err != nil {
		return err
	}
	return c.axis(s, c.iCur.y, c.jCur.y, c.iNext.y, c.jNext.y)
}

// axis applies order preservation on one axis: a0/b0 are the pair's
// coordinates before the boundary, a1/b1 after.
func (c *keptOrder) axis(s *fd.Store, a0, b0, a1, b1 *fd.Var) error {
	da0, db0 := s.Dom(a0), s.Dom(b0)
	switch {
	case da0.Max() < db0.Min(): // a strictly left of b
		if err := s.SetDom(a1, s.Dom(a1).RemoveAtOrAbove(s.Dom(b1).Max())); err != nil {
			return err
		}
		return s.SetDom(b1, s.Dom(b1).RemoveAtOrBelow(s.Dom(a1).Min()))
	case db0.Max() < da0.Min(): // b strictly left of a
		if err := s.SetDom(b1, s.Dom(b1).RemoveAtOrAbove(s.Dom(a1).Max())); err != nil {
			return err
		}
		return s.SetDom(a1, s.Dom(a1).RemoveAtOrBelow(s.Dom(b1).Min()))
	case da0.Singleton() && db0.Singleton() && da0.Value() == db0.Value():
		// Same rigid group: coordinates stay identical.
		if err := s.Narrow(a1, s.Dom(b1)); err != nil {
			return err
		}
		return s.Narrow(b1, s.Dom(a1))
	}
	return nil
}

// pairMove is the derived indicator for one (boundary, axis, source,
// target) coordinate pair: 1 exactly when some qubit sits at source on
// that axis before the boundary and at target after it. Fixed qubits
// are anchored and never change coordinates, so every qubit matching a
// pair rides exactly one Move instruction of the boundary and the
// indicator sum equals the schedule's move count. Tightening the
// objective in branch-and-bound pushes back into placements: a forced-
// zero indicator pins every source qubit off the target.
type pairMove struct {
	ind         *fd.Var
	from, to    int
	pCur, pNext []*fd.Var
}

func (c *pairMove) Vars() []*fd.Var {
	out := []*fd.Var{c.ind}
	for q := range c.pCur {
		out = append(out, c.pCur[q], c.pNext[q])
	}
	return out
}

func (c *pairMove) Propagate(s *fd.Store) error {
	definite := false
	possible := false
	for q := range c.pCur {
		p0, p1 := s.Dom(c.pCur[q]), s.Dom(c.pNext[q])
		if p0.Has(c.from) && p1.Has(c.to) {
			possible = true
		}
		if p0.Singleton() && p0.Value() == c.from && p1.Singleton() && p1.Value() == c.to {
			definite = true
		}
	}

	if definite {
		if err := s.Bind(c.ind, 1); err != nil {
			return err
		}
	}
	if !possible {
		if err := s.Bind(c.ind, 0); err != nil {
			return err
		}
	}

	ind := s.Dom(c.ind)
	if !(ind.Singleton() && ind.Value() == 0) {
		return nil
	}
	for q := range c.pCur {
		p0, p1 := s.Dom(c.pCur[q]), s.Dom(c.pNext[q])
		if p0.Singleton() && p0.Value() == c.from {
			if err := s.Prune(c.pNext[q], c.to); err != nil {
				return err
			}
		}
		if p1.Singleton() && p1.Value() == c.to {
			if err := s.Prune(c.pCur[q], c.from); err != nil {
				return err
			}
		}
	}
	return nil
}

// transferClearance forbids lifting a fixed qubit into the movable
// layer while a movable qubit shares its site. Lift transfers run
// before the boundary's moves, at the qubit's current site, so the
// site's movable place must be free at the current stage.
type transferClearance struct {
	lift     qubitStage // lifting candidate, current stage
	liftNext *fd.Var    // its trap kind after the boundary
	block    qubitStage // blocking candidate, current stage
}

func (c *transferClearance) Vars() []*fd.Var {
	return []*fd.Var{c.lift.x, c.lift.y, c.lift.k, c.liftNext, c.block.x, c.block.y, c.block.k}
}

func (c *transferClearance) Propagate(s *fd.Store) error {
	lx, bx := s.Dom(c.lift.x), s.Dom(c.block.x)
	ly, by := s.Dom(c.lift.y), s.Dom(c.block.y)
	if lx.Disjoint(bx) || ly.Disjoint(by) {
		return nil
	}

	k0, k1, bk := s.Dom(c.lift.k), s.Dom(c.liftNext), s.Dom(c.block.k)
	curSLM := k0.Singleton() && k0.Value() == fdSLM
	nextAOD := k1.Singleton() && k1.Value() == fdAOD
	blockAOD := bk.Singleton() && bk.Value() == fdAOD

	sameX := lx.Singleton() && bx.Singleton() && lx.Value() == bx.Value()
	sameY := ly.Singleton() && by.Singleton() && ly.Value() == by.Value()
	if sameX && sameY {
		switch {
		case curSLM && nextAOD:
			return s.Prune(c.block.k, fdAOD)
		case curSLM && blockAOD:
			return s.Prune(c.liftNext, fdAOD)
		case nextAOD && blockAOD:
			return s.Prune(c.lift.k, fdSLM)
		}
		return nil
	}

	if !(curSLM && nextAOD && blockAOD) {
		return nil
	}
	// The lift and its blocker are fully committed; keep the sites
	// apart on whichever axis is still open.
	if sameX {
		if ly.Singleton() {
			return s.Prune(c.block.y, ly.Value())
		}
		if by.Singleton() {
			return s.Prune(c.lift.y, by.Value())
		}
	}
	if sameY {
		if lx.Singleton() {
			return s.Prune(c.block.x, lx.Value())
		}
		if bx.Singleton() {
			return s.Prune(c.lift.x, bx.Value())
		}
	}
	return nil
}

// kindChange is the derived indicator for one qubit at one boundary:
// 1 exactly when the trap kind differs across it. Feeds the transfer-
// count objective.
type kindChange struct {
	ind        *fd.Var
	cur, next  *fd.Var
	qubit, bnd int
}

func (c *kindChange) Vars() []*fd.Var {
	return []*fd.Var{c.ind, c.cur, c.next}
}

func (c *kindChange) Propagate(s *fd.Store) error {
	k0, k1 := s.Dom(c.cur), s.Dom(c.next)
	if k0.Singleton() && k1.Singleton() {
		val := 0
		if k0.Value() != k1.Value() {
			val = 1
		}
		return s.Bind(c.ind, val)
	}

	ind := s.Dom(c.ind)
	if !ind.Singleton() {
		return nil
	}
	switch ind.Value() {
	case 0: // kinds must match
		if err := s.Narrow(c.cur, k1); err != nil {
			return err
		}
		return s.Narrow(c.next, s.Dom(c.cur))
	default: // kinds must differ
		if k0.Singleton() {
			return s.Prune(c.next, k0.Value())
		}
		if k1.Singleton() {
			return s.Prune(c.cur, k1.Value())
		}
	}
	return nil
}

func (c *kindChange) String() string {
	return fmt.Sprintf("kindChange(q%d, boundary %d)", c.qubit, c.bnd)
}
