// Package fd implements a small finite-domain constraint engine: bitset
// domains, trail-based propagation to a fixed point, backtracking search
// with an MRV heuristic, and branch-and-bound minimization.
//
// The engine is deliberately generic. It knows nothing about qubits or
// grids; callers model their problem as integer variables over finite
// domains plus Constraint implementations that prune those domains.
package fd

import (
	"fmt"
	"math/bits"
	"strings"
)

// Domain is an immutable set of integers in the range [0, size).
// All mutating operations return a new domain, enabling cheap trail-based
// backtracking: restoring a variable is a single pointer swap.
type Domain struct {
	size  int
	words []uint64
}

// FullDomain returns the domain {0, 1, ..., size-1}.
func FullDomain(size int) *Domain {
	if size <= 0 {
		return &Domain{size: 0}
	}
	d := &Domain{size: size, words: make([]uint64, (size+63)/64)}
	for v := 0; v < size; v++ {
		d.words[v/64] |= 1 << uint(v%64)
	}
	return d
}

// DomainOf returns a domain over [0, size) containing only the given
// values. Values outside the range are ignored.
func DomainOf(size int, values ...int) *Domain {
	d := &Domain{size: size, words: make([]uint64, (size+63)/64)}
	for _, v := range values {
		if v >= 0 && v < size {
			d.words[v/64] |= 1 << uint(v%64)
		}
	}
	return d
}

// Size returns the extent of the value range [0, size).
func (d *Domain) Size() int { return d.size }

// Count returns the number of values currently in the domain.
func (d *Domain) Count() int {
	n := 0
	for _, w := range d.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether the domain holds no values.
func (d *Domain) Empty() bool {
	for _, w := range d.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Has reports whether value is in the domain.
func (d *Domain) Has(value int) bool {
	if value < 0 || value >= d.size {
		return false
	}
	return d.words[value/64]>>uint(value%64)&1 == 1
}

// Singleton reports whether exactly one value remains.
func (d *Domain) Singleton() bool { return d.Count() == 1 }

// Value returns the single remaining value. It panics if the domain is
// not a singleton; callers check Singleton first.
func (d *Domain) Value() int {
	if !d.Singleton() {
		panic(fmt.Sprintf("fd: Value on non-singleton domain %s", d))
	}
	return d.Min()
}

// Min returns the smallest value, or -1 if the domain is empty.
func (d *Domain) Min() int {
	for i, w := range d.words {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// Max returns the largest value, or -1 if the domain is empty.
func (d *Domain) Max() int {
	for i := len(d.words) - 1; i >= 0; i-- {
		if w := d.words[i]; w != 0 {
			return i*64 + 63 - bits.LeadingZeros64(w)
		}
	}
	return -1
}

// Remove returns a domain without value.
func (d *Domain) Remove(value int) *Domain {
	if !d.Has(value) {
		return d
	}
	nd := d.clone()
	nd.words[value/64] &^= 1 << uint(value%64)
	return nd
}

// Only returns a domain reduced to {value}, or an empty domain if value
// is not present.
func (d *Domain) Only(value int) *Domain {
	nd := &Domain{size: d.size, words: make([]uint64, len(d.words))}
	if d.Has(value) {
		nd.words[value/64] = 1 << uint(value%64)
	}
	return nd
}

// Intersect returns the set intersection of two domains over the same
// value range.
func (d *Domain) Intersect(other *Domain) *Domain {
	nd := d.clone()
	for i := range nd.words {
		nd.words[i] &= other.words[i]
	}
	return nd
}

// RemoveAtOrAbove returns a domain keeping only values < bound.
func (d *Domain) RemoveAtOrAbove(bound int) *Domain {
	if bound > d.Max() {
		return d
	}
	nd := d.clone()
	for v := maxInt(bound, 0); v < d.size; v++ {
		nd.words[v/64] &^= 1 << uint(v%64)
	}
	return nd
}

// RemoveAtOrBelow returns a domain keeping only values > bound.
func (d *Domain) RemoveAtOrBelow(bound int) *Domain {
	if bound < d.Min() {
		return d
	}
	nd := d.clone()
	for v := 0; v <= bound && v < d.size; v++ {
		nd.words[v/64] &^= 1 << uint(v%64)
	}
	return nd
}

// Equal reports whether both domains contain exactly the same values.
func (d *Domain) Equal(other *Domain) bool {
	if d.size != other.size {
		return false
	}
	for i := range d.words {
		if d.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// Disjoint reports whether the two domains share no value.
func (d *Domain) Disjoint(other *Domain) bool {
	for i := range d.words {
		if d.words[i]&other.words[i] != 0 {
			return false
		}
	}
	return true
}

// Each calls f for every value in ascending order.
func (d *Domain) Each(f func(value int)) {
	for i, w := range d.words {
		for w != 0 {
			low := w & -w
			f(i*64 + bits.TrailingZeros64(w))
			w &^= low
		}
	}
}

// Values returns the domain's contents as an ascending slice.
func (d *Domain) Values() []int {
	out := make([]int, 0, d.Count())
	d.Each(func(v int) { out = append(out, v) })
	return out
}

// String renders the domain for logs and test failures.
func (d *Domain) String() string {
	vals := d.Values()
	if len(vals) == 0 {
		return "{}"
	}
	if len(vals) > 1 && vals[len(vals)-1]-vals[0] == len(vals)-1 {
		return fmt.Sprintf("{%d..%d}", vals[0], vals[len(vals)-1])
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", v)
	}
	b.WriteByte('}')
	return b.String()
}

func (d *Domain) clone() *Domain {
	words := make([]uint64, len(d.words))
	copy(words, d.words)
	return &Domain{size: d.size, words: words}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
