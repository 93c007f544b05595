package lattice

import "math"

// Time is the flat, totally ordered timestamp used for non-nested scopes:
// a plain logical counter, matching the "usize"/"u64" timestamp impls in the
// reference lattice algebra.
type Time uint64

// MaxTime is the timestamp used as a stand-in for "no further updates",
// i.e. the lattice maximum returned by AdvanceBy against an empty frontier.
const MaxTime Time = math.MaxUint64

func (t Time) LessEqual(other Time) bool { return t <= other }
func (t Time) Join(other Time) Time {
	if t > other {
		return t
	}

	return other
}

func (t Time) Meet(other Time) Time {
	if t < other {
		return t
	}

	return other
}

func (t Time) totalOrder() {}

var (
	_ = assertLattice[Time]
	_ = assertTotalOrder[Time]
)

// Product is the nested timestamp formed by pairing an outer scope's time
// with an inner (iterative) scope's time, ordered componentwise. This is
// the timestamp type for any dataflow built with Iterate (pkg/collection).
type Product[T1 Lattice[T1], T2 Lattice[T2]] struct {
	Outer T1
	Inner T2
}

func NewProduct[T1 Lattice[T1], T2 Lattice[T2]](outer T1, inner T2) Product[T1, T2] {
	return Product[T1, T2]{Outer: outer, Inner: inner}
}

func (p Product[T1, T2]) LessEqual(other Product[T1, T2]) bool {
	return p.Outer.LessEqual(other.Outer) && p.Inner.LessEqual(other.Inner)
}

func (p Product[T1, T2]) Join(other Product[T1, T2]) Product[T1, T2] {
	return Product[T1, T2]{
		Outer: p.Outer.Join(other.Outer),
		Inner: p.Inner.Join(other.Inner),
	}
}

func (p Product[T1, T2]) Meet(other Product[T1, T2]) Product[T1, T2] {
	return Product[T1, T2]{
		Outer: p.Outer.Meet(other.Outer),
		Inner: p.Inner.Meet(other.Inner),
	}
}

var _ = assertLattice[Product[Time, Time]]
