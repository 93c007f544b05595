// Package lattice defines the timestamp partial order that every batch,
// trace, and frontier in this module is built on: a join-semilattice with a
// least element, plus the antichain representation used to summarize a set
// of incomparable timestamps into a single frontier.
package lattice

// Lattice is a bounded join-semilattice: LessEqual gives the partial order,
// Join gives the least upper bound, and Meet gives the greatest lower bound
// used by the package function AdvanceBy to collapse a frontier onto a
// timestamp.
//
// Implementations must satisfy, for all a, b, c:
//
//	a.LessEqual(a)                                   (reflexive)
//	a.LessEqual(b) && b.LessEqual(a) => a == b        (antisymmetric)
//	a.LessEqual(b) && b.LessEqual(c) => a.LessEqual(c) (transitive)
//	a.Join(b).LessEqual(c) iff a.LessEqual(c) && b.LessEqual(c)
type Lattice[T any] interface {
	comparable
	LessEqual(other T) bool
	Join(other T) T
	Meet(other T) T
}

// Minimum returns the least element of T, used as the initial frontier of a
// new trace (everything is still "in the future").
type Minimum[T any] interface {
	Min() T
}

// TotalOrder marks a Lattice whose LessEqual is in fact a total order,
// letting callers (pkg/reduce's Distinct fast path, in particular) skip the
// interesting-times algorithm in favor of the cheaper running-count pass
// described for totally ordered time.
type TotalOrder[T any] interface {
	Lattice[T]
	totalOrder()
}

// assertLattice is a compile-time-only check that T implements Lattice[T];
// Lattice embeds comparable, so it cannot be used as an ordinary interface
// type (e.g. in a `var _ Lattice[T] = ...` assertion) outside a type
// constraint position. It is never called.
func assertLattice[T Lattice[T]]() {}

// assertTotalOrder is the TotalOrder analogue of assertLattice.
func assertTotalOrder[T TotalOrder[T]]() {}

// AdvanceBy projects t onto the frontier, computing
//
//	meet over i of (t join frontier[i])
//
// The result is at or above t, but for a partially ordered T it need not be
// at or above any single frontier element: Product (3,7) advanced by
// {(4,8), (5,3)} yields (4,7). An empty frontier returns t unchanged.
func AdvanceBy[T Lattice[T]](t T, frontier []T) T {
	if len(frontier) == 0 {
		return t
	}

	result := t.Join(frontier[0])
	for _, f := range frontier[1:] {
		result = result.Meet(t.Join(f))
	}

	return result
}
