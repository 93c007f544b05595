package collection

import (
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
	"github.com/differo/differo/pkg/scope"
)

// Iterate drives a Collection to a fixed point by repeatedly applying body,
// which receives the inner iteration counter and the current accumulation
// and returns the delta to apply for the next round — nested-scope
// recursive dataflow collapsed (per pkg/scope.Iterate's own
// simplification) to a single, non-nested loop variable.
func Iterate[D comparable, R difference.Abelian[R]](
	initial *Collection[D, lattice.Time, R],
	maxIterations int,
	body func(inner lattice.Time, accumulated *Collection[D, lattice.Time, R]) *Collection[D, lattice.Time, R],
) *Collection[D, lattice.Time, R] {
	toEntries := func(c *Collection[D, lattice.Time, R]) []scope.Entry[D, R] {
		out := make([]scope.Entry[D, R], len(c.Updates))
		for i, u := range c.Updates {
			out[i] = scope.Entry[D, R]{Data: u.Data, Diff: u.Diff}
		}

		return out
	}

	fromEntries := func(entries []scope.Entry[D, R], at lattice.Time) *Collection[D, lattice.Time, R] {
		out := make([]Update[D, lattice.Time, R], len(entries))
		for i, e := range entries {
			out[i] = Update[D, lattice.Time, R]{Data: e.Data, Time: at, Diff: e.Diff}
		}

		return &Collection[D, lattice.Time, R]{Updates: out}
	}

	result := scope.Iterate[D, R](toEntries(initial), maxIterations,
		func(inner lattice.Time, accumulated []scope.Entry[D, R]) []scope.Entry[D, R] {
			acc := make([]Update[D, lattice.Time, R], len(accumulated))
			for i, e := range accumulated {
				acc[i] = Update[D, lattice.Time, R]{Data: e.Data, Time: inner, Diff: e.Diff}
			}

			return toEntries(body(inner, &Collection[D, lattice.Time, R]{Updates: acc}))
		},
	)

	return fromEntries(result, lattice.Time(maxIterations))
}
