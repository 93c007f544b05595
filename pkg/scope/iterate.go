package scope

import (
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

// Entry pairs data with a diff — the shape an iterative loop body consumes
// and produces each round.
type Entry[D any, R any] struct {
	Data D
	Diff R
}

// Variable is one fixed-point loop variable living inside an Iterate nested
// scope: it holds the running accumulation, keyed by Data, of every delta
// applied to it so far — the variables-are-fixed-points mechanism of the
// iterate operator, using a Product[Outer, Time] timestamp where Outer is
// held fixed for the duration of one Iterate call and Time is the inner
// round counter.
type Variable[D comparable, R difference.Abelian[R]] struct {
	accum map[D]R
}

// NewVariable creates an empty loop variable.
func NewVariable[D comparable, R difference.Abelian[R]]() *Variable[D, R] {
	return &Variable[D, R]{accum: map[D]R{}}
}

// Apply folds delta into the variable's accumulation and returns delta
// unchanged, for callers that want to forward it downstream while also
// updating the running total.
func (v *Variable[D, R]) Apply(delta []Entry[D, R]) []Entry[D, R] {
	for _, e := range delta {
		sum := e.Diff
		if cur, ok := v.accum[e.Data]; ok {
			sum = cur.Add(e.Diff)
		}

		if sum.IsZero() {
			delete(v.accum, e.Data)
		} else {
			v.accum[e.Data] = sum
		}
	}

	return delta
}

// Snapshot returns the variable's current non-zero accumulation.
func (v *Variable[D, R]) Snapshot() []Entry[D, R] {
	out := make([]Entry[D, R], 0, len(v.accum))

	for d, r := range v.accum {
		out = append(out, Entry[D, R]{Data: d, Diff: r})
	}

	return out
}

// Iterate drives body to a fixed point: body receives the inner round
// number and the variable's current accumulation, and returns the delta to
// apply for the next round. Iteration converges as soon as a round
// produces an empty delta — the path-summary progress rule collapses to
// exactly this for a single, non-nested Iterate — or stops after
// maxIterations rounds as a safety bound against a non-converging loop
// body.
func Iterate[D comparable, R difference.Abelian[R]](
	initial []Entry[D, R],
	maxIterations int,
	body func(inner lattice.Time, accumulated []Entry[D, R]) []Entry[D, R],
) []Entry[D, R] {
	v := NewVariable[D, R]()
	delta := v.Apply(initial)

	for inner := lattice.Time(0); len(delta) > 0 && int(inner) < maxIterations; inner++ {
		delta = v.Apply(body(inner, v.Snapshot()))
	}

	return v.Snapshot()
}
