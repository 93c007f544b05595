// Package reduce implements the interesting-times algorithm for turning a
// per-key grouping logic into an incremental operator, plus the dedicated
// Distinct fast path for set semantics over totally ordered time.
//
// Both are constrained to difference.Abelian diffs: reduce must retract a
// key's previous output when it changes, which requires negation — unlike
// Map or Filter, Reduce cannot be defined over the weaker Semigroup algebra
// (notably difference.Present, which rejects negation at the type level).
package reduce

import (
	"cmp"
	"slices"

	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

// Entry is one (value, diff) pair from an accumulated group.
type Entry[V any, R any] struct {
	Val  V
	Diff R
}

// Update is one (key, value, time, diff) delta the operator has decided to
// emit. Reduce does not own a trace itself; callers fold the results into
// whatever arrangement they maintain downstream (see pkg/arrange and
// pkg/collection.ReduceCore).
type Update[K any, V any, T any, R any] struct {
	Key  K
	Val  V
	Time T
	Diff R
}

// Logic computes a key's desired output group from its accumulated input
// group at a single time.
type Logic[K any, V any, R any, V2 any, R2 any] func(key K, input []Entry[V, R]) []Entry[V2, R2]

type rawEntry[V any, T any, R any] struct {
	v V
	t T
	d R
}

// Reduce maintains, per key, the output accumulation it has already
// emitted, so repeated Run calls over a growing input only ever emit the
// incremental delta. Each Run call recomputes every key present in the
// supplied cursor from scratch using the interesting-times algorithm: for
// every distinct raw time recorded against a key, close the set of "times
// not dominated by an earlier processed time" under join, process the
// result in topological order, and at each such time t', accumulate the
// input up to t', call Logic, and diff the result against whatever was
// previously emitted for times <= t'.
type Reduce[K comparable, V cmp.Ordered, T lattice.Lattice[T], R difference.Abelian[R], V2 cmp.Ordered, R2 difference.Abelian[R2]] struct {
	logic   Logic[K, V, R, V2, R2]
	emitted map[K]map[V2]R2
}

// New creates a Reduce driven by logic.
func New[K comparable, V cmp.Ordered, T lattice.Lattice[T], R difference.Abelian[R], V2 cmp.Ordered, R2 difference.Abelian[R2]](
	logic Logic[K, V, R, V2, R2],
) *Reduce[K, V, T, R, V2, R2] {
	return &Reduce[K, V, T, R, V2, R2]{logic: logic, emitted: map[K]map[V2]R2{}}
}

// cursorLike is the minimal interface Run needs; satisfied by
// pkg/cursor.Cursor[K, V, T, R] and by batch.Cursor directly.
type cursorLike[K any, V any, T any, R any] interface {
	KeyValid() bool
	ValValid() bool
	Key() K
	Val() V
	MapTimes(func(T, R))
	StepKey()
	StepVal()
}

// Run walks c (positioned at its first key) and returns every emitted
// delta.
func (r *Reduce[K, V, T, R, V2, R2]) Run(c cursorLike[K, V, T, R]) []Update[K, V2, T, R2] {
	var out []Update[K, V2, T, R2]

	for c.KeyValid() {
		key := c.Key()

		var entries []rawEntry[V, T, R]

		var rawTimes []T

		for c.ValValid() {
			v := c.Val()
			c.MapTimes(func(t T, d R) {
				entries = append(entries, rawEntry[V, T, R]{v, t, d})
				rawTimes = append(rawTimes, t)
			})
			c.StepVal()
		}

		out = append(out, r.runKey(key, entries, rawTimes)...)

		c.StepKey()
	}

	return out
}

func (r *Reduce[K, V, T, R, V2, R2]) runKey(key K, entries []rawEntry[V, T, R], rawTimes []T) []Update[K, V2, T, R2] {
	var out []Update[K, V2, T, R2]

	interesting := topoSort(closure(rawTimes))

	prev := r.emitted[key]
	if prev == nil {
		prev = map[V2]R2{}
	}

	for _, t := range interesting {
		accumulated := accumulateAt(entries, t)
		desiredMap := sumEntries(r.logic(key, accumulated))

		seen := map[V2]struct{}{}

		for _, v2 := range sortedKeys(desiredMap) {
			d := desiredMap[v2]
			seen[v2] = struct{}{}

			old, ok := prev[v2]

			delta := d
			if ok {
				delta = d.Add(old.Neg())
			}

			if !delta.IsZero() {
				out = append(out, Update[K, V2, T, R2]{Key: key, Val: v2, Time: t, Diff: delta})
			}

			if d.IsZero() {
				delete(prev, v2)
			} else {
				prev[v2] = d
			}
		}

		for _, v2 := range sortedKeys(prev) {
			if _, ok := seen[v2]; ok {
				continue
			}

			delta := prev[v2].Neg()
			if !delta.IsZero() {
				out = append(out, Update[K, V2, T, R2]{Key: key, Val: v2, Time: t, Diff: delta})
			}

			delete(prev, v2)
		}
	}

	if len(prev) > 0 {
		r.emitted[key] = prev
	} else {
		delete(r.emitted, key)
	}

	return out
}

func sumEntries[V2 cmp.Ordered, R2 difference.Abelian[R2]](entries []Entry[V2, R2]) map[V2]R2 {
	out := map[V2]R2{}

	for _, e := range entries {
		if cur, ok := out[e.Val]; ok {
			out[e.Val] = cur.Add(e.Diff)
		} else {
			out[e.Val] = e.Diff
		}
	}

	return out
}

func sortedKeys[V2 cmp.Ordered, X any](m map[V2]X) []V2 {
	out := make([]V2, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}

func accumulateAt[V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](entries []rawEntry[V, T, R], cutoff T) []Entry[V, R] {
	sums := map[V]R{}

	var order []V

	for _, e := range entries {
		if !e.t.LessEqual(cutoff) {
			continue
		}

		if cur, ok := sums[e.v]; ok {
			sums[e.v] = cur.Add(e.d)
		} else {
			sums[e.v] = e.d
			order = append(order, e.v)
		}
	}

	slices.Sort(order)

	out := make([]Entry[V, R], 0, len(order))

	for _, v := range order {
		d := sums[v]
		if !d.IsZero() {
			out = append(out, Entry[V, R]{Val: v, Diff: d})
		}
	}

	return out
}

// closure returns the join-closure of base: repeatedly adding pairwise
// joins of known elements until no new element appears.
func closure[T lattice.Lattice[T]](base []T) []T {
	set := map[T]struct{}{}
	for _, t := range base {
		set[t] = struct{}{}
	}

	for changed := true; changed; {
		changed = false

		elems := make([]T, 0, len(set))
		for t := range set {
			elems = append(elems, t)
		}

		for i := 0; i < len(elems); i++ {
			for j := i + 1; j < len(elems); j++ {
				joined := elems[i].Join(elems[j])
				if _, ok := set[joined]; !ok {
					set[joined] = struct{}{}
					changed = true
				}
			}
		}
	}

	out := make([]T, 0, len(set))
	for t := range set {
		out = append(out, t)
	}

	return out
}

// topoSort orders ts so that for every pair (a, b) with a.LessEqual(b) and
// a != b, a precedes b — a prerequisite for processing "previously emitted
// at times <= t'" correctly at each step.
func topoSort[T lattice.Lattice[T]](ts []T) []T {
	remaining := append([]T(nil), ts...)
	out := make([]T, 0, len(ts))

	for len(remaining) > 0 {
		idx := 0

		for i, t := range remaining {
			minimal := true

			for j, u := range remaining {
				if i == j {
					continue
				}

				if u.LessEqual(t) && t != u {
					minimal = false

					break
				}
			}

			if minimal {
				idx = i

				break
			}
		}

		out = append(out, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	return out
}
