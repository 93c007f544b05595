// Package batcher buffers raw (key, value, time, diff) updates into sorted,
// consolidated runs and seals them into Batches on demand — the staging
// structure every Arrangement uses ahead of the first time a spine ever
// sees a given chunk of data.
package batcher

import (
	"cmp"
	"slices"

	"github.com/differo/differo/pkg/batch"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

// Update is one raw (key, value, time, diff) tuple as produced by a
// dataflow operator, before it has been sorted or consolidated.
type Update[K any, V any, T any, R any] struct {
	Key  K
	Val  V
	Time T
	Diff R
}

type tuple[K any, V any, T any, R any] struct {
	k K
	v V
	t T
	d R
}

// MergeBatcher buffers unsorted updates into small sorted, consolidated
// runs via PushBatch, periodically merging runs once their count exceeds a
// threshold, and produces a Batch on demand via Seal covering every
// buffered tuple not at or beyond a caller-supplied upper frontier. This is
// the comparison-based variant of the two staging strategies the reference
// implementation offers (the other being a radix batcher keyed on a
// fixed-width encoding); this module's keys and values are arbitrary
// cmp.Ordered types, so a comparison sort is the one that applies generally.
type MergeBatcher[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	runs           [][]tuple[K, V, T, R]
	mergeThreshold int
}

// New creates an empty MergeBatcher.
func New[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]]() *MergeBatcher[K, V, T, R] {
	return &MergeBatcher[K, V, T, R]{mergeThreshold: 8}
}

// PushBatch stages updates, sorting and consolidating them into one new
// run, then merges down existing runs once their count passes a fixed
// threshold of 8 runs.
func (m *MergeBatcher[K, V, T, R]) PushBatch(updates []Update[K, V, T, R]) {
	if len(updates) == 0 {
		return
	}

	run := make([]tuple[K, V, T, R], len(updates))
	for i, u := range updates {
		run[i] = tuple[K, V, T, R]{k: u.Key, v: u.Val, t: u.Time, d: u.Diff}
	}

	sortByKeyVal(run)
	run = consolidate(run)

	m.runs = append(m.runs, run)
	m.maybeMerge()
}

func sortByKeyVal[K cmp.Ordered, V cmp.Ordered, T any, R any](run []tuple[K, V, T, R]) {
	slices.SortStableFunc(run, func(a, b tuple[K, V, T, R]) int {
		if c := cmp.Compare(a.k, b.k); c != 0 {
			return c
		}

		return cmp.Compare(a.v, b.v)
	})
}

// consolidate groups run by (key, value) — already adjacent after
// sortByKeyVal — and sums diffs sharing a time within each group. Time is
// only a Lattice, not cmp.Ordered, so grouping by time uses a map; the
// distinct times of each group are then stably sorted by LessEqual, which
// puts them in increasing order when T is totally ordered. Incomparable
// times of a partially ordered T keep no defined relative order.
func consolidate[K comparable, V comparable, T lattice.Lattice[T], R difference.Semigroup[R]](run []tuple[K, V, T, R]) []tuple[K, V, T, R] {
	out := make([]tuple[K, V, T, R], 0, len(run))

	i := 0
	for i < len(run) {
		j := i
		for j < len(run) && run[j].k == run[i].k && run[j].v == run[i].v {
			j++
		}

		sums := map[T]R{}

		var order []T

		for _, e := range run[i:j] {
			if cur, ok := sums[e.t]; ok {
				sums[e.t] = cur.Add(e.d)
			} else {
				sums[e.t] = e.d
				order = append(order, e.t)
			}
		}

		slices.SortStableFunc(order, func(a, b T) int {
			switch {
			case a.LessEqual(b):
				return -1
			case b.LessEqual(a):
				return 1
			default:
				return 0
			}
		})

		for _, t := range order {
			d := sums[t]
			if !d.IsZero() {
				out = append(out, tuple[K, V, T, R]{k: run[i].k, v: run[i].v, t: t, d: d})
			}
		}

		i = j
	}

	return out
}

func (m *MergeBatcher[K, V, T, R]) maybeMerge() {
	if len(m.runs) <= m.mergeThreshold {
		return
	}

	var all []tuple[K, V, T, R]
	for _, r := range m.runs {
		all = append(all, r...)
	}

	sortByKeyVal(all)
	all = consolidate(all)

	m.runs = [][]tuple[K, V, T, R]{all}
}

// Seal drains every buffered tuple whose time is not at or beyond upper
// into a Batch covering [lower, upper), leaving the rest staged for the
// next Seal.
func (m *MergeBatcher[K, V, T, R]) Seal(lower, upper *lattice.Antichain[T]) *batch.Batch[K, V, T, R] {
	var all []tuple[K, V, T, R]
	for _, r := range m.runs {
		all = append(all, r...)
	}

	var toSeal, toKeep []tuple[K, V, T, R]

	for _, e := range all {
		if upper.LessEqual(e.t) {
			toKeep = append(toKeep, e)
		} else {
			toSeal = append(toSeal, e)
		}
	}

	sortByKeyVal(toSeal)
	toSeal = consolidate(toSeal)

	m.runs = nil
	if len(toKeep) > 0 {
		m.runs = [][]tuple[K, V, T, R]{toKeep}
	}

	builder := batch.NewBuilder[K, V, T, R](len(toSeal))
	for _, e := range toSeal {
		builder.Push(e.k, e.v, e.t, e.d)
	}

	return builder.Done(lower, upper, nil)
}

// Frontier returns the antichain of minimal times still buffered, the
// frontier a downstream trace handle should hold while this batcher still
// has unsealed updates at or beyond it.
func (m *MergeBatcher[K, V, T, R]) Frontier() *lattice.Antichain[T] {
	result := lattice.NewAntichain[T]()

	for _, r := range m.runs {
		for _, e := range r {
			result.Insert(e.t)
		}
	}

	return result
}

// Len returns the number of tuples currently buffered.
func (m *MergeBatcher[K, V, T, R]) Len() int {
	n := 0
	for _, r := range m.runs {
		n += len(r)
	}

	return n
}
