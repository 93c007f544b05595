package batch

import (
	"cmp"

	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

// Builder assembles a Batch from tuples presented in sorted (key, value,
// time) order — the shape produced by a Batcher's seal step or a Merger's
// output. Consecutive pushes sharing a (key, value, time) triple have their
// diffs summed; any (key, value, time) entry whose final diff is zero is
// dropped, and a value or key group that ends up with no surviving entries
// is dropped in turn, so the built batch never stores a cancelled update.
type Builder[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	keys    []K
	keyOffs []int
	vals    []V
	valOffs []int
	times   []T
	diffs   []R

	keyOpen bool
	valOpen bool
}

// NewBuilder creates an empty Builder, optionally pre-sizing for cap tuples.
func NewBuilder[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](cap int) *Builder[K, V, T, R] {
	return &Builder[K, V, T, R]{
		keyOffs: append(make([]int, 0, cap+1), 0),
		valOffs: append(make([]int, 0, cap+1), 0),
		keys:    make([]K, 0, cap),
		vals:    make([]V, 0, cap),
		times:   make([]T, 0, cap),
		diffs:   make([]R, 0, cap),
	}
}

// Push appends one (key, value, time, diff) tuple. Tuples MUST arrive in
// non-decreasing (key, value, time) order.
func (bld *Builder[K, V, T, R]) Push(k K, v V, t T, d R) {
	sameKey := bld.keyOpen && bld.keys[len(bld.keys)-1] == k
	sameVal := sameKey && bld.valOpen && bld.vals[len(bld.vals)-1] == v
	sameTime := sameVal && len(bld.times) > 0 && bld.times[len(bld.times)-1] == t

	switch {
	case sameTime:
		bld.diffs[len(bld.diffs)-1] = bld.diffs[len(bld.diffs)-1].Add(d)

	case sameVal:
		bld.closeTime()
		bld.times = append(bld.times, t)
		bld.diffs = append(bld.diffs, d)

	default:
		bld.closeTime()

		if bld.valOpen {
			bld.closeVal()
		}

		if !sameKey {
			if bld.keyOpen {
				bld.closeKey()
			}

			bld.keys = append(bld.keys, k)
			bld.keyOpen = true
		}

		bld.vals = append(bld.vals, v)
		bld.valOpen = true
		bld.times = append(bld.times, t)
		bld.diffs = append(bld.diffs, d)
	}
}

// closeTime drops the most recently pushed (k,v,t) entry if its accumulated
// diff turned out to be zero.
func (bld *Builder[K, V, T, R]) closeTime() {
	n := len(bld.diffs)
	if n == 0 {
		return
	}

	if bld.diffs[n-1].IsZero() {
		bld.times = bld.times[:n-1]
		bld.diffs = bld.diffs[:n-1]
	}
}

// closeVal finalizes the open value group, dropping it entirely if every
// time entry within it cancelled to zero.
func (bld *Builder[K, V, T, R]) closeVal() {
	prev := bld.valOffs[len(bld.valOffs)-1]
	end := len(bld.times)

	if end == prev {
		bld.vals = bld.vals[:len(bld.vals)-1]
	} else {
		bld.valOffs = append(bld.valOffs, end)
	}

	bld.valOpen = false
}

// closeKey finalizes the open key group, dropping it entirely if every
// value within it was dropped.
func (bld *Builder[K, V, T, R]) closeKey() {
	prev := bld.keyOffs[len(bld.keyOffs)-1]
	end := len(bld.vals)

	if end == prev {
		bld.keys = bld.keys[:len(bld.keys)-1]
	} else {
		bld.keyOffs = append(bld.keyOffs, end)
	}

	bld.keyOpen = false
}

// Done finalizes the builder into an immutable Batch over [lower, upper)
// compacted to since.
func (bld *Builder[K, V, T, R]) Done(lower, upper, since *lattice.Antichain[T]) *Batch[K, V, T, R] {
	bld.closeTime()

	if bld.valOpen {
		bld.closeVal()
	}

	if bld.keyOpen {
		bld.closeKey()
	}

	return &Batch[K, V, T, R]{
		keys:    bld.keys,
		keyOffs: bld.keyOffs,
		vals:    bld.vals,
		valOffs: bld.valOffs,
		times:   bld.times,
		diffs:   bld.diffs,
		desc:    NewDescription(lower, upper, since),
	}
}
