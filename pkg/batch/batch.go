package batch

import (
	"cmp"

	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

// Batch is an immutable collection of (key, value, time, diff) tuples,
// sorted lexicographically and stored as two nested ordered layers (keys
// over values, values over a time/diff leaf) flattened into parallel slices
// — a CSR-style encoding of an ordered trie of keys over values over
// (time, diff) leaves. Flattening avoids a recursive generic layer
// hierarchy, which Go's type system expresses awkwardly; the merge and
// search algorithms below are the same ones that hierarchy would run.
//
// Invariants: keys is strictly increasing; for each key i, vals[keyOffs[i]:
// keyOffs[i+1]] is strictly increasing; for each value j, times[valOffs[j]:
// valOffs[j+1]] holds distinct times with no zero diff, in increasing order
// when T is totally ordered (incomparable times of a partially ordered T
// have no defined relative order).
type Batch[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	keys    []K
	keyOffs []int
	vals    []V
	valOffs []int
	times   []T
	diffs   []R

	desc Description[T]
}

// Len returns the total number of (k,v,t,d) tuples in the batch.
func (b *Batch[K, V, T, R]) Len() int {
	return len(b.times)
}

// NumKeys returns the number of distinct keys in the batch.
func (b *Batch[K, V, T, R]) NumKeys() int {
	return len(b.keys)
}

// Description returns the batch's logical extent.
func (b *Batch[K, V, T, R]) Description() Description[T] {
	return b.desc
}

func (b *Batch[K, V, T, R]) Lower() *lattice.Antichain[T] { return b.desc.Lower }
func (b *Batch[K, V, T, R]) Upper() *lattice.Antichain[T] { return b.desc.Upper }
func (b *Batch[K, V, T, R]) Since() *lattice.Antichain[T] { return b.desc.Since }

// IsEmpty reports whether the batch has no tuples. An empty batch still
// carries a meaningful Description: the time range it covers keeps a
// trace's batch boundaries contiguous.
func (b *Batch[K, V, T, R]) IsEmpty() bool {
	return len(b.times) == 0
}

// keyBounds returns the [lo, hi) range into vals for key index i.
func (b *Batch[K, V, T, R]) keyBounds(i int) (int, int) {
	return b.keyOffs[i], b.keyOffs[i+1]
}

// valBounds returns the [lo, hi) range into times/diffs for value index j.
func (b *Batch[K, V, T, R]) valBounds(j int) (int, int) {
	return b.valOffs[j], b.valOffs[j+1]
}

// Advance reports the number of leading elements of slice for which less
// holds, assuming less is monotone (true elements all precede false ones).
// It probes in exponentially growing steps and then exponentially shrinking
// steps, giving O(log gap) comparisons rather than a linear scan — the
// search discipline named for batch key/value lookups.
func Advance[T any](slice []T, less func(T) bool) int {
	index := 0
	if index >= len(slice) || !less(slice[index]) {
		return index
	}

	step := 1
	for index+step < len(slice) && less(slice[index+step]) {
		index += step
		step <<= 1
	}

	for step >>= 1; step > 0; step >>= 1 {
		if index+step < len(slice) && less(slice[index+step]) {
			index += step
		}
	}

	return index + 1
}
