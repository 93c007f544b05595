// Package join implements the half-join primitive and its composition into
// a full binary join over two arranged inputs.
package join

import (
	"cmp"
	"slices"

	"github.com/differo/differo/pkg/cursor"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

// Update is one ((key, value), time, diff) change driving a half-join.
type Update[K any, V any, T any, R any] struct {
	Key  K
	Val  V
	Time T
	Diff R
}

// Result is one output tuple a half-join or full join emits.
type Result[D any, T any, R any] struct {
	Data D
	Time T
	Diff R
}

// HalfJoin consumes deltaA — a batch of changes to one input — and, for
// each one, walks an arranged cursor into the other input b at the
// matching key, emitting one result per (vB, tB, rB) for which order(tA,
// tB) holds. order is the asymmetric half of the pairing rule Join uses to
// count each concurrent pair of changes exactly once.
func HalfJoin[K cmp.Ordered, VA any, VB cmp.Ordered, T any, RA difference.Semigroup[RA], RB difference.Semigroup[RB], D any, R any](
	deltaA []Update[K, VA, T, RA],
	b cursor.Cursor[K, VB, T, RB],
	order func(tA, tB T) bool,
	closure func(tA, tB T) T,
	combine func(rA RA, rB RB) R,
	result func(k K, vA VA, vB VB) D,
) []Result[D, T, R] {
	sorted := append([]Update[K, VA, T, RA](nil), deltaA...)
	slices.SortStableFunc(sorted, func(x, y Update[K, VA, T, RA]) int { return cmp.Compare(x.Key, y.Key) })

	var out []Result[D, T, R]

	i := 0
	for i < len(sorted) {
		k := sorted[i].Key

		j := i
		for j < len(sorted) && sorted[j].Key == k {
			j++
		}

		b.SeekKey(k)

		if b.KeyValid() && b.Key() == k {
			for _, upd := range sorted[i:j] {
				b.RewindVals()

				for b.ValValid() {
					vB := b.Val()
					b.MapTimes(func(tB T, rB RB) {
						if order(upd.Time, tB) {
							out = append(out, Result[D, T, R]{
								Data: result(k, upd.Val, vB),
								Time: closure(upd.Time, tB),
								Diff: combine(upd.Diff, rB),
							})
						}
					})
					b.StepVal()
				}
			}
		}

		i = j
	}

	return out
}

// Join composes two complementary half-joins so each concurrent pair of
// changes across both inputs contributes exactly once: deltaA's half-join
// uses a non-strict comparator (tA <= tB) against B's arrangement, and
// deltaB's half-join uses a strict comparator (tB < tA) against A's
// arrangement.
func Join[K cmp.Ordered, VA cmp.Ordered, VB cmp.Ordered, T lattice.Lattice[T], RA difference.Semigroup[RA], RB difference.Semigroup[RB], D any, R any](
	deltaA []Update[K, VA, T, RA],
	deltaB []Update[K, VB, T, RB],
	arrangedB cursor.Cursor[K, VB, T, RB],
	arrangedA cursor.Cursor[K, VA, T, RA],
	combine func(RA, RB) R,
	result func(K, VA, VB) D,
) []Result[D, T, R] {
	nonStrict := func(tA, tB T) bool { return tA.LessEqual(tB) }
	strict := func(tB, tA T) bool { return tB.LessEqual(tA) && tB != tA }
	joinTime := func(a, b T) T { return a.Join(b) }

	fromA := HalfJoin(deltaA, arrangedB, nonStrict, joinTime, combine, result)

	fromB := HalfJoin(deltaB, arrangedA, strict, joinTime,
		func(rB RB, rA RA) R { return combine(rA, rB) },
		func(k K, vB VB, vA VA) D { return result(k, vA, vB) },
	)

	return append(fromA, fromB...)
}

// SemiJoin filters deltaA to only the keys present in arrangedB, combining
// diffs via combine but discarding B's value — a thin wrapper over
// HalfJoin's non-strict comparator.
func SemiJoin[K cmp.Ordered, VA any, VB cmp.Ordered, T lattice.Lattice[T], RA difference.Semigroup[RA], RB difference.Semigroup[RB], R any](
	deltaA []Update[K, VA, T, RA],
	arrangedB cursor.Cursor[K, VB, T, RB],
	combine func(RA, RB) R,
) []Result[VA, T, R] {
	return HalfJoin(deltaA, arrangedB,
		func(tA, tB T) bool { return tA.LessEqual(tB) },
		func(a, b T) T { return a.Join(b) },
		combine,
		func(_ K, vA VA, _ VB) VA { return vA },
	)
}
