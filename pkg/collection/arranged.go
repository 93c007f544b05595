package collection

import (
	"cmp"

	"github.com/differo/differo/pkg/arrange"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/join"
	"github.com/differo/differo/pkg/lattice"
	"github.com/differo/differo/pkg/reduce"
	"github.com/differo/differo/pkg/scope"
)

// KV is the (key, value) pair produced whenever an Arranged-level
// operation needs to reattach its key to a collection's data shape.
type KV[K any, V any] struct {
	Key K
	Val V
}

// ArrangeByKey materializes c into a freshly built Arrangement keyed by
// keyVal, draining every update through a single pkg/arrange.Arrange
// operator run to completion — the collection-level entry point into the
// trace/batch/cursor machinery.
func ArrangeByKey[D any, K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](
	c *Collection[D, T, R], keyVal func(D) (K, V), minimum, done T,
) *arrange.Arrangement[K, V, T, R] {
	in := scope.NewStream[arrange.Entry[K, V], T, R](len(c.Updates)+1, minimum)
	op := arrange.New[K, V, T, R](in, minimum, len(c.Updates)/4+1)

	for _, u := range c.Updates {
		k, v := keyVal(u.Data)
		in.Send(scope.Update[arrange.Entry[K, V], T, R]{
			Data: arrange.Entry[K, V]{Key: k, Val: v}, Time: u.Time, Diff: u.Diff,
		})
	}

	in.Close()
	in.SetFrontier(lattice.NewAntichain(done))
	op.Activate()

	return op.Arrangement()
}

// ArrangeBySelf arranges c keyed by its own data, with a Unit value — the
// shape Distinct and SemiJoin want when there is no separate value to
// carry.
func ArrangeBySelf[D cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](
	c *Collection[D, T, R], minimum, done T,
) *arrange.Arrangement[D, arrange.Unit, T, R] {
	return ArrangeByKey[D, D, arrange.Unit, T, R](c, func(d D) (D, arrange.Unit) { return d, 0 }, minimum, done)
}

// Consolidate reduces c to its zero-free form: one update per (data, time)
// with the summed diff, cancelled groups dropped. It routes through a
// self-keyed arrangement and reads the accumulated batches back out — the
// same indexing path every operator consumes, with the batch builder doing
// the sorting, summing, and zero elimination. minimum and done bracket the
// collection's times the way ArrangeByKey's arguments do.
func Consolidate[D cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](
	c *Collection[D, T, R], minimum, done T,
) *Collection[D, T, R] {
	arranged := ArrangeBySelf(c, minimum, done)
	defer arranged.Drop()

	return AsCollection(arranged, func(d D, _ arrange.Unit) D { return d })
}

// AsCollection flattens an arrangement's current contents back into a
// Collection via project.
func AsCollection[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R], D any](
	a *arrange.Arrangement[K, V, T, R], project func(K, V) D,
) *Collection[D, T, R] {
	var out []Update[D, T, R]

	c := a.Cursor()
	for c.KeyValid() {
		k := c.Key()

		for c.ValValid() {
			v := c.Val()

			c.MapTimes(func(t T, r R) {
				if !r.IsZero() {
					out = append(out, Update[D, T, R]{Data: project(k, v), Time: t, Diff: r})
				}
			})
			c.StepVal()
		}

		c.StepKey()
	}

	return &Collection[D, T, R]{Updates: out}
}

// ReduceCore drives pkg/reduce's interesting-times algorithm over a's
// current contents and returns every emitted (key, value) delta.
func ReduceCore[K comparable, V cmp.Ordered, T lattice.Lattice[T], R difference.Abelian[R], V2 cmp.Ordered, R2 difference.Abelian[R2]](
	a *arrange.Arrangement[K, V, T, R], logic reduce.Logic[K, V, R, V2, R2],
) *Collection[KV[K, V2], T, R2] {
	r := reduce.New[K, V, T, R, V2, R2](logic)
	updates := r.Run(a.Cursor())

	out := make([]Update[KV[K, V2], T, R2], len(updates))
	for i, u := range updates {
		out[i] = Update[KV[K, V2], T, R2]{Data: KV[K, V2]{Key: u.Key, Val: u.Val}, Time: u.Time, Diff: u.Diff}
	}

	return &Collection[KV[K, V2], T, R2]{Updates: out}
}

// Threshold keeps, per key, exactly the values v whose accumulated diff
// satisfies keep, emitting a unit +1 for each surviving value.
func Threshold[K comparable, V cmp.Ordered, T lattice.Lattice[T], R difference.Abelian[R]](
	a *arrange.Arrangement[K, V, T, R], keep func(v V, accumulated R) bool,
) *Collection[KV[K, V], T, difference.Int64] {
	logic := func(_ K, input []reduce.Entry[V, R]) []reduce.Entry[V, difference.Int64] {
		sums := map[V]R{}

		var order []V

		for _, e := range input {
			if cur, ok := sums[e.Val]; ok {
				sums[e.Val] = cur.Add(e.Diff)
			} else {
				sums[e.Val] = e.Diff
				order = append(order, e.Val)
			}
		}

		var out []reduce.Entry[V, difference.Int64]

		for _, v := range order {
			d := sums[v]
			if !d.IsZero() && keep(v, d) {
				out = append(out, reduce.Entry[V, difference.Int64]{Val: v, Diff: 1})
			}
		}

		return out
	}

	return ReduceCore[K, V, T, R, V, difference.Int64](a, logic)
}

// Distinct keeps, per key, every value with a non-zero accumulated diff —
// the set-semantics reduction.
func Distinct[K comparable, V cmp.Ordered, T lattice.Lattice[T], R difference.Abelian[R]](
	a *arrange.Arrangement[K, V, T, R],
) *Collection[KV[K, V], T, difference.Int64] {
	return Threshold[K, V, T, R](a, func(V, R) bool { return true })
}

// Count emits, per key, the total accumulated diff across its values.
func Count[K comparable, V cmp.Ordered, T lattice.Lattice[T]](
	a *arrange.Arrangement[K, V, T, difference.Int64],
) *Collection[KV[K, difference.Int64], T, difference.Int64] {
	logic := func(_ K, input []reduce.Entry[V, difference.Int64]) []reduce.Entry[difference.Int64, difference.Int64] {
		var total difference.Int64

		for _, e := range input {
			total = total.Add(e.Diff)
		}

		if total.IsZero() {
			return nil
		}

		return []reduce.Entry[difference.Int64, difference.Int64]{{Val: total, Diff: 1}}
	}

	return ReduceCore[K, V, T, difference.Int64, difference.Int64, difference.Int64](a, logic)
}

func cursorUpdates[K any, V any, T any, R any](c interface {
	KeyValid() bool
	ValValid() bool
	Key() K
	Val() V
	MapTimes(func(T, R))
	StepKey()
	StepVal()
},
) []join.Update[K, V, T, R] {
	var out []join.Update[K, V, T, R]

	for c.KeyValid() {
		k := c.Key()

		for c.ValValid() {
			v := c.Val()

			c.MapTimes(func(t T, r R) {
				out = append(out, join.Update[K, V, T, R]{Key: k, Val: v, Time: t, Diff: r})
			})
			c.StepVal()
		}

		c.StepKey()
	}

	return out
}

// JoinCore joins two arrangements sharing a key type, emitting result(k,
// vA, vB) at combine(rA, rB) for every concurrent pair — the collection
// entry point into pkg/join.Join, composing two complementary half-joins
// so each pair is counted exactly once.
func JoinCore[K cmp.Ordered, VA cmp.Ordered, VB cmp.Ordered, T lattice.Lattice[T], RA difference.Semigroup[RA], RB difference.Semigroup[RB], D any, R any](
	a *arrange.Arrangement[K, VA, T, RA], b *arrange.Arrangement[K, VB, T, RB],
	combine func(RA, RB) R, result func(K, VA, VB) D,
) *Collection[D, T, R] {
	deltaA := cursorUpdates[K, VA, T, RA](a.Cursor())
	deltaB := cursorUpdates[K, VB, T, RB](b.Cursor())

	results := join.Join(deltaA, deltaB, b.Cursor(), a.Cursor(), combine, result)

	out := make([]Update[D, T, R], len(results))
	for i, r := range results {
		out[i] = Update[D, T, R]{Data: r.Data, Time: r.Time, Diff: r.Diff}
	}

	return &Collection[D, T, R]{Updates: out}
}

// JoinMap is JoinCore with the combine step fixed to the natural product of
// two Int64 multiplicities, leaving only the result projection to specify —
// the common case where diffs are plain counts.
func JoinMap[K cmp.Ordered, VA cmp.Ordered, VB cmp.Ordered, T lattice.Lattice[T], D any](
	a *arrange.Arrangement[K, VA, T, difference.Int64], b *arrange.Arrangement[K, VB, T, difference.Int64],
	result func(K, VA, VB) D,
) *Collection[D, T, difference.Int64] {
	return JoinCore[K, VA, VB, T, difference.Int64, difference.Int64, D, difference.Int64](
		a, b, func(rA, rB difference.Int64) difference.Int64 { return rA * rB }, result,
	)
}

// SemiJoin filters a against the keys present in b, scaling diffs via
// combine but discarding b's value. Unlike pkg/join.SemiJoin (whose
// result type carries values only), this keeps the key attached so
// callers get back a proper (key, value) pair.
func SemiJoin[K cmp.Ordered, VA any, VB cmp.Ordered, T lattice.Lattice[T], RA difference.Semigroup[RA], RB difference.Semigroup[RB], R any](
	a *arrange.Arrangement[K, VA, T, RA], b *arrange.Arrangement[K, VB, T, RB], combine func(RA, RB) R,
) *Collection[KV[K, VA], T, R] {
	deltaA := cursorUpdates[K, VA, T, RA](a.Cursor())

	results := join.HalfJoin(deltaA, b.Cursor(),
		func(T, T) bool { return true },
		func(x, y T) T { return x.Join(y) },
		combine,
		func(k K, vA VA, _ VB) KV[K, VA] { return KV[K, VA]{Key: k, Val: vA} },
	)

	out := make([]Update[KV[K, VA], T, R], len(results))
	for i, r := range results {
		out[i] = Update[KV[K, VA], T, R]{Data: r.Data, Time: r.Time, Diff: r.Diff}
	}

	return &Collection[KV[K, VA], T, R]{Updates: out}
}
