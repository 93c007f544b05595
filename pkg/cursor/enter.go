package cursor

import "github.com/differo/differo/pkg/lattice"

// Enter lifts an inner cursor's flat timestamps into a Product timestamp
// pairing the outer time with an inner time computed by logic — the
// mechanism a nested (iterative) scope uses to read an outer-scope
// arrangement as though it already lived at the inner scope's timestamp
// type. logic is typically a constant-zero inner time for data entering a
// fresh iteration.
type Enter[K any, V any, T lattice.Lattice[T], TInner lattice.Lattice[TInner], R any] struct {
	inner Cursor[K, V, T, R]
	logic func(k K, v V, t T) TInner
}

// NewEnter wraps inner, pairing every time t it reports with logic(k, v, t).
func NewEnter[K any, V any, T lattice.Lattice[T], TInner lattice.Lattice[TInner], R any](
	inner Cursor[K, V, T, R], logic func(K, V, T) TInner,
) *Enter[K, V, T, TInner, R] {
	return &Enter[K, V, T, TInner, R]{inner: inner, logic: logic}
}

func (e *Enter[K, V, T, TInner, R]) KeyValid() bool { return e.inner.KeyValid() }
func (e *Enter[K, V, T, TInner, R]) ValValid() bool { return e.inner.ValValid() }
func (e *Enter[K, V, T, TInner, R]) Key() K         { return e.inner.Key() }
func (e *Enter[K, V, T, TInner, R]) Val() V         { return e.inner.Val() }

func (e *Enter[K, V, T, TInner, R]) MapTimes(fn func(t lattice.Product[T, TInner], r R)) {
	if !e.inner.KeyValid() || !e.inner.ValValid() {
		return
	}

	k, v := e.inner.Key(), e.inner.Val()

	e.inner.MapTimes(func(t T, r R) {
		fn(lattice.NewProduct(t, e.logic(k, v, t)), r)
	})
}

func (e *Enter[K, V, T, TInner, R]) StepKey()    { e.inner.StepKey() }
func (e *Enter[K, V, T, TInner, R]) SeekKey(k K) { e.inner.SeekKey(k) }
func (e *Enter[K, V, T, TInner, R]) StepVal()    { e.inner.StepVal() }
func (e *Enter[K, V, T, TInner, R]) SeekVal(v V) { e.inner.SeekVal(v) }
func (e *Enter[K, V, T, TInner, R]) RewindKeys() { e.inner.RewindKeys() }
func (e *Enter[K, V, T, TInner, R]) RewindVals() { e.inner.RewindVals() }

// Prior computes the inverse projection used when translating an outer
// frontier into the inner scope: the least outer time whose Enter-lifted
// product could still be in the future of an inner-scope time t: the
// outer component of t.
func Prior[T lattice.Lattice[T], TInner lattice.Lattice[TInner]](t lattice.Product[T, TInner]) T {
	return t.Outer
}
