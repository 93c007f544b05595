package cursor

import "github.com/differo/differo/pkg/lattice"

// Frontier wraps an inner cursor, advancing every time it reports by since
// and suppressing any time at or beyond until. This is how a consumer reads
// a shared trace as though it had already been compacted to since, without
// requiring the trace itself to discard history other handles still need —
// the projection happens at read time instead.
type Frontier[K any, V any, T lattice.Lattice[T], R any] struct {
	inner Cursor[K, V, T, R]
	since *lattice.Antichain[T]
	until *lattice.Antichain[T] // nil means unbounded: nothing is suppressed.
}

// NewFrontier wraps inner, advancing times onto since and dropping any time
// until dominates (until may be nil for no upper bound).
func NewFrontier[K any, V any, T lattice.Lattice[T], R any](
	inner Cursor[K, V, T, R], since, until *lattice.Antichain[T],
) *Frontier[K, V, T, R] {
	return &Frontier[K, V, T, R]{inner: inner, since: since, until: until}
}

func (f *Frontier[K, V, T, R]) KeyValid() bool { return f.inner.KeyValid() }
func (f *Frontier[K, V, T, R]) ValValid() bool { return f.inner.ValValid() }
func (f *Frontier[K, V, T, R]) Key() K         { return f.inner.Key() }
func (f *Frontier[K, V, T, R]) Val() V         { return f.inner.Val() }

func (f *Frontier[K, V, T, R]) MapTimes(fn func(t T, r R)) {
	f.inner.MapTimes(func(t T, r R) {
		if f.until != nil && f.until.LessEqual(t) {
			return
		}

		if f.since != nil {
			t = lattice.AdvanceBy(t, f.since.Elements())
		}

		fn(t, r)
	})
}

func (f *Frontier[K, V, T, R]) StepKey()    { f.inner.StepKey() }
func (f *Frontier[K, V, T, R]) SeekKey(k K) { f.inner.SeekKey(k) }
func (f *Frontier[K, V, T, R]) StepVal()    { f.inner.StepVal() }
func (f *Frontier[K, V, T, R]) SeekVal(v V) { f.inner.SeekVal(v) }
func (f *Frontier[K, V, T, R]) RewindKeys() { f.inner.RewindKeys() }
func (f *Frontier[K, V, T, R]) RewindVals() { f.inner.RewindVals() }

var _ Cursor[int, int, lattice.Time, int] = (*Frontier[int, int, lattice.Time, int])(nil)
