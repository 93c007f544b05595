package cursor

// Filter wraps an inner cursor, suppressing MapTimes emission for (key,
// value) pairs that fail pred while still traversing them at the key/value
// level — skipping the traversal itself would desynchronize a List merging
// this cursor against others that have no such filter.
type Filter[K any, V any, T any, R any] struct {
	inner Cursor[K, V, T, R]
	pred  func(k K, v V) bool
}

// NewFilter wraps inner, keeping only (key, value) pairs for which pred
// returns true.
func NewFilter[K any, V any, T any, R any](inner Cursor[K, V, T, R], pred func(K, V) bool) *Filter[K, V, T, R] {
	return &Filter[K, V, T, R]{inner: inner, pred: pred}
}

func (f *Filter[K, V, T, R]) KeyValid() bool { return f.inner.KeyValid() }
func (f *Filter[K, V, T, R]) ValValid() bool { return f.inner.ValValid() }
func (f *Filter[K, V, T, R]) Key() K         { return f.inner.Key() }
func (f *Filter[K, V, T, R]) Val() V         { return f.inner.Val() }

func (f *Filter[K, V, T, R]) MapTimes(fn func(t T, r R)) {
	if !f.inner.KeyValid() || !f.inner.ValValid() {
		return
	}

	if !f.pred(f.inner.Key(), f.inner.Val()) {
		return
	}

	f.inner.MapTimes(fn)
}

func (f *Filter[K, V, T, R]) StepKey()    { f.inner.StepKey() }
func (f *Filter[K, V, T, R]) SeekKey(k K) { f.inner.SeekKey(k) }
func (f *Filter[K, V, T, R]) StepVal()    { f.inner.StepVal() }
func (f *Filter[K, V, T, R]) SeekVal(v V) { f.inner.SeekVal(v) }
func (f *Filter[K, V, T, R]) RewindKeys() { f.inner.RewindKeys() }
func (f *Filter[K, V, T, R]) RewindVals() { f.inner.RewindVals() }

var _ Cursor[int, int, int, int] = (*Filter[int, int, int, int])(nil)
