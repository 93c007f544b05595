// Package cursor defines the ordered two-level iterator that every trace
// reader (reduce, join, query front-ends) walks: keys outer, values inner,
// and a (time, diff) stream underneath each (key, value) pair.
package cursor

// Cursor walks a batch (or a merged view of several) in sorted key order,
// then sorted value order within a key, exposing the accumulated (time,
// diff) history for each (key, value) pair. A concrete Cursor owns a
// reference to the storage it walks, so callers do not pass storage into
// every call — the cursor was built bound to one storage instance.
type Cursor[K any, V any, T any, R any] interface {
	// KeyValid reports whether the cursor is positioned at a valid key.
	KeyValid() bool
	// ValValid reports whether the cursor is positioned at a valid value
	// within the current key.
	ValValid() bool

	// Key returns the current key. Panics if !KeyValid().
	Key() K
	// Val returns the current value. Panics if !ValValid().
	Val() V

	// MapTimes visits every (time, diff) pair for the current (key, value);
	// it does not change cursor position.
	MapTimes(f func(t T, r R))

	// StepKey advances to the next key, repositioning onto its first value.
	StepKey()
	// SeekKey advances to the least key >= k.
	SeekKey(k K)

	// StepVal advances to the next value within the current key.
	StepVal()
	// SeekVal advances to the least value >= v within the current key.
	SeekVal(v V)

	// RewindKeys returns to the first key.
	RewindKeys()
	// RewindVals returns to the first value of the current key.
	RewindVals()
}
