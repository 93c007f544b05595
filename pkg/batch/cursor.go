package batch

import (
	"cmp"

	"github.com/differo/differo/pkg/cursor"
)

// Cursor walks a single Batch in key/value/time order, implementing
// pkg/cursor.Cursor. Key and value lookups use exponential search via
// Advance, giving O(log gap) positioning from the cursor's current spot
// rather than a binary search from the slice bounds every time.
type Cursor[K cmp.Ordered, V cmp.Ordered, T any, R any] struct {
	b *Batch[K, V, T, R]

	keyLo, keyHi int
	keyPos       int

	valLo, valHi int
	valPos       int
}

// NewCursor returns a cursor positioned at the first key (and its first
// value) of b.
func (b *Batch[K, V, T, R]) NewCursor() *Cursor[K, V, T, R] {
	c := &Cursor[K, V, T, R]{b: b, keyLo: 0, keyHi: len(b.keys)}
	c.RewindKeys()

	return c
}

func (c *Cursor[K, V, T, R]) repositionVals() {
	if c.keyPos < c.keyHi {
		c.valLo, c.valHi = c.b.keyBounds(c.keyPos)
	} else {
		c.valLo, c.valHi = 0, 0
	}

	c.valPos = c.valLo
}

func (c *Cursor[K, V, T, R]) KeyValid() bool { return c.keyPos < c.keyHi }
func (c *Cursor[K, V, T, R]) ValValid() bool { return c.valPos < c.valHi }

func (c *Cursor[K, V, T, R]) Key() K {
	return c.b.keys[c.keyPos]
}

func (c *Cursor[K, V, T, R]) Val() V {
	return c.b.vals[c.valPos]
}

// MapTimes visits every (time, diff) for the current (key, value) pair.
func (c *Cursor[K, V, T, R]) MapTimes(f func(t T, r R)) {
	if !c.ValValid() {
		return
	}

	lo, hi := c.b.valBounds(c.valPos)
	for i := lo; i < hi; i++ {
		f(c.b.times[i], c.b.diffs[i])
	}
}

func (c *Cursor[K, V, T, R]) StepKey() {
	c.keyPos++
	c.repositionVals()
}

func (c *Cursor[K, V, T, R]) SeekKey(k K) {
	c.keyPos += Advance(c.b.keys[c.keyPos:c.keyHi], func(x K) bool { return x < k })
	c.repositionVals()
}

func (c *Cursor[K, V, T, R]) StepVal() {
	c.valPos++
}

func (c *Cursor[K, V, T, R]) SeekVal(v V) {
	c.valPos += Advance(c.b.vals[c.valPos:c.valHi], func(x V) bool { return x < v })
}

func (c *Cursor[K, V, T, R]) RewindKeys() {
	c.keyPos = c.keyLo
	c.repositionVals()
}

func (c *Cursor[K, V, T, R]) RewindVals() {
	c.valPos = c.valLo
}

var _ cursor.Cursor[int, int, int, int] = (*Cursor[int, int, int, int])(nil)
