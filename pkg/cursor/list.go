package cursor

import "cmp"

// List merges N underlying cursors into a single sorted view, the mechanism
// a Spine uses to present its several committed batches (or a merger's two
// inputs) as one cursor. It tracks two index sets, recomputed by a linear
// scan over all cursors whenever the key or value position moves: minKey
// holds the cursors currently
// positioned at the smallest key, and minVal holds, among those, the ones
// positioned at the smallest value. Equal keys from different cursors are
// presented as one logical key whose MapTimes concatenates every tied
// cursor's times — callers that need a single accumulated diff must sum
// across the (time, diff) pairs MapTimes yields, since List does not do
// that consolidation itself.
type List[K cmp.Ordered, V cmp.Ordered, T any, R any] struct {
	cursors []Cursor[K, V, T, R]
	minKey  []int
	minVal  []int
}

// NewList builds a List over cursors, each already rewound to its first
// key.
func NewList[K cmp.Ordered, V cmp.Ordered, T any, R any](cursors []Cursor[K, V, T, R]) *List[K, V, T, R] {
	l := &List[K, V, T, R]{cursors: cursors}
	l.recomputeMinKey()

	return l
}

func (l *List[K, V, T, R]) recomputeMinKey() {
	l.minKey = l.minKey[:0]

	var (
		min   K
		found bool
	)

	for i, c := range l.cursors {
		if !c.KeyValid() {
			continue
		}

		k := c.Key()

		switch {
		case !found || k < min:
			min = k
			found = true
			l.minKey = append(l.minKey[:0], i)
		case k == min:
			l.minKey = append(l.minKey, i)
		}
	}

	l.recomputeMinVal()
}

func (l *List[K, V, T, R]) recomputeMinVal() {
	l.minVal = l.minVal[:0]

	var (
		min   V
		found bool
	)

	for _, i := range l.minKey {
		c := l.cursors[i]
		if !c.ValValid() {
			continue
		}

		v := c.Val()

		switch {
		case !found || v < min:
			min = v
			found = true
			l.minVal = append(l.minVal[:0], i)
		case v == min:
			l.minVal = append(l.minVal, i)
		}
	}
}

func (l *List[K, V, T, R]) KeyValid() bool { return len(l.minKey) > 0 }
func (l *List[K, V, T, R]) ValValid() bool { return len(l.minVal) > 0 }

func (l *List[K, V, T, R]) Key() K { return l.cursors[l.minKey[0]].Key() }
func (l *List[K, V, T, R]) Val() V { return l.cursors[l.minVal[0]].Val() }

// MapTimes concatenates the (time, diff) pairs of every cursor tied for the
// current (key, value); it does not sum across cursors.
func (l *List[K, V, T, R]) MapTimes(f func(t T, r R)) {
	for _, i := range l.minVal {
		l.cursors[i].MapTimes(f)
	}
}

func (l *List[K, V, T, R]) StepKey() {
	for _, i := range l.minKey {
		l.cursors[i].StepKey()
	}

	l.recomputeMinKey()
}

func (l *List[K, V, T, R]) SeekKey(k K) {
	for _, c := range l.cursors {
		c.SeekKey(k)
	}

	l.recomputeMinKey()
}

func (l *List[K, V, T, R]) StepVal() {
	for _, i := range l.minVal {
		l.cursors[i].StepVal()
	}

	l.recomputeMinVal()
}

func (l *List[K, V, T, R]) SeekVal(v V) {
	for _, i := range l.minKey {
		l.cursors[i].SeekVal(v)
	}

	l.recomputeMinVal()
}

func (l *List[K, V, T, R]) RewindKeys() {
	for _, c := range l.cursors {
		c.RewindKeys()
	}

	l.recomputeMinKey()
}

func (l *List[K, V, T, R]) RewindVals() {
	for _, i := range l.minKey {
		l.cursors[i].RewindVals()
	}

	l.recomputeMinVal()
}

var _ Cursor[int, int, int, int] = (*List[int, int, int, int])(nil)
