package batch

import (
	"cmp"

	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

// Merger incrementally merges two adjacent batches (a.Upper == b.Lower)
// into one, bounded by a caller-supplied fuel budget per Work call so a
// Spine can interleave merging with accepting new batches rather than
// blocking on one large merge. If compact is non-nil, every output time is
// advanced onto it during the merge and any resulting zero-diff tuple is
// dropped — this is how logical compaction is actually applied to stored
// data.
type Merger[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	a, b    *Cursor[K, V, T, R]
	builder *Builder[K, V, T, R]
	compact *lattice.Antichain[T]

	lower, upper, since *lattice.Antichain[T]

	finished bool
}

// NewMerger begins merging a and b. Panics if the batches are not adjacent,
// per the core's failure semantics for merging non-adjacent batches.
func NewMerger[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](
	a, b *Batch[K, V, T, R], compact *lattice.Antichain[T],
) *Merger[K, V, T, R] {
	if !Adjacent(a.desc, b.desc) {
		panic("batch: Merger requires adjacent batches (a.Upper must equal b.Lower)")
	}

	since := a.desc.Since.Join(b.desc.Since)
	if compact != nil {
		since = compact.Clone()
	}

	return &Merger[K, V, T, R]{
		a:       a.NewCursor(),
		b:       b.NewCursor(),
		builder: NewBuilder[K, V, T, R](a.Len() + b.Len()),
		compact: compact,
		lower:   a.desc.Lower,
		upper:   b.desc.Upper,
		since:   since,
	}
}

// Finished reports whether the merge has consumed both inputs entirely.
func (m *Merger[K, V, T, R]) Finished() bool {
	return m.finished
}

// Work performs merge steps until fuel is exhausted or the merge finishes,
// decrementing *fuel by the amount of work performed (one unit per key
// visited). It is safe to call repeatedly across scheduling rounds.
func (m *Merger[K, V, T, R]) Work(fuel *int) {
	for *fuel > 0 && !m.finished {
		aValid, bValid := m.a.KeyValid(), m.b.KeyValid()

		switch {
		case !aValid && !bValid:
			m.finished = true

		case !aValid:
			m.copyKey(m.b)
			*fuel--

		case !bValid:
			m.copyKey(m.a)
			*fuel--

		case m.a.Key() < m.b.Key():
			m.copyKey(m.a)
			*fuel--

		case m.b.Key() < m.a.Key():
			m.copyKey(m.b)
			*fuel--

		default:
			m.mergeKey()
			*fuel--
		}
	}
}

// copyKey copies every (value, time, diff) of c's current key into the
// builder, advancing compaction on each time, then steps c past the key.
func (m *Merger[K, V, T, R]) copyKey(c *Cursor[K, V, T, R]) {
	k := c.Key()

	for c.ValValid() {
		v := c.Val()
		c.MapTimes(func(t T, d R) {
			m.pushCompacted(k, v, t, d)
		})
		c.StepVal()
	}

	c.StepKey()
}

// mergeKey merges the current (equal) key from both cursors, walking their
// value streams together and summing diffs at equal (value, compacted
// time), then steps both cursors past the key.
func (m *Merger[K, V, T, R]) mergeKey() {
	k := m.a.Key()

	for m.a.ValValid() || m.b.ValValid() {
		switch {
		case !m.a.ValValid():
			v := m.b.Val()
			m.b.MapTimes(func(t T, d R) { m.pushCompacted(k, v, t, d) })
			m.b.StepVal()

		case !m.b.ValValid():
			v := m.a.Val()
			m.a.MapTimes(func(t T, d R) { m.pushCompacted(k, v, t, d) })
			m.a.StepVal()

		case m.a.Val() < m.b.Val():
			v := m.a.Val()
			m.a.MapTimes(func(t T, d R) { m.pushCompacted(k, v, t, d) })
			m.a.StepVal()

		case m.b.Val() < m.a.Val():
			v := m.b.Val()
			m.b.MapTimes(func(t T, d R) { m.pushCompacted(k, v, t, d) })
			m.b.StepVal()

		default:
			v := m.a.Val()

			type entry struct {
				t T
				d R
			}

			var entries []entry

			m.a.MapTimes(func(t T, d R) { entries = append(entries, entry{t, d}) })
			m.b.MapTimes(func(t T, d R) { entries = append(entries, entry{t, d}) })

			for _, e := range entries {
				m.pushCompacted(k, v, e.t, e.d)
			}

			m.a.StepVal()
			m.b.StepVal()
		}
	}

	m.a.StepKey()
	m.b.StepKey()
}

func (m *Merger[K, V, T, R]) pushCompacted(k K, v V, t T, d R) {
	if m.compact != nil {
		t = lattice.AdvanceBy(t, m.compact.Elements())
	}

	m.builder.Push(k, v, t, d)
}

// Done finalizes the merge into the resulting Batch. Callers MUST only call
// Done once Finished reports true.
func (m *Merger[K, V, T, R]) Done() *Batch[K, V, T, R] {
	return m.builder.Done(m.lower, m.upper, m.since)
}
