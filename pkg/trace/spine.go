// Package trace implements the Spine: the geometrically-sized chain of
// merge slots a trace uses to hold its committed batches, fusing adjacent
// batches under a fuel budget so the number of live batches stays
// logarithmic in the number ever inserted, plus the Box/Handle pair
// that lets several consumers share one Spine without one handle's
// outstanding cursor being invalidated by another's compaction.
package trace

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/differo/differo/pkg/batch"
	"github.com/differo/differo/pkg/cursor"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
	"github.com/differo/differo/pkg/mathutil"
)

// MergeRecorder observes a spine's insert/merge activity. It is satisfied
// by *observability.SpineMetrics without pkg/trace importing
// pkg/observability — the core stays free of an ambient-stack dependency
// while still being observable when a caller wires one in.
type MergeRecorder interface {
	RecordInsert(ctx context.Context, tupleCount int64)
	RecordMerge(ctx context.Context, fuelSpent int64, duration time.Duration, finished bool)
}

// level is one geometric merge slot: either empty, holding one settled
// batch, or holding an in-progress merger together with its two original
// inputs (kept so CursorThrough can still present an exact cut through a
// slot that hasn't finished merging).
type level[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	settled *batch.Batch[K, V, T, R]
	a, b    *batch.Batch[K, V, T, R]
	merger  *batch.Merger[K, V, T, R]
}

func (l *level[K, V, T, R]) empty() bool {
	return l.settled == nil && l.merger == nil
}

// Spine is a trace's merge structure: batches arrive only via Insert
// (always adjacent to the current upper), queue in pending until slot 0 is
// free, carry forward under a binary-counter carry discipline across slots
// sized roughly 2^i, and merge under a fuel budget proportional to the
// size of each newly arriving batch.
//
// Two rules keep every merge's operands adjacent: a pending batch enters
// slot 0 only when no merge is running there, and a finished merge's
// result stays settled in its own slot while the slot above is busy. A
// batch therefore never passes a slot whose merge has not finished, so
// slot contents read oldest-at-the-top, newest-at-the-bottom, with the
// pending queue newest of all.
type Spine[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	levels  []level[K, V, T, R]
	pending []*batch.Batch[K, V, T, R]

	lower *lattice.Antichain[T]
	upper *lattice.Antichain[T]

	logicalCompaction  *lattice.Antichain[T]
	physicalCompaction *lattice.Antichain[T]

	// FuelRatio scales the work budget given to every active merger on each
	// Insert, proportional to the size of the newly arriving batch. The
	// default of 4 keeps every merge finishing ahead of the next carry into
	// its slot, so the pending queue stays empty in the steady state; at 2
	// merges only just keep pace and batches back up behind slot 0.
	FuelRatio int

	// Metrics, when set, observes every Insert and merger Work call. Nil by
	// default: the spine itself has no opinion on telemetry.
	Metrics MergeRecorder
}

// New creates an empty Spine.
func New[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]]() *Spine[K, V, T, R] {
	return &Spine[K, V, T, R]{FuelRatio: 4}
}

// Lower returns the trace's earliest recorded time.
func (s *Spine[K, V, T, R]) Lower() *lattice.Antichain[T] { return s.lower }

// Upper returns the trace's current frontier: every batch inserted so far
// covers strictly less than this.
func (s *Spine[K, V, T, R]) Upper() *lattice.Antichain[T] { return s.upper }

func (s *Spine[K, V, T, R]) LogicalCompaction() *lattice.Antichain[T]  { return s.logicalCompaction }
func (s *Spine[K, V, T, R]) PhysicalCompaction() *lattice.Antichain[T] { return s.physicalCompaction }

// SetLogicalCompaction declares that no reader will ever require times
// behind f again, letting merges advance stored times onto f. f must
// dominate whatever logical compaction frontier is already in effect;
// violating that panics, since a downgrade here would retroactively
// invalidate accumulations a reader already computed.
func (s *Spine[K, V, T, R]) SetLogicalCompaction(f *lattice.Antichain[T]) {
	if s.logicalCompaction != nil && !s.logicalCompaction.LessEqualChain(f) {
		panic(fmt.Errorf("%w: logical", ErrNonMonotoneCompaction))
	}

	s.logicalCompaction = f
}

// SetPhysicalCompaction declares that no cursor will be requested through
// any point not at or beyond f. Recorded for consumers (pkg/arrange, in
// particular) to coordinate cursor cuts against; must advance monotonically
// like SetLogicalCompaction.
func (s *Spine[K, V, T, R]) SetPhysicalCompaction(f *lattice.Antichain[T]) {
	if s.physicalCompaction != nil && !s.physicalCompaction.LessEqualChain(f) {
		panic(fmt.Errorf("%w: physical", ErrNonMonotoneCompaction))
	}

	s.physicalCompaction = f
}

// Insert appends b, which must be adjacent to the trace's current upper.
// Before placing b, every active merger is given fuel proportional to b's
// size, so merges started by earlier inserts keep making progress without
// ever blocking this call on a single large merge — work per tuple stays
// amortized logarithmic in the trace size.
func (s *Spine[K, V, T, R]) Insert(b *batch.Batch[K, V, T, R]) {
	if s.upper != nil && !s.upper.Equal(b.Lower()) {
		panic(ErrNonAdjacentBatch)
	}

	if s.lower == nil {
		s.lower = b.Lower()
	}

	s.upper = b.Upper()

	// Even an empty batch exerts one unit, so mergers cannot stall on a
	// stream of empty inserts. Empty batches are queued like any other:
	// their descriptions keep the slot contents contiguous.
	fuel := mathutil.Max(s.FuelRatio*b.Len(), 1)

	s.pending = append(s.pending, b)
	s.exertFuel(fuel)
	s.drainPending()

	if s.Metrics != nil {
		s.Metrics.RecordInsert(context.Background(), int64(b.Len()))
	}
}

// drainPending moves queued batches into slot 0, oldest first, stopping as
// soon as slot 0 is occupied by a running merge.
func (s *Spine[K, V, T, R]) drainPending() {
	for len(s.pending) > 0 {
		if len(s.levels) > 0 && s.levels[0].merger != nil {
			return
		}

		b := s.pending[0]
		s.pending = s.pending[1:]
		s.place(b, 0)
	}
}

// exertFuel advances every currently active merger by perMerger fuel,
// cascading any merger that finishes up to the next level.
func (s *Spine[K, V, T, R]) exertFuel(perMerger int) {
	for i := 0; i < len(s.levels); i++ {
		lv := &s.levels[i]
		if lv.merger == nil {
			continue
		}

		f := perMerger
		start := time.Now()
		lv.merger.Work(&f)
		spent := int64(perMerger - f)
		finished := lv.merger.Finished()

		if s.Metrics != nil {
			s.Metrics.RecordMerge(context.Background(), spent, time.Since(start), finished)
		}

		if finished {
			done := lv.merger.Done()
			lv.merger, lv.a, lv.b = nil, nil, nil

			if i+1 < len(s.levels) && s.levels[i+1].merger != nil {
				// The slot above is still merging: hold the result here.
				// It stays the oldest content below that slot, so a later
				// carry from below merges with it in order.
				lv.settled = done
			} else {
				s.place(done, i+1)
			}
		}
	}
}

// place lands b at level i, carrying like a binary counter: an empty level
// takes it directly, a settled level starts a merger with it. Under the
// pending/hold discipline b is always the chronological successor of the
// level's occupant, so the merger's (older, newer) operand order is fixed
// and a level mid-merge is never targeted.
func (s *Spine[K, V, T, R]) place(b *batch.Batch[K, V, T, R], i int) {
	s.growTo(i)
	lv := &s.levels[i]

	switch {
	case lv.empty():
		lv.settled = b

	case lv.merger == nil:
		older := lv.settled
		lv.settled = nil
		lv.a, lv.b = older, b
		lv.merger = batch.NewMerger(older, b, s.logicalCompaction)

	default:
		panic("trace: carry landed on a slot whose merge has not finished")
	}
}

func (s *Spine[K, V, T, R]) growTo(i int) {
	for len(s.levels) <= i {
		s.levels = append(s.levels, level[K, V, T, R]{})
	}
}

// NumSlots returns the number of occupied merge slots, bounded by
// O(log of the number of batches ever inserted) under the fuel rule above.
func (s *Spine[K, V, T, R]) NumSlots() int {
	n := 0

	for i := range s.levels {
		if !s.levels[i].empty() {
			n++
		}
	}

	return n
}

// Len returns the total number of live (k,v,t,r) tuples across every batch
// the spine currently holds.
func (s *Spine[K, V, T, R]) Len() int {
	total := 0
	for _, b := range s.liveBatches() {
		total += b.Len()
	}

	return total
}

// liveBatches stitches every currently-settled batch, the original inputs
// of any in-progress merger, and the pending queue into chronological
// order by following Lower/Upper boundaries from the trace's global lower.
func (s *Spine[K, V, T, R]) liveBatches() []*batch.Batch[K, V, T, R] {
	if s.lower == nil {
		return nil
	}

	var all []*batch.Batch[K, V, T, R]

	for i := range s.levels {
		lv := &s.levels[i]
		if lv.merger != nil {
			all = append(all, lv.a, lv.b)
		} else if lv.settled != nil {
			all = append(all, lv.settled)
		}
	}

	all = append(all, s.pending...)

	ordered := make([]*batch.Batch[K, V, T, R], 0, len(all))
	used := make([]bool, len(all))
	cursorPos := s.lower

	for len(ordered) < len(all) {
		progressed := false

		for i, b := range all {
			if used[i] {
				continue
			}

			if b.Lower().Equal(cursorPos) {
				ordered = append(ordered, b)
				used[i] = true
				cursorPos = b.Upper()
				progressed = true

				break
			}
		}

		if !progressed {
			break
		}
	}

	return ordered
}

func (s *Spine[K, V, T, R]) MapBatches(f func(*batch.Batch[K, V, T, R])) {
	for _, b := range s.liveBatches() {
		f(b)
	}
}

// Cursor returns a cursor over the trace's entire current contents.
func (s *Spine[K, V, T, R]) Cursor() cursor.Cursor[K, V, T, R] {
	bs := s.liveBatches()
	cs := make([]cursor.Cursor[K, V, T, R], len(bs))

	for i, b := range bs {
		cs[i] = b.NewCursor()
	}

	return cursor.NewList(cs)
}

// CursorThrough returns a cursor over exactly the batches covering
// [lower, upper), reporting false if upper does not land on a batch
// boundary the trace currently holds.
func (s *Spine[K, V, T, R]) CursorThrough(upper *lattice.Antichain[T]) (cursor.Cursor[K, V, T, R], bool) {
	bs := s.liveBatches()
	prefix := make([]cursor.Cursor[K, V, T, R], 0, len(bs))

	for _, b := range bs {
		prefix = append(prefix, b.NewCursor())
		if b.Upper().Equal(upper) {
			return cursor.NewList(prefix), true
		}
	}

	if len(bs) == 0 && s.lower != nil && s.lower.Equal(upper) {
		return cursor.NewList[K, V, T, R](nil), true
	}

	return nil, false
}
