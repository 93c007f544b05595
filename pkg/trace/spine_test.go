package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/differo/differo/pkg/batch"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
	"github.com/differo/differo/pkg/trace"
)

func unitBatch(t *testing.T, key int, at lattice.Time) *batch.Batch[int, int, lattice.Time, difference.Int64] {
	t.Helper()

	b := batch.NewBuilder[int, int, lattice.Time, difference.Int64](1)
	b.Push(key, 0, at, 1)

	lower := lattice.NewAntichain(at)
	upper := lattice.NewAntichain(at + 1)

	return b.Done(lower, upper, nil)
}

func TestSpineAmortizesMergesAcrossManyInserts(t *testing.T) {
	s := trace.New[int, int, lattice.Time, difference.Int64]()

	const n = 1000
	for i := 0; i < n; i++ {
		s.Insert(unitBatch(t, i, lattice.Time(i)))
	}

	assert.Equal(t, n, s.Len(), "every inserted tuple must still be visible")
	assert.LessOrEqual(t, s.NumSlots(), 12, "slot count must stay logarithmic in the number of inserts")
}

func TestSpineCursorVisitsEveryTuple(t *testing.T) {
	s := trace.New[int, int, lattice.Time, difference.Int64]()

	for i := 0; i < 50; i++ {
		s.Insert(unitBatch(t, i, lattice.Time(i)))
	}

	c := s.Cursor()

	seen := map[int]bool{}
	for c.KeyValid() {
		k := c.Key()
		for c.ValValid() {
			c.MapTimes(func(_ lattice.Time, d difference.Int64) {
				if !d.IsZero() {
					seen[k] = true
				}
			})
			c.StepVal()
		}
		c.StepKey()
	}

	assert.Len(t, seen, 50)
}

func TestSpineRejectsNonAdjacentInsert(t *testing.T) {
	s := trace.New[int, int, lattice.Time, difference.Int64]()
	s.Insert(unitBatch(t, 0, 0))

	assert.Panics(t, func() {
		s.Insert(unitBatch(t, 1, 5))
	})
}

func TestSpineCursorThroughFindsBoundary(t *testing.T) {
	s := trace.New[int, int, lattice.Time, difference.Int64]()
	s.Insert(unitBatch(t, 0, 0))
	s.Insert(unitBatch(t, 1, 1))

	c, ok := s.CursorThrough(lattice.NewAntichain[lattice.Time](2))
	require.True(t, ok)
	require.NotNil(t, c)

	_, ok = s.CursorThrough(lattice.NewAntichain[lattice.Time](7))
	assert.False(t, ok)
}

func TestBoxHandleSharesTraceAndHoldsMeet(t *testing.T) {
	_, h1 := trace.NewBox[int, int, lattice.Time, difference.Int64]()
	h2 := h1.Clone()

	h1.Insert(unitBatch(t, 0, 0))

	assert.Equal(t, h1.Upper(), h2.Upper(), "cloned handle observes the same trace")

	// Each handle's hold may only ever relax forward; set the more
	// restrictive hold first so the box's meet-across-holds frontier never
	// has to move backward as the second hold is registered.
	h2.SetLogicalCompaction(lattice.NewAntichain[lattice.Time](3))
	h1.SetLogicalCompaction(lattice.NewAntichain[lattice.Time](10))

	h2.Drop()
	h1.Drop()
}

func TestSpineSequentialInsertsCarryInChronologicalOrder(t *testing.T) {
	s := trace.New[int, int, lattice.Time, difference.Int64]()

	// Four unit inserts are exactly enough for slot 0's first merge to
	// finish while a later batch is already waiting: the finished [0,2)
	// result must stay below the waiting [2,3) batch instead of pairing
	// with it out of order.
	for i := 0; i < 4; i++ {
		require.NotPanics(t, func() {
			s.Insert(unitBatch(t, i, lattice.Time(i)))
		}, "insert %d", i)
	}

	assert.Equal(t, 4, s.Len())

	c := s.Cursor()

	var keys []int
	for c.KeyValid() {
		keys = append(keys, c.Key())
		c.StepKey()
	}

	assert.Equal(t, []int{0, 1, 2, 3}, keys)
}

func TestSpineBatchBoundariesStayContiguous(t *testing.T) {
	s := trace.New[int, int, lattice.Time, difference.Int64]()

	const n = 100
	for i := 0; i < n; i++ {
		s.Insert(unitBatch(t, i, lattice.Time(i)))
	}

	// Walking the live batches front to back must cover [0, n) with no
	// gaps; a batch landing out of order would break the chain.
	expect := lattice.NewAntichain[lattice.Time](0)

	s.MapBatches(func(b *batch.Batch[int, int, lattice.Time, difference.Int64]) {
		require.True(t, b.Lower().Equal(expect), "gap before batch covering %v", b.Lower())
		expect = b.Upper()
	})

	assert.True(t, expect.Equal(lattice.NewAntichain[lattice.Time](n)))
	assert.Equal(t, n, s.Len())
}

func TestSpineEmptyBatchKeepsChainIntact(t *testing.T) {
	s := trace.New[int, int, lattice.Time, difference.Int64]()

	s.Insert(unitBatch(t, 0, 0))

	empty := batch.NewBuilder[int, int, lattice.Time, difference.Int64](0).
		Done(lattice.NewAntichain[lattice.Time](1), lattice.NewAntichain[lattice.Time](2), nil)
	s.Insert(empty)

	s.Insert(unitBatch(t, 2, 2))
	s.Insert(unitBatch(t, 3, 3))

	assert.Equal(t, 3, s.Len())

	c := s.Cursor()

	var keys []int
	for c.KeyValid() {
		keys = append(keys, c.Key())
		c.StepKey()
	}

	assert.Equal(t, []int{0, 2, 3}, keys)
}
