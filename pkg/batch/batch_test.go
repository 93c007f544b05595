package batch_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/differo/differo/pkg/batch"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

type tuple struct {
	key  string
	val  string
	time lattice.Time
	diff difference.Int64
}

func sortTuples(ts []tuple) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.key != b.key {
			return a.key < b.key
		}

		if a.val != b.val {
			return a.val < b.val
		}

		return a.time < b.time
	})
}

func buildBatch(t *testing.T, tuples []tuple, lower, upper lattice.Time) *batch.Batch[string, string, lattice.Time, difference.Int64] {
	t.Helper()

	sortTuples(tuples)

	bld := batch.NewBuilder[string, string, lattice.Time, difference.Int64](len(tuples))
	for _, tp := range tuples {
		bld.Push(tp.key, tp.val, tp.time, tp.diff)
	}

	return bld.Done(lattice.NewAntichain(lower), lattice.NewAntichain(upper), nil)
}

func collect(b *batch.Batch[string, string, lattice.Time, difference.Int64]) []tuple {
	var out []tuple

	c := b.NewCursor()
	for c.KeyValid() {
		k := c.Key()

		for c.ValValid() {
			v := c.Val()

			c.MapTimes(func(tm lattice.Time, d difference.Int64) {
				out = append(out, tuple{key: k, val: v, time: tm, diff: d})
			})
			c.StepVal()
		}

		c.StepKey()
	}

	return out
}

func TestBuilderFullyCancelledInputYieldsEmptyBatch(t *testing.T) {
	t.Parallel()

	b := buildBatch(t, []tuple{
		{"1", "v", 0, 1},
		{"1", "v", 0, 1},
		{"1", "v", 0, -2},
	}, 0, 1)

	assert.True(t, b.IsEmpty())
	assert.False(t, b.NewCursor().KeyValid())
}

func TestBuilderRoundTripConsolidates(t *testing.T) {
	t.Parallel()

	b := buildBatch(t, []tuple{
		{"a", "x", 0, 1},
		{"a", "x", 0, 2},
		{"a", "y", 1, 1},
		{"b", "x", 0, -1},
	}, 0, 2)

	assert.Equal(t, []tuple{
		{"a", "x", 0, 3},
		{"a", "y", 1, 1},
		{"b", "x", 0, -1},
	}, collect(b))
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 2, b.NumKeys())
}

func TestBuilderDropsCancelledValueAndKeyGroups(t *testing.T) {
	t.Parallel()

	// Key "a" cancels entirely; key "b" keeps only value "y".
	b := buildBatch(t, []tuple{
		{"a", "x", 0, 1},
		{"a", "x", 0, -1},
		{"b", "x", 0, 2},
		{"b", "x", 0, -2},
		{"b", "y", 1, 1},
	}, 0, 2)

	assert.Equal(t, []tuple{{"b", "y", 1, 1}}, collect(b))
	assert.Equal(t, 1, b.NumKeys())
}

func TestBatchCursorYieldsSortedDistinctTuples(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))

	var tuples []tuple

	for i := 0; i < 200; i++ {
		tuples = append(tuples, tuple{
			key:  string(rune('a' + rng.Intn(5))),
			val:  string(rune('p' + rng.Intn(3))),
			time: lattice.Time(rng.Intn(4)),
			diff: difference.Int64(rng.Intn(5) - 2),
		})
	}

	b := buildBatch(t, tuples, 0, 4)
	got := collect(b)

	// Lexicographic order, no zero diffs, no duplicate (k, v, t).
	for i, tp := range got {
		assert.False(t, tp.diff.IsZero())

		if i == 0 {
			continue
		}

		prev := got[i-1]
		assert.True(t,
			prev.key < tp.key ||
				(prev.key == tp.key && prev.val < tp.val) ||
				(prev.key == tp.key && prev.val == tp.val && prev.time < tp.time),
			"tuples out of order at %d: %+v then %+v", i, prev, tp)
	}

	// The batch accumulation matches a brute-force recomputation.
	want := map[[2]string]map[lattice.Time]difference.Int64{}
	for _, tp := range tuples {
		kv := [2]string{tp.key, tp.val}
		if want[kv] == nil {
			want[kv] = map[lattice.Time]difference.Int64{}
		}

		want[kv][tp.time] = want[kv][tp.time].Add(tp.diff)
	}

	for _, tp := range got {
		assert.Equal(t, want[[2]string{tp.key, tp.val}][tp.time], tp.diff)
	}
}

func TestCursorSeekPositionsAtLeastBound(t *testing.T) {
	t.Parallel()

	b := buildBatch(t, []tuple{
		{"a", "p", 0, 1},
		{"c", "p", 0, 1},
		{"c", "r", 0, 1},
		{"e", "p", 0, 1},
	}, 0, 1)

	c := b.NewCursor()

	c.SeekKey("b")
	require.True(t, c.KeyValid())
	assert.Equal(t, "c", c.Key())

	c.SeekVal("q")
	require.True(t, c.ValValid())
	assert.Equal(t, "r", c.Val())

	c.SeekKey("f")
	assert.False(t, c.KeyValid())
}

func TestCursorRewind(t *testing.T) {
	t.Parallel()

	b := buildBatch(t, []tuple{
		{"a", "p", 0, 1},
		{"a", "q", 0, 1},
		{"b", "p", 0, 1},
	}, 0, 1)

	c := b.NewCursor()
	c.StepVal()
	c.RewindVals()
	assert.Equal(t, "p", c.Val())

	c.StepKey()
	c.RewindKeys()
	assert.Equal(t, "a", c.Key())
	assert.Equal(t, "p", c.Val())
}

func TestAdvanceMatchesLinearScan(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 2, 7, 64, 100} {
		slice := make([]int, n)
		for i := range slice {
			slice[i] = i
		}

		for bound := -1; bound <= n+1; bound++ {
			got := batch.Advance(slice, func(x int) bool { return x < bound })

			want := 0
			for _, x := range slice {
				if x < bound {
					want++
				}
			}

			assert.Equal(t, want, got, "n=%d bound=%d", n, bound)
		}
	}
}

func TestMergerUnionsAdjacentBatches(t *testing.T) {
	t.Parallel()

	a := buildBatch(t, []tuple{
		{"a", "x", 0, 1},
		{"b", "x", 0, 2},
	}, 0, 1)
	b := buildBatch(t, []tuple{
		{"b", "x", 1, 3},
		{"c", "y", 1, 1},
	}, 1, 2)

	m := batch.NewMerger(a, b, nil)

	fuel := 100
	m.Work(&fuel)
	require.True(t, m.Finished())

	merged := m.Done()

	assert.Equal(t, []tuple{
		{"a", "x", 0, 1},
		{"b", "x", 0, 2},
		{"b", "x", 1, 3},
		{"c", "y", 1, 1},
	}, collect(merged))

	assert.True(t, merged.Lower().Equal(lattice.NewAntichain[lattice.Time](0)))
	assert.True(t, merged.Upper().Equal(lattice.NewAntichain[lattice.Time](2)))
}

func TestMergerCompactionCoalescesAndCancels(t *testing.T) {
	t.Parallel()

	// Advancing both times onto {2} makes the +1 and -1 land on the same
	// (k, v, t) and cancel away.
	a := buildBatch(t, []tuple{{"k", "v", 0, 1}}, 0, 1)
	b := buildBatch(t, []tuple{{"k", "v", 1, -1}}, 1, 2)

	compact := lattice.NewAntichain[lattice.Time](2)
	m := batch.NewMerger(a, b, compact)

	fuel := 100
	m.Work(&fuel)
	require.True(t, m.Finished())

	merged := m.Done()
	assert.True(t, merged.IsEmpty())
	assert.True(t, merged.Since().Equal(compact))
}

func TestMergerRejectsNonAdjacentBatches(t *testing.T) {
	t.Parallel()

	a := buildBatch(t, []tuple{{"a", "x", 0, 1}}, 0, 1)
	b := buildBatch(t, []tuple{{"b", "x", 5, 1}}, 5, 6)

	assert.Panics(t, func() {
		batch.NewMerger(a, b, nil)
	})
}

func TestMergerWorkRespectsFuel(t *testing.T) {
	t.Parallel()

	var tuples []tuple
	for i := 0; i < 26; i++ {
		tuples = append(tuples, tuple{key: string(rune('a' + i)), val: "v", time: 0, diff: 1})
	}

	a := buildBatch(t, tuples, 0, 1)

	var more []tuple
	for i := 0; i < 26; i++ {
		more = append(more, tuple{key: string(rune('a' + i)), val: "v", time: 1, diff: 1})
	}

	b := buildBatch(t, more, 1, 2)

	m := batch.NewMerger(a, b, nil)

	fuel := 5
	m.Work(&fuel)
	assert.Zero(t, fuel)
	assert.False(t, m.Finished())

	// Repeated rounds of bounded work eventually finish the merge.
	for rounds := 0; !m.Finished() && rounds < 100; rounds++ {
		fuel = 5
		m.Work(&fuel)
	}

	require.True(t, m.Finished())
	assert.Equal(t, 52, m.Done().Len())
}

func TestMergerMatchesBruteForceOnRandomInput(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 20; trial++ {
		var first, second []tuple

		for i := 0; i < 30; i++ {
			first = append(first, tuple{
				key:  string(rune('a' + rng.Intn(4))),
				val:  string(rune('p' + rng.Intn(2))),
				time: lattice.Time(rng.Intn(2)),
				diff: difference.Int64(rng.Intn(3) - 1),
			})
			second = append(second, tuple{
				key:  string(rune('a' + rng.Intn(4))),
				val:  string(rune('p' + rng.Intn(2))),
				time: lattice.Time(2 + rng.Intn(2)),
				diff: difference.Int64(rng.Intn(3) - 1),
			})
		}

		a := buildBatch(t, first, 0, 2)
		b := buildBatch(t, second, 2, 4)

		m := batch.NewMerger(a, b, nil)

		fuel := 1 << 20
		m.Work(&fuel)
		require.True(t, m.Finished())

		want := map[tuple]difference.Int64{}

		for _, tp := range append(append([]tuple{}, first...), second...) {
			k := tuple{key: tp.key, val: tp.val, time: tp.time}
			want[k] = want[k].Add(tp.diff)
		}

		got := map[tuple]difference.Int64{}
		for _, tp := range collect(m.Done()) {
			got[tuple{key: tp.key, val: tp.val, time: tp.time}] = tp.diff
		}

		for k, d := range want {
			if d.IsZero() {
				_, present := got[k]
				assert.False(t, present, "cancelled tuple survived: %+v", k)
			} else {
				assert.Equal(t, d, got[k], "wrong diff for %+v", k)
			}
		}

		assert.Len(t, got, countNonZero(want))
	}
}

func countNonZero(m map[tuple]difference.Int64) int {
	n := 0

	for _, d := range m {
		if !d.IsZero() {
			n++
		}
	}

	return n
}
