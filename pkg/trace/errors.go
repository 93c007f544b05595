package trace

import "errors"

var (
	// ErrNonAdjacentBatch is panicked with when Insert is given a batch
	// whose Lower does not match the trace's current Upper.
	ErrNonAdjacentBatch = errors.New("trace: inserted batch is not adjacent to the current trace upper")

	// ErrNonMonotoneCompaction is panicked with when a compaction frontier is set to something behind what is already in
	// effect, violating the monotonicity every consumer depends on.
	ErrNonMonotoneCompaction = errors.New("trace: compaction frontier must advance monotonically")

	// ErrCursorCutMiss describes a cut that does not land exactly on a
	// batch boundary currently held by the trace. CursorThrough does not
	// return it; it reports such a miss through its boolean result.
	ErrCursorCutMiss = errors.New("trace: requested cut is not on a batch boundary")
)
