// Package arrange implements the arrange operator and the Arrangement it
// produces: the pair (stream_of_new_batches, shared_trace_handle) that
// every Reduce, Join, and Distinct in this module reads from rather than
// re-deriving a sorted index of their input on every call.
package arrange

import (
	"cmp"

	"github.com/differo/differo/pkg/batcher"
	"github.com/differo/differo/pkg/cursor"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
	"github.com/differo/differo/pkg/scope"
	"github.com/differo/differo/pkg/trace"
)

// Entry is one (key, value) pair arriving on an arrange operator's input,
// paired with a time and diff via scope.Update.
type Entry[K any, V any] struct {
	Key K
	Val V
}

// Unit stands in for "no value" when an arrangement is keyed by its own
// data (arrange_by_self): batches require V to satisfy cmp.Ordered, which
// the empty struct does not, so Unit — always zero — is the cheapest
// concrete type that does.
type Unit uint8

// Arrangement is a shared, reference-counted view onto a trace: a Handle
// for cursor reads plus the BatchStream of batches as they are sealed and
// inserted. Consumers that want their own read capability call Import,
// which clones the Handle; the BatchStream itself is shared directly,
// matching this runtime's single-worker-owns-its-arrangements model —
// cross-worker sharing of one arrangement is not supported.
type Arrangement[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	Handle  *trace.Handle[K, V, T, R]
	Batches *BatchStream[K, V, T, R]
}

// Import installs a fresh read capability on the arrangement by cloning
// its Handle. Callers MUST Drop the returned Arrangement's Handle once
// done with it.
func (a *Arrangement[K, V, T, R]) Import() *Arrangement[K, V, T, R] {
	return &Arrangement[K, V, T, R]{Handle: a.Handle.Clone(), Batches: a.Batches}
}

// Cursor returns a cursor over the arrangement's entire current contents.
func (a *Arrangement[K, V, T, R]) Cursor() cursor.Cursor[K, V, T, R] {
	return a.Handle.Cursor()
}

// Drop releases this arrangement's read capability.
func (a *Arrangement[K, V, T, R]) Drop() {
	a.Handle.Drop()
}

// Arrange is the arranging operator: it stashes incoming (key, value,
// time, diff) updates via a MergeBatcher until its input frontier advances
// past their time, then seals a batch covering [prevUpper, newUpper),
// inserts it into its owned spine, and publishes it on the Arrangement's
// BatchStream.
type Arrange[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	input   *scope.Stream[Entry[K, V], T, R]
	staging *batcher.MergeBatcher[K, V, T, R]
	arr     *Arrangement[K, V, T, R]

	lower        *lattice.Antichain[T]
	lastFrontier *lattice.Antichain[T]
	done         bool
}

// New constructs an Arrange operator reading from input, with its output
// arrangement's batch stream buffered to outputBuf batches and its spine
// starting at minimum.
func New[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](
	input *scope.Stream[Entry[K, V], T, R], minimum T, outputBuf int,
) *Arrange[K, V, T, R] {
	_, handle := trace.NewBox[K, V, T, R]()

	return &Arrange[K, V, T, R]{
		input:   input,
		staging: batcher.New[K, V, T, R](),
		arr: &Arrangement[K, V, T, R]{
			Handle:  handle,
			Batches: NewBatchStream[K, V, T, R](outputBuf, minimum),
		},
		lower: lattice.NewAntichain(minimum),
	}
}

// Arrangement returns the operator's output arrangement.
func (a *Arrange[K, V, T, R]) Arrangement() *Arrangement[K, V, T, R] {
	return a.arr
}

// Activate drains every queued input update into the staging batcher and,
// if the input frontier has advanced since the last activation, seals and
// publishes a batch covering the newly closed-out time range: updates are
// stashed until their capability's time falls out of the input frontier,
// at which point they are built into a batch and emitted.
func (a *Arrange[K, V, T, R]) Activate() bool {
	cur := a.input.Frontier()
	changed := a.lastFrontier == nil || !a.lastFrontier.Equal(cur)
	a.lastFrontier = cur

	drained := a.input.Poll(1<<16, func(u scope.Update[Entry[K, V], T, R]) {
		a.staging.PushBatch([]batcher.Update[K, V, T, R]{
			{Key: u.Data.Key, Val: u.Data.Val, Time: u.Time, Diff: u.Diff},
		})
	})

	if changed {
		if !a.lower.Equal(cur) {
			sealed := a.staging.Seal(a.lower, cur)
			a.arr.Handle.Insert(sealed)
			a.arr.Batches.Send(sealed)
			a.arr.Batches.SetFrontier(cur)
			a.lower = cur
		}

		if a.input.Closed() && a.staging.Len() == 0 {
			a.arr.Batches.Close()
			a.done = true
		}
	}

	return changed || drained > 0
}

// Done reports whether the operator has drained its input, closed, and
// sealed every outstanding update.
func (a *Arrange[K, V, T, R]) Done() bool {
	return a.done
}

var _ scope.Operator = (*Arrange[int, int, lattice.Time, difference.Int64])(nil)
