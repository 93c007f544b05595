package arrange

import (
	"cmp"
	"sync"

	"github.com/differo/differo/pkg/batch"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
	"github.com/differo/differo/pkg/scope"
)

// BatchStream carries the sequence of batches an Arrange operator inserts
// into its spine, plus the progress frontier those batches' upper bounds
// establish. It mirrors scope.Stream's channel-plus-frontier shape, but a
// batch already carries its own [lower,upper) Description, so messages
// need no separate per-send Time field.
type BatchStream[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	ch chan *batch.Batch[K, V, T, R]

	mu       sync.Mutex
	frontier *lattice.Antichain[T]
	closed   bool
}

// NewBatchStream creates a BatchStream buffering up to bufSize batches,
// with its frontier initialized to minimum (nothing yet produced).
func NewBatchStream[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](
	bufSize int, minimum T,
) *BatchStream[K, V, T, R] {
	return &BatchStream[K, V, T, R]{
		ch:       make(chan *batch.Batch[K, V, T, R], bufSize),
		frontier: lattice.NewAntichain(minimum),
	}
}

// Send enqueues a newly sealed batch. Blocks if the buffer is full.
func (s *BatchStream[K, V, T, R]) Send(b *batch.Batch[K, V, T, R]) {
	s.ch <- b
}

// Close signals no further batches will be produced.
func (s *BatchStream[K, V, T, R]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	close(s.ch)
}

// Poll drains up to n queued batches without blocking, invoking f for each.
func (s *BatchStream[K, V, T, R]) Poll(n int, f func(*batch.Batch[K, V, T, R])) int {
	drained := 0

	for drained < n {
		select {
		case b, ok := <-s.ch:
			if !ok {
				return drained
			}

			f(b)

			drained++
		default:
			return drained
		}
	}

	return drained
}

// Closed reports whether Close has been called and every buffered batch
// drained.
func (s *BatchStream[K, V, T, R]) Closed() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	return closed && len(s.ch) == 0
}

// SetFrontier advances the stream's progress claim; f must dominate
// whatever is already set.
func (s *BatchStream[K, V, T, R]) SetFrontier(f *lattice.Antichain[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frontier != nil && !s.frontier.LessEqualChain(f) {
		panic(scope.ErrNonMonotone)
	}

	s.frontier = f
}

// Frontier returns the stream's current progress claim.
func (s *BatchStream[K, V, T, R]) Frontier() *lattice.Antichain[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frontier
}
