package scope

import (
	"sync"

	"github.com/differo/differo/pkg/lattice"
)

// Stream is the channel-based conduit between operators: a queue of
// Update[D,T,R] messages plus a Frontier side-channel the sender updates
// after each batch of sends. Consumers observe frontier advances between
// message deliveries, never concurrently with them: within a worker,
// updates are delivered per-channel in the order the sender emitted them.
type Stream[D any, T lattice.Lattice[T], R any] struct {
	ch chan Update[D, T, R]

	mu       sync.Mutex
	frontier *lattice.Antichain[T]
	closed   bool
}

// NewStream creates a Stream with the given channel buffer size and a
// frontier initialized to the lattice minimum (nothing yet known to have
// been produced).
func NewStream[D any, T lattice.Lattice[T], R any](bufSize int, minimum T) *Stream[D, T, R] {
	return &Stream[D, T, R]{
		ch:       make(chan Update[D, T, R], bufSize),
		frontier: lattice.NewAntichain(minimum),
	}
}

// Send enqueues an update. Blocks if the channel buffer is full — callers
// that need non-blocking behavior should size the buffer generously, per
// this runtime's single-worker, no-backpressure-protocol scope.
func (s *Stream[D, T, R]) Send(u Update[D, T, R]) {
	s.ch <- u
}

// Close signals no further sends will occur.
func (s *Stream[D, T, R]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	close(s.ch)
}

// Poll drains up to n queued updates without blocking, invoking f for each.
// Returns the number actually drained — 0 means there is nothing ready
// right now (not necessarily that the stream is closed; check Closed).
func (s *Stream[D, T, R]) Poll(n int, f func(Update[D, T, R])) int {
	drained := 0

	for drained < n {
		select {
		case u, ok := <-s.ch:
			if !ok {
				return drained
			}

			f(u)

			drained++
		default:
			return drained
		}
	}

	return drained
}

// Closed reports whether Close has been called and every buffered message
// drained.
func (s *Stream[D, T, R]) Closed() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	return closed && len(s.ch) == 0
}

// SetFrontier advances the stream's progress claim. f must dominate
// whatever frontier is already set — a non-monotone call here would let a
// downstream reader believe data could still arrive at a time that has, in
// fact, already passed.
func (s *Stream[D, T, R]) SetFrontier(f *lattice.Antichain[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frontier != nil && !s.frontier.LessEqualChain(f) {
		panic(ErrNonMonotone)
	}

	s.frontier = f
}

// Frontier returns the stream's current progress claim: no update will
// arrive at a time not greater-equal to some element of it.
func (s *Stream[D, T, R]) Frontier() *lattice.Antichain[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frontier
}
