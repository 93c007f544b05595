package trace

import (
	"cmp"
	"sync"

	"github.com/differo/differo/pkg/batch"
	"github.com/differo/differo/pkg/cursor"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
)

// Box owns a Spine plus the multisets of compaction holds placed on it by
// every outstanding Handle. Its effective logical/physical compaction
// frontiers are the meet across every handle's hold, recomputed whenever a
// handle sets its hold or drops — the mechanism that stops one handle's
// still-open cursor from being invalidated by another handle compacting the
// shared trace out from under it.
type Box[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	mu sync.RWMutex

	spine *Spine[K, V, T, R]

	logicalHolds  map[*Handle[K, V, T, R]]*lattice.Antichain[T]
	physicalHolds map[*Handle[K, V, T, R]]*lattice.Antichain[T]
}

// NewBox creates a fresh, empty trace and returns it alongside the first
// Handle onto it.
func NewBox[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]]() (*Box[K, V, T, R], *Handle[K, V, T, R]) {
	box := &Box[K, V, T, R]{
		spine:         New[K, V, T, R](),
		logicalHolds:  map[*Handle[K, V, T, R]]*lattice.Antichain[T]{},
		physicalHolds: map[*Handle[K, V, T, R]]*lattice.Antichain[T]{},
	}

	h := &Handle[K, V, T, R]{box: box}
	box.logicalHolds[h] = nil
	box.physicalHolds[h] = nil

	return box, h
}

// recompute applies the meet of every non-nil hold as the Box's effective
// compaction frontier. Caller must hold b.mu.
func (b *Box[K, V, T, R]) recompute() {
	var logical, physical *lattice.Antichain[T]

	for _, h := range b.logicalHolds {
		if h == nil {
			continue
		}

		if logical == nil {
			logical = h.Clone()
		} else {
			logical = meetAntichain(logical, h)
		}
	}

	for _, h := range b.physicalHolds {
		if h == nil {
			continue
		}

		if physical == nil {
			physical = h.Clone()
		} else {
			physical = meetAntichain(physical, h)
		}
	}

	if logical != nil {
		b.spine.SetLogicalCompaction(logical)
	}

	if physical != nil {
		b.spine.SetPhysicalCompaction(physical)
	}
}

func meetAntichain[T lattice.Lattice[T]](a, b *lattice.Antichain[T]) *lattice.Antichain[T] {
	result := lattice.NewAntichain[T]()

	for _, x := range a.Elements() {
		for _, y := range b.Elements() {
			result.Insert(x.Meet(y))
		}
	}

	return result
}

// Handle is a shared, ref-counted view onto a Box's trace. Every Handle
// holds its own logical/physical compaction requirement (initially
// unrestricted); the Box's actual compaction frontier is the meet across
// every live handle's hold.
type Handle[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	box *Box[K, V, T, R]
}

// Clone returns a new handle sharing the same underlying trace, registering
// an independent (initially unrestricted) hold in the Box.
func (h *Handle[K, V, T, R]) Clone() *Handle[K, V, T, R] {
	h.box.mu.Lock()
	defer h.box.mu.Unlock()

	clone := &Handle[K, V, T, R]{box: h.box}
	h.box.logicalHolds[clone] = nil
	h.box.physicalHolds[clone] = nil

	return clone
}

// Drop releases this handle's hold. Go has no deterministic destructors, so
// callers MUST call Drop exactly once when finished with a handle — the
// explicit analogue of the reference type's Drop impl.
func (h *Handle[K, V, T, R]) Drop() {
	h.box.mu.Lock()
	defer h.box.mu.Unlock()

	delete(h.box.logicalHolds, h)
	delete(h.box.physicalHolds, h)
	h.box.recompute()
}

// SetLogicalCompaction records this handle's logical compaction requirement
// and recomputes the Box's effective frontier.
func (h *Handle[K, V, T, R]) SetLogicalCompaction(f *lattice.Antichain[T]) {
	h.box.mu.Lock()
	defer h.box.mu.Unlock()

	h.box.logicalHolds[h] = f
	h.box.recompute()
}

// SetPhysicalCompaction records this handle's physical compaction
// requirement and recomputes the Box's effective frontier.
func (h *Handle[K, V, T, R]) SetPhysicalCompaction(f *lattice.Antichain[T]) {
	h.box.mu.Lock()
	defer h.box.mu.Unlock()

	h.box.physicalHolds[h] = f
	h.box.recompute()
}

// Insert appends a batch to the shared trace.
func (h *Handle[K, V, T, R]) Insert(b *batch.Batch[K, V, T, R]) {
	h.box.mu.Lock()
	defer h.box.mu.Unlock()

	h.box.spine.Insert(b)
}

// Cursor returns a cursor over the trace's entire current contents.
func (h *Handle[K, V, T, R]) Cursor() cursor.Cursor[K, V, T, R] {
	h.box.mu.RLock()
	defer h.box.mu.RUnlock()

	return h.box.spine.Cursor()
}

// CursorThrough returns a cursor over exactly the batches covering up to
// upper, reporting false if upper is not a held batch boundary.
func (h *Handle[K, V, T, R]) CursorThrough(upper *lattice.Antichain[T]) (cursor.Cursor[K, V, T, R], bool) {
	h.box.mu.RLock()
	defer h.box.mu.RUnlock()

	return h.box.spine.CursorThrough(upper)
}

func (h *Handle[K, V, T, R]) Upper() *lattice.Antichain[T] {
	h.box.mu.RLock()
	defer h.box.mu.RUnlock()

	return h.box.spine.Upper()
}

func (h *Handle[K, V, T, R]) Lower() *lattice.Antichain[T] {
	h.box.mu.RLock()
	defer h.box.mu.RUnlock()

	return h.box.spine.Lower()
}
