package lattice

// Antichain is a set of pairwise-incomparable timestamps, used throughout
// this module to summarize a frontier: the set of times at or after which
// future updates may still arrive. Elements are kept in insertion order;
// Insert appends and does not sort.
type Antichain[T Lattice[T]] struct {
	elements []T
}

// NewAntichain builds an antichain from ts, discarding any element dominated
// by another (keeping the set minimal, as the name implies).
func NewAntichain[T Lattice[T]](ts ...T) *Antichain[T] {
	a := &Antichain[T]{}
	for _, t := range ts {
		a.Insert(t)
	}

	return a
}

// Empty reports whether the antichain has no elements, meaning the frontier
// it represents is empty — the associated trace or stream has no more
// updates to produce, ever.
func (a *Antichain[T]) Empty() bool {
	return len(a.elements) == 0
}

// Elements returns a snapshot of the antichain's members. Callers must not
// mutate the returned slice.
func (a *Antichain[T]) Elements() []T {
	return a.elements
}

// LessEqual reports whether some element of the antichain is less-equal t,
// i.e. whether t lies at or beyond the frontier this antichain represents.
func (a *Antichain[T]) LessEqual(t T) bool {
	for _, e := range a.elements {
		if e.LessEqual(t) {
			return true
		}
	}

	return false
}

// LessEqualChain reports whether a's frontier is at or behind other's — the
// partial order on antichains used for monotone frontier checks: a <= other
// iff every element of other is dominated from below by some element of a,
// i.e. a has not progressed past anything other has. A caller advancing a
// held frontier from old to new must see old.LessEqualChain(new) hold;
// advancing from new back to old (new.LessEqualChain(old), in general)
// would not, since that would require other's progress to un-happen.
func (a *Antichain[T]) LessEqualChain(other *Antichain[T]) bool {
	for _, e := range other.elements {
		if !a.LessEqual(e) {
			return false
		}
	}

	return true
}

// Insert adds t to the antichain, dropping t if it is dominated by an
// existing element and removing any existing elements that t dominates.
// Reports whether the antichain changed.
func (a *Antichain[T]) Insert(t T) bool {
	for _, e := range a.elements {
		if e.LessEqual(t) {
			return false
		}
	}

	kept := a.elements[:0:0]
	for _, e := range a.elements {
		if !t.LessEqual(e) {
			kept = append(kept, e)
		}
	}

	kept = append(kept, t)
	a.elements = kept

	return true
}

// Clone returns an independent copy of a.
func (a *Antichain[T]) Clone() *Antichain[T] {
	return &Antichain[T]{elements: append([]T(nil), a.elements...)}
}

// Equal reports whether a and other contain the same elements, irrespective
// of order.
func (a *Antichain[T]) Equal(other *Antichain[T]) bool {
	if len(a.elements) != len(other.elements) {
		return false
	}

	return a.LessEqualChain(other) && other.LessEqualChain(a)
}

// Join returns a new antichain holding the pointwise join of a and other:
// the antichain representing the later of the two frontiers. Neither a nor
// other is modified. Used when merging
// two batches' upper frontiers, or two held capabilities' progress.
func (a *Antichain[T]) Join(other *Antichain[T]) *Antichain[T] {
	result := NewAntichain[T]()

	for _, x := range a.elements {
		for _, y := range other.elements {
			result.Insert(x.Join(y))
		}
	}

	return result
}
