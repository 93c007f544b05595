// Package batch implements the immutable, sorted (key, value, time, diff)
// tuple storage that every trace layers on top of. A Batch covers a
// half-open range of logical time [Lower, Upper) and has been compacted so
// that no tuple's time is behind Since.
package batch

import "github.com/differo/differo/pkg/lattice"

// Description records a batch's logical extent: the range of times
// [Lower, Upper) it covers, and the Since frontier its own times have
// already been advanced to (never behind Lower).
type Description[T lattice.Lattice[T]] struct {
	Lower *lattice.Antichain[T]
	Upper *lattice.Antichain[T]
	Since *lattice.Antichain[T]
}

// NewDescription builds a description, defaulting Since to Lower when nil —
// a freshly built batch has not been compacted past its own lower bound.
func NewDescription[T lattice.Lattice[T]](lower, upper, since *lattice.Antichain[T]) Description[T] {
	if since == nil {
		since = lower
	}

	return Description[T]{Lower: lower, Upper: upper, Since: since}
}

// Adjacent reports whether b immediately follows a: a.Upper == b.Lower.
// Merger.New panics if its two batches are not adjacent, per the contract
// that only neighboring slots in a spine are ever merged together.
func Adjacent[T lattice.Lattice[T]](a, b Description[T]) bool {
	return a.Upper.Equal(b.Lower)
}
