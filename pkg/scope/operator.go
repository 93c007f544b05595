package scope

import "github.com/differo/differo/pkg/lattice"

// UnaryOperator wraps a single input Stream and a logic closure invoked
// whenever the input has queued messages or its frontier has changed since
// the last activation. Logic is responsible
// for draining Input itself (via Input.Poll) and dropping its capabilities
// once it can never produce more output; MarkDone then lets the owning
// Scope retire the operator.
type UnaryOperator[D any, T lattice.Lattice[T], R any] struct {
	Input *Stream[D, T, R]
	Logic func(frontierChanged bool)

	lastFrontier *lattice.Antichain[T]
	done         bool
}

// NewUnaryOperator constructs a UnaryOperator over input, driven by logic.
func NewUnaryOperator[D any, T lattice.Lattice[T], R any](
	input *Stream[D, T, R], logic func(frontierChanged bool),
) *UnaryOperator[D, T, R] {
	return &UnaryOperator[D, T, R]{Input: input, Logic: logic}
}

// Activate reports whether the input frontier changed since the last call,
// invokes Logic either way (there may be queued messages even with an
// unchanged frontier), and reports whether there is reason to believe
// further activation could still do work.
func (u *UnaryOperator[D, T, R]) Activate() bool {
	cur := u.Input.Frontier()
	changed := u.lastFrontier == nil || !u.lastFrontier.Equal(cur)
	u.lastFrontier = cur

	u.Logic(changed)

	return changed
}

// Done reports whether the operator has been explicitly retired via
// MarkDone.
func (u *UnaryOperator[D, T, R]) Done() bool { return u.done }

// MarkDone retires the operator: the owning Scope stops activating it.
// Callers invoke this once every capability they hold has been dropped and
// the input stream is closed and drained.
func (u *UnaryOperator[D, T, R]) MarkDone() { u.done = true }

// BinaryOperator wraps two input Streams, of possibly different data/diff
// types but a shared timestamp lattice.
type BinaryOperator[D1 any, T lattice.Lattice[T], R1 any, D2 any, R2 any] struct {
	InputA *Stream[D1, T, R1]
	InputB *Stream[D2, T, R2]
	Logic  func(frontierChanged bool)

	lastA *lattice.Antichain[T]
	lastB *lattice.Antichain[T]
	done  bool
}

// NewBinaryOperator constructs a BinaryOperator over a and b, driven by
// logic.
func NewBinaryOperator[D1 any, T lattice.Lattice[T], R1 any, D2 any, R2 any](
	a *Stream[D1, T, R1], b *Stream[D2, T, R2], logic func(frontierChanged bool),
) *BinaryOperator[D1, T, R1, D2, R2] {
	return &BinaryOperator[D1, T, R1, D2, R2]{InputA: a, InputB: b, Logic: logic}
}

// Activate reports whether either input's frontier changed, invokes Logic,
// and returns that flag.
func (b *BinaryOperator[D1, T, R1, D2, R2]) Activate() bool {
	curA := b.InputA.Frontier()
	curB := b.InputB.Frontier()

	changed := b.lastA == nil || !b.lastA.Equal(curA) || b.lastB == nil || !b.lastB.Equal(curB)
	b.lastA, b.lastB = curA, curB

	b.Logic(changed)

	return changed
}

// Done reports whether the operator has been explicitly retired via
// MarkDone.
func (b *BinaryOperator[D1, T, R1, D2, R2]) Done() bool { return b.done }

// MarkDone retires the operator.
func (b *BinaryOperator[D1, T, R1, D2, R2]) MarkDone() { b.done = true }
