// Package scope implements the minimal cooperative dataflow runtime the
// core's Non-goals assume is present: scopes that own a set of operators,
// capabilities that license sending data at a time, streams that carry
// timestamped updates plus a progress frontier, and unary/binary operators
// that are re-activated on new input or frontier advance and yield by
// returning.
//
// It is intentionally small — the external collaborator made concrete, not
// a general-purpose distributed dataflow engine. A single Scope runs on one
// goroutine; cross-worker parallelism is modeled by running several Scopes,
// one per Worker, each with an independently partitioned set of
// arrangements (see Worker and HashExchange).
package scope

import (
	"errors"
	"fmt"

	"github.com/differo/differo/pkg/lattice"
)

// Sentinel contract-violation errors: fail fast, no recovery, carried as
// a typed, wrapped sentinel so a test harness can assert on violation
// kind without string matching.
var (
	ErrNonMonotone        = errors.New("scope: frontier must advance monotonically")
	ErrCapabilityDropped  = errors.New("scope: capability already dropped")
	ErrCapabilityBackward = errors.New("scope: capability downgrade must not move backward")
)

// Update is one (data, time, diff) message flowing across a Stream.
type Update[D any, T any, R any] struct {
	Data D
	Time T
	Diff R
}

// Operator is anything a Scope can schedule: Activate runs one scheduling
// quantum and reports whether it did any work (so the Scope's Run loop
// knows whether to keep spinning), Done reports whether every capability
// the operator ever held has been dropped and its inputs closed.
type Operator interface {
	Activate() bool
	Done() bool
}

// Scope owns a set of operators, exclusively, on one worker. Scope.Run is
// the cooperative scheduler: operators are activated in
// round-robin order until none report progress, at which point the scope
// has drained everything available without new external input.
type Scope struct {
	operators []Operator
}

// NewScope creates an empty Scope.
func NewScope() *Scope {
	return &Scope{}
}

// Add registers op with the scope. Operators are activated in registration
// order each round.
func (s *Scope) Add(op Operator) {
	s.operators = append(s.operators, op)
}

// Run activates every live operator, repeating until a full round makes no
// progress across any operator, or every operator reports Done. Operators
// yield by returning; Run is the driver that keeps
// calling back in until there is genuinely nothing left to do with the
// inputs available right now. Callers push more external input (e.g. an
// Arrangement's upstream Stream.Send) and call Run again to make further
// progress.
func (s *Scope) Run() {
	for {
		progressed := false
		allDone := true

		for _, op := range s.operators {
			if op.Done() {
				continue
			}

			allDone = false

			if op.Activate() {
				progressed = true
			}
		}

		if allDone || !progressed {
			return
		}
	}
}

// Capability is a timestamp an operator holds, licensing it to send data at
// that time or any time greater-equal to it. Downgrading moves the held
// time forward; Drop releases it permanently. Capabilities are the
// mechanism by which a Scope's frontier tracking knows no operator will
// produce data behind a given time anymore.
type Capability[T lattice.Lattice[T]] struct {
	held    T
	dropped bool
	release func(T)
}

// NewCapability creates a capability held at t. release, if non-nil, is
// invoked on every Downgrade with the new time, and once more on the first
// Drop with the time held at that moment — the hook an owning operator uses
// to recompute its output frontier.
func NewCapability[T lattice.Lattice[T]](t T, release func(T)) *Capability[T] {
	return &Capability[T]{held: t, release: release}
}

// Time returns the timestamp currently held.
func (c *Capability[T]) Time() T {
	return c.held
}

// Downgrade moves the held time forward to t. t must be greater-equal to
// the currently held time; moving backward would let the operator claim it
// might still send at a time whose frontier has already passed, violating
// the monotone progress guarantee every downstream consumer relies on.
func (c *Capability[T]) Downgrade(t T) {
	if c.dropped {
		panic(ErrCapabilityDropped)
	}

	if !c.held.LessEqual(t) {
		panic(fmt.Errorf("%w: held %v, requested %v", ErrCapabilityBackward, c.held, t))
	}

	c.held = t

	if c.release != nil {
		c.release(t)
	}
}

// Drop releases the capability. Safe to call more than once; only the
// first call has effect.
func (c *Capability[T]) Drop() {
	if c.dropped {
		return
	}

	c.dropped = true

	if c.release != nil {
		c.release(c.held)
	}
}

// Dropped reports whether Drop has already been called.
func (c *Capability[T]) Dropped() bool {
	return c.dropped
}
