// Package collection implements the external Collection API: the
// operations a front-end composes over differential updates without
// touching the trace/batch/cursor machinery directly. A Collection here
// is the materialized form of a timestamped stream of (data, time, diff)
// triples — for a single batch of updates processed to completion, a
// stream and its fully-drained contents coincide, so the slice-based
// representation below loses nothing a front-end needs while staying
// simple to compose.
package collection

import (
	"github.com/differo/differo/pkg/difference"
)

// Update is one (data, time, diff) differential triple.
type Update[D any, T any, R any] struct {
	Data D
	Time T
	Diff R
}

// Collection is a materialized batch of updates.
type Collection[D any, T any, R any] struct {
	Updates []Update[D, T, R]
}

// New wraps updates as a Collection.
func New[D any, T any, R any](updates []Update[D, T, R]) *Collection[D, T, R] {
	return &Collection[D, T, R]{Updates: updates}
}

// Map applies f to every update's data, preserving time and diff.
func Map[D any, T any, R any, D2 any](c *Collection[D, T, R], f func(D) D2) *Collection[D2, T, R] {
	out := make([]Update[D2, T, R], len(c.Updates))
	for i, u := range c.Updates {
		out[i] = Update[D2, T, R]{Data: f(u.Data), Time: u.Time, Diff: u.Diff}
	}

	return &Collection[D2, T, R]{Updates: out}
}

// Filter keeps only updates whose data satisfies pred.
func Filter[D any, T any, R any](c *Collection[D, T, R], pred func(D) bool) *Collection[D, T, R] {
	var out []Update[D, T, R]

	for _, u := range c.Updates {
		if pred(u.Data) {
			out = append(out, u)
		}
	}

	return &Collection[D, T, R]{Updates: out}
}

// FlatMap expands each update's data into zero or more outputs, each
// carrying the original time and diff.
func FlatMap[D any, T any, R any, D2 any](c *Collection[D, T, R], f func(D) []D2) *Collection[D2, T, R] {
	var out []Update[D2, T, R]

	for _, u := range c.Updates {
		for _, d2 := range f(u.Data) {
			out = append(out, Update[D2, T, R]{Data: d2, Time: u.Time, Diff: u.Diff})
		}
	}

	return &Collection[D2, T, R]{Updates: out}
}

// Concat appends b's updates after a's, with no deduplication — two
// collections concatenated may carry cancelling updates that only
// Consolidate removes.
func Concat[D any, T any, R any](a, b *Collection[D, T, R]) *Collection[D, T, R] {
	out := make([]Update[D, T, R], 0, len(a.Updates)+len(b.Updates))
	out = append(out, a.Updates...)
	out = append(out, b.Updates...)

	return &Collection[D, T, R]{Updates: out}
}

// Negate flips the sign of every diff, the building block Concat(c,
// Negate(c)) uses to express retraction.
func Negate[D any, T any, R difference.Abelian[R]](c *Collection[D, T, R]) *Collection[D, T, R] {
	out := make([]Update[D, T, R], len(c.Updates))
	for i, u := range c.Updates {
		out[i] = Update[D, T, R]{Data: u.Data, Time: u.Time, Diff: u.Diff.Neg()}
	}

	return &Collection[D, T, R]{Updates: out}
}
