package reduce

import "github.com/differo/differo/pkg/difference"

// Distinct is the dedicated fast path for set semantics over totally
// ordered time: rather than running the general interesting-times closure,
// it tracks a running multiplicity per identity and reports a transition
// only when "is present" (multiplicity != 0) flips, emitting the matching
// +1/-1 Int64 delta. Correctness of this shortcut depends on updates for a
// given identity arriving in non-decreasing time order, which total order
// on T guarantees.
type Distinct[ID comparable, R difference.Abelian[R]] struct {
	mult map[ID]R
}

// NewDistinct creates an empty Distinct tracker.
func NewDistinct[ID comparable, R difference.Abelian[R]]() *Distinct[ID, R] {
	return &Distinct[ID, R]{mult: map[ID]R{}}
}

// Step applies one (identity, diff) update — the next one in time order for
// id — and reports the Int64 delta to emit, if any.
func (d *Distinct[ID, R]) Step(id ID, diff R) (delta difference.Int64, changed bool) {
	before := d.mult[id]
	after := before.Add(diff)

	wasPresent := !before.IsZero()
	isPresent := !after.IsZero()

	if after.IsZero() {
		delete(d.mult, id)
	} else {
		d.mult[id] = after
	}

	switch {
	case !wasPresent && isPresent:
		return 1, true
	case wasPresent && !isPresent:
		return -1, true
	default:
		return 0, false
	}
}
