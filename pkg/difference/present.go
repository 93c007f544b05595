package difference

// Present is the zero-sized difference used for set-semantics collections:
// a tuple is either present or it is not. It has no negation (retracting a
// set element is modeled by removing its only entry, not by adding a
// negative one) and IsZero is always false: the type has one inhabitant
// and it never cancels. pkg/reduce's Reduce and Distinct require Abelian
// diffs and so reject Present at the type level: Present does not satisfy
// the Abelian constraint, so a caller cannot even instantiate
// Reduce[Present] — the rejection is a compile error, not a runtime panic.
// pkg/join.Join only requires Semigroup and accepts Present.
type Present struct{}

func (Present) Add(Present) Present { return Present{} }
func (Present) IsZero() bool        { return false }

var _ Semigroup[Present] = Present{}
