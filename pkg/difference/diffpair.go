package difference

// DiffPair tracks two independent difference accumulators side by side —
// for example "count" and "sum" maintained together by a single Reduce pass
// over a query's aggregate clause.
type DiffPair[R1 Semigroup[R1], R2 Semigroup[R2]] struct {
	Element1 R1
	Element2 R2
}

func NewDiffPair[R1 Semigroup[R1], R2 Semigroup[R2]](e1 R1, e2 R2) DiffPair[R1, R2] {
	return DiffPair[R1, R2]{Element1: e1, Element2: e2}
}

func (d DiffPair[R1, R2]) Add(other DiffPair[R1, R2]) DiffPair[R1, R2] {
	return DiffPair[R1, R2]{
		Element1: d.Element1.Add(other.Element1),
		Element2: d.Element2.Add(other.Element2),
	}
}

func (d DiffPair[R1, R2]) IsZero() bool {
	return d.Element1.IsZero() && d.Element2.IsZero()
}

// diffPairMonoid and diffPairAbelian are satisfied when both coordinates
// satisfy the stronger constraint; Go's generic system has no way to express
// "DiffPair is Monoid iff R1 and R2 are Monoid" as a single conditional
// interface, so the zero/negation methods are only reachable through these
// helper constructors used by callers that know both coordinates qualify.

func ZeroDiffPair[R1 Monoid[R1], R2 Monoid[R2]]() DiffPair[R1, R2] {
	var r1 R1

	var r2 R2

	return DiffPair[R1, R2]{Element1: r1.Zero(), Element2: r2.Zero()}
}

func NegDiffPair[R1 Abelian[R1], R2 Abelian[R2]](d DiffPair[R1, R2]) DiffPair[R1, R2] {
	return DiffPair[R1, R2]{Element1: d.Element1.Neg(), Element2: d.Element2.Neg()}
}

var _ Semigroup[DiffPair[Int64, Int64]] = DiffPair[Int64, Int64]{}
