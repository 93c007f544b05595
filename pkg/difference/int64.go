package difference

// Int64 is the default difference type: a signed multiplicity, as used by
// every bag-semantics collection in the examples (record counts, join
// multiplicities, reduce accumulators).
type Int64 int64

func (d Int64) Add(other Int64) Int64 { return d + other }
func (d Int64) IsZero() bool          { return d == 0 }
func (d Int64) Zero() Int64           { return 0 }
func (d Int64) Neg() Int64            { return -d }

var (
	_ Semigroup[Int64] = Int64(0)
	_ Monoid[Int64]    = Int64(0)
	_ Abelian[Int64]   = Int64(0)
)
