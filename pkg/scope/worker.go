package scope

import "github.com/differo/differo/pkg/safeconv"

// Worker identifies one of a fixed pool of cooperating workers, each
// running its own Scope exclusively and owning an independently partitioned
// set of arrangements keyed by a hash exchange on the join/reduce key.
// There is no shared-memory mutation between workers in this runtime; a
// multi-worker example front-end runs
// one Scope per Worker on its own goroutine and routes cross-worker data
// through application-level channels, not through this package.
type Worker struct {
	Index int
	Count int
}

// NewWorker returns a Worker describing position index of count total
// workers.
func NewWorker(index, count int) Worker {
	return Worker{Index: index, Count: count}
}

// Owns reports whether this worker is responsible for key, per hash.
func (w Worker) Owns(hash uint64) bool {
	if w.Count <= 1 {
		return true
	}

	return safeconv.MustUintToInt(uint(hash%uint64(w.Count))) == w.Index
}

// HashExchange computes the destination worker index for key among
// workerCount workers, using hash as the key's hash function. Keys are
// generic because this runtime places no ordering requirement on what a
// join/reduce key looks like for exchange purposes — only the hash matters.
func HashExchange[K any](key K, hash func(K) uint64, workerCount int) int {
	if workerCount <= 1 {
		return 0
	}

	return safeconv.MustUintToInt(uint(hash(key) % uint64(workerCount)))
}

// FNV1a64 is a small, dependency-free string hash suitable for
// HashExchange's hash argument when keys are strings — the default hash
// example front-ends use for graph node ids and TPC-H join keys.
func FNV1a64(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)

	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}

	return h
}
