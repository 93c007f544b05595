// Package snapshot persists the contents of a trace.Handle to disk and
// restores it back into a fresh spine, so a long-running arrangement can
// resume from its last-observed state instead of replaying every update
// from the beginning. It is the batch-oriented counterpart to this
// module's earlier, analyzer-specific checkpointing: the same
// directory/retention/codec plumbing, re-pointed at a single generic
// concept — an arrangement's current tuples — instead of a fixed set of
// named analyzer states.
package snapshot

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/differo/differo/pkg/batch"
	"github.com/differo/differo/pkg/cursor"
	"github.com/differo/differo/pkg/difference"
	"github.com/differo/differo/pkg/lattice"
	"github.com/differo/differo/pkg/persist"
	"github.com/differo/differo/pkg/trace"
)

// Version is the current snapshot metadata format.
const Version = 1

// Default retention values, unchanged from the prior analyzer checkpoints:
// a snapshot older than MaxAge or a snapshot directory larger than MaxSize
// is a candidate for Prune to remove.
const (
	DefaultMaxAge  = 7 * 24 * time.Hour
	DefaultMaxSize = 1 << 30
)

const dirPerm = 0o750

// ErrArrangementMismatch reports that a snapshot on disk was built for a
// different arrangement than the one attempting to load it.
var ErrArrangementMismatch = errors.New("snapshot: arrangement id mismatch")

// Tuple is one (key, value, time, diff) entry, the serializable shape a
// Batch's cursor is flattened into for storage — Batch itself keeps its
// fields unexported, so snapshotting goes through its cursor rather than
// its internal slices.
type Tuple[K any, V any, T any, R any] struct {
	Key  K
	Val  V
	Time T
	Diff R
}

// State is the on-disk representation of one arrangement's current
// contents: every tuple plus the frontier it was taken at.
type State[K any, V any, T any, R any] struct {
	Lower  []T
	Upper  []T
	Tuples []Tuple[K, V, T, R]
}

// Metadata records what a snapshot directory holds, so Load can refuse a
// snapshot that does not belong to the arrangement asking for it.
type Metadata struct {
	Version       int    `json:"version"`
	ArrangementID string `json:"arrangement_id"`
	CreatedAt     string `json:"created_at"`
}

// ID derives a stable directory-safe identifier for an arrangement from a
// caller-chosen name (e.g. "graph.reachable" or a TPC-H query number).
func ID(name string) string {
	h := sha256.Sum256([]byte(name))

	return hex.EncodeToString(h[:8])
}

// Manager persists and restores snapshots for one arrangement under
// BaseDir/ArrangementID.
type Manager[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]] struct {
	BaseDir       string
	ArrangementID string
	MaxAge        time.Duration
	MaxSize       int64

	persister *persist.Persister[State[K, V, T, R]]
}

// NewManager creates a Manager for arrangementID rooted at baseDir, using
// codec to serialize snapshot state (persist.NewJSONCodec or
// persist.NewGobCodec).
func NewManager[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](
	baseDir, arrangementID string, codec persist.Codec,
) *Manager[K, V, T, R] {
	return &Manager[K, V, T, R]{
		BaseDir:       baseDir,
		ArrangementID: arrangementID,
		MaxAge:        DefaultMaxAge,
		MaxSize:       DefaultMaxSize,
		persister:     persist.NewPersister[State[K, V, T, R]]("snapshot", codec),
	}
}

// Dir returns the directory this manager reads and writes.
func (m *Manager[K, V, T, R]) Dir() string {
	return filepath.Join(m.BaseDir, m.ArrangementID)
}

func (m *Manager[K, V, T, R]) metadataPath() string {
	return filepath.Join(m.Dir(), "metadata.json")
}

// Exists reports whether a snapshot is already on disk.
func (m *Manager[K, V, T, R]) Exists() bool {
	_, err := os.Stat(m.metadataPath())

	return err == nil
}

// Clear removes this arrangement's snapshot directory entirely.
func (m *Manager[K, V, T, R]) Clear() error {
	_, statErr := os.Stat(m.Dir())
	if os.IsNotExist(statErr) {
		return nil
	}

	if err := os.RemoveAll(m.Dir()); err != nil {
		return fmt.Errorf("remove snapshot dir: %w", err)
	}

	return nil
}

// Prune removes the snapshot when it has outlived MaxAge or its directory
// has grown past MaxSize, reporting whether a removal happened. A pruned
// snapshot simply forces the next start to rebuild from scratch, so
// over-eager retention settings cost time, not correctness.
func (m *Manager[K, V, T, R]) Prune() (bool, error) {
	if !m.Exists() {
		return false, nil
	}

	var meta Metadata
	if err := persist.LoadState(m.Dir(), "metadata", persist.NewJSONCodec(), &meta); err != nil {
		// An unreadable metadata file is itself grounds for removal.
		return true, m.Clear()
	}

	createdAt, err := time.Parse(time.RFC3339, meta.CreatedAt)
	if err != nil || time.Since(createdAt) > m.MaxAge {
		return true, m.Clear()
	}

	size, err := dirSize(m.Dir())
	if err != nil {
		return false, fmt.Errorf("measure snapshot dir: %w", err)
	}

	if size > m.MaxSize {
		return true, m.Clear()
	}

	return false, nil
}

func dirSize(dir string) (int64, error) {
	var total int64

	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		total += info.Size()

		return nil
	})

	return total, err
}

// Save flattens handle's current contents into a Tuple list and writes it,
// alongside metadata, to disk.
func (m *Manager[K, V, T, R]) Save(handle *trace.Handle[K, V, T, R]) error {
	if err := os.MkdirAll(m.Dir(), dirPerm); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	state := toState(handle.Cursor(), handle.Lower(), handle.Upper())

	if err := m.persister.Save(m.Dir(), func() *State[K, V, T, R] { return state }); err != nil {
		return fmt.Errorf("save snapshot state: %w", err)
	}

	meta := Metadata{Version: Version, ArrangementID: m.ArrangementID, CreatedAt: time.Now().UTC().Format(time.RFC3339)}

	metaCodec := persist.NewJSONCodec()
	if err := persist.SaveState(m.Dir(), "metadata", metaCodec, meta); err != nil {
		return fmt.Errorf("save snapshot metadata: %w", err)
	}

	return nil
}

// Load reads the snapshot back and builds a fresh Batch covering its
// recorded [lower, upper), ready to be inserted into a new spine via
// trace.Handle.Insert.
func (m *Manager[K, V, T, R]) Load() (*batch.Batch[K, V, T, R], error) {
	var meta Metadata

	metaCodec := persist.NewJSONCodec()
	if err := persist.LoadState(m.Dir(), "metadata", metaCodec, &meta); err != nil {
		return nil, fmt.Errorf("load snapshot metadata: %w", err)
	}

	if meta.ArrangementID != m.ArrangementID {
		return nil, fmt.Errorf("%w: snapshot has %q, want %q", ErrArrangementMismatch, meta.ArrangementID, m.ArrangementID)
	}

	var state State[K, V, T, R]
	if err := m.persister.Load(m.Dir(), func(s *State[K, V, T, R]) { state = *s }); err != nil {
		return nil, fmt.Errorf("load snapshot state: %w", err)
	}

	return fromState(state), nil
}

func toState[K any, V any, T any, R any](c cursor.Cursor[K, V, T, R], lower, upper *lattice.Antichain[T]) *State[K, V, T, R] {
	state := &State[K, V, T, R]{Lower: lower.Elements(), Upper: upper.Elements()}

	for c.KeyValid() {
		k := c.Key()

		for c.ValValid() {
			v := c.Val()

			c.MapTimes(func(t T, d R) {
				state.Tuples = append(state.Tuples, Tuple[K, V, T, R]{Key: k, Val: v, Time: t, Diff: d})
			})
			c.StepVal()
		}

		c.StepKey()
	}

	return state
}

func fromState[K cmp.Ordered, V cmp.Ordered, T lattice.Lattice[T], R difference.Semigroup[R]](state State[K, V, T, R]) *batch.Batch[K, V, T, R] {
	builder := batch.NewBuilder[K, V, T, R](len(state.Tuples))
	for _, tup := range state.Tuples {
		builder.Push(tup.Key, tup.Val, tup.Time, tup.Diff)
	}

	return builder.Done(lattice.NewAntichain(state.Lower...), lattice.NewAntichain(state.Upper...), nil)
}
