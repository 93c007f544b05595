// Package config provides YAML-based configuration for differo.
package config

import "github.com/differo/differo/pkg/units"

// Scope defaults.
const (
	DefaultScopeWorkers    = 4
	DefaultScopeBufferSize = 1024
)

// Spine defaults.
const (
	DefaultSpineFuelRatio     = 4
	DefaultSpineCompactionLag = 1
)

// Batcher defaults.
const (
	DefaultBatcherMergeThreshold = 4 * units.KiB
	DefaultBatcherArenaSize      = 64 * units.KiB
)

// Runtime memory-tuning defaults: GOGC, a soft memory limit, and a
// ballast reserved to smooth GC pacing under a large working set.
const (
	DefaultRuntimeGOGC        = 100
	DefaultRuntimeMemoryLimit = ""
	DefaultRuntimeBallastSize = "0"
)

// Snapshot defaults.
const (
	DefaultSnapshotEnabled   = false
	DefaultSnapshotDirectory = "/tmp/differo-snapshots"
	DefaultSnapshotCodec     = "json"
	DefaultSnapshotCompress  = false
	DefaultSnapshotMaxSize   = units.GiB
)

// Observability defaults.
const (
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultTracingEnabled = false
	DefaultMetricsEnabled = false
	DefaultMetricsAddr    = ":9090"
)

// Server defaults.
const (
	DefaultServerPort = 8080
	DefaultServerHost = "0.0.0.0"
)
