package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricBatchesInserted = "differo.spine.batches.total"
	metricMergesTotal     = "differo.spine.merges.total"
	metricMergeFuelSpent  = "differo.spine.merge.fuel.total"
	metricMergeDuration   = "differo.spine.merge.duration.seconds"
	metricTuplesTotal     = "differo.spine.tuples.total"

	attrOutcome = "outcome"

	outcomeFinished = "finished"
	outcomePartial  = "partial"
)

// SpineMetrics holds OTel instruments for the trace/spine's merge
// schedule: how many batches a spine has accepted, how much fuel its
// mergers have spent, and how many tuples a batch contributed.
type SpineMetrics struct {
	batchesInserted metric.Int64Counter
	mergesTotal     metric.Int64Counter
	fuelSpent       metric.Int64Counter
	mergeDuration   metric.Float64Histogram
	tuplesTotal     metric.Int64Counter
}

// NewSpineMetrics creates spine metric instruments from the given meter.
func NewSpineMetrics(mt metric.Meter) (*SpineMetrics, error) {
	batches, err := mt.Int64Counter(metricBatchesInserted,
		metric.WithDescription("Total batches inserted into spines"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBatchesInserted, err)
	}

	merges, err := mt.Int64Counter(metricMergesTotal,
		metric.WithDescription("Total merge work units performed"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMergesTotal, err)
	}

	fuel, err := mt.Int64Counter(metricMergeFuelSpent,
		metric.WithDescription("Total fuel spent merging batches"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMergeFuelSpent, err)
	}

	dur, err := mt.Float64Histogram(metricMergeDuration,
		metric.WithDescription("Wall-clock time spent per merge work() call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMergeDuration, err)
	}

	tuples, err := mt.Int64Counter(metricTuplesTotal,
		metric.WithDescription("Total tuples accepted into spines"),
		metric.WithUnit("{tuple}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTuplesTotal, err)
	}

	return &SpineMetrics{
		batchesInserted: batches,
		mergesTotal:     merges,
		fuelSpent:       fuel,
		mergeDuration:   dur,
		tuplesTotal:     tuples,
	}, nil
}

// RecordInsert records one batch being accepted by a spine.
// Safe to call on a nil receiver (no-op), so callers need not guard every
// call site with a nil check when metrics are disabled.
func (sm *SpineMetrics) RecordInsert(ctx context.Context, tupleCount int64) {
	if sm == nil {
		return
	}

	sm.batchesInserted.Add(ctx, 1)
	sm.tuplesTotal.Add(ctx, tupleCount)
}

// RecordMerge records one merger.Work call's fuel spend and duration. The
// signature uses only standard-library types (not a local struct) so that
// any package can satisfy a duck-typed recorder interface for it without
// importing pkg/observability.
func (sm *SpineMetrics) RecordMerge(ctx context.Context, fuelSpent int64, duration time.Duration, finished bool) {
	if sm == nil {
		return
	}

	outcome := outcomePartial
	if finished {
		outcome = outcomeFinished
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))

	sm.mergesTotal.Add(ctx, 1, attrs)
	sm.fuelSpent.Add(ctx, fuelSpent, attrs)
	sm.mergeDuration.Record(ctx, duration.Seconds(), attrs)
}
