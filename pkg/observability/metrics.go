package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/NWuSunset/Red-Black-Tree/pkg/safeconv"
)

const (
	metricOperationsTotal   = "rbtree.operations.total"
	metricOperationDuration = "rbtree.operation.duration.seconds"
	metricKeys              = "rbtree.keys"
	metricRotationsTotal    = "rbtree.rotations.total"

	attrOp     = "op"
	attrStatus = "status"
)

// Operation outcomes recorded under the status attribute.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// durationBucketBoundaries covers 1µs to 10s: single-key operations sit at the
// low end, bulk file loads and hibernation at the high end.
var durationBucketBoundaries = []float64{
	0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 10,
}

// TreeMetrics holds the OTel instruments for tree operations.
type TreeMetrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	keys       metric.Int64UpDownCounter
	rotations  metric.Int64Counter
}

// NewTreeMetrics creates the tree instruments from mt.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	operations, err := mt.Int64Counter(metricOperationsTotal,
		metric.WithDescription("Total number of tree operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricOperationDuration,
		metric.WithDescription("Tree operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationDuration, err)
	}

	keys, err := mt.Int64UpDownCounter(metricKeys,
		metric.WithDescription("Number of keys currently stored"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricKeys, err)
	}

	rotations, err := mt.Int64Counter(metricRotationsTotal,
		metric.WithDescription("Total number of rotations performed by rebalancing"),
		metric.WithUnit("{rotation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRotationsTotal, err)
	}

	return &TreeMetrics{
		operations: operations,
		duration:   duration,
		keys:       keys,
		rotations:  rotations,
	}, nil
}

// RecordOp records one finished operation.
func (tm *TreeMetrics) RecordOp(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	tm.operations.Add(ctx, 1, attrs)
	tm.duration.Record(ctx, duration.Seconds(), attrs)
}

// AddKeys adjusts the live key gauge by delta, which may be negative.
func (tm *TreeMetrics) AddKeys(ctx context.Context, delta int64) {
	if delta == 0 {
		return
	}

	tm.keys.Add(ctx, delta)
}

// AddRotations counts rotations performed since the last call.
func (tm *TreeMetrics) AddRotations(ctx context.Context, count uint64) {
	if count == 0 {
		return
	}

	tm.rotations.Add(ctx, safeconv.MustUint64ToInt64(count))
}
