package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/yungbote/wishlist-backend/aggregates"

// AggregateHooks reports aggregate write outcomes as OpenTelemetry metrics.
// It satisfies aggregates.Hooks.
type AggregateHooks struct {
	latency   metric.Float64Histogram
	ops       metric.Int64Counter
	conflicts metric.Int64Counter
	retries   metric.Int64Counter
}

// NewAggregateHooks builds the instruments on mp, or on the global meter
// provider when mp is nil.
func NewAggregateHooks(mp metric.MeterProvider) (*AggregateHooks, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	latency, err := meter.Float64Histogram("aggregate.operation.duration",
		metric.WithDescription("Aggregate write latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	ops, err := meter.Int64Counter("aggregate.operation.count",
		metric.WithDescription("Aggregate writes by outcome"))
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Counter("aggregate.conflict.count",
		metric.WithDescription("Aggregate writes rejected by a concurrency or uniqueness conflict"))
	if err != nil {
		return nil, err
	}
	retries, err := meter.Int64Counter("aggregate.retryable.count",
		metric.WithDescription("Aggregate writes that failed with a retryable error"))
	if err != nil {
		return nil, err
	}
	return &AggregateHooks{latency: latency, ops: ops, conflicts: conflicts, retries: retries}, nil
}

func (h *AggregateHooks) ObserveOperation(name, status string, dur time.Duration) {
	if h == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", strings.TrimSpace(name)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	ctx := context.Background()
	h.latency.Record(ctx, dur.Seconds(), attrs)
	h.ops.Add(ctx, 1, attrs)
}

func (h *AggregateHooks) IncConflict(name string) {
	if h == nil {
		return
	}
	h.conflicts.Add(context.Background(), 1, metric.WithAttributes(attribute.String("operation", strings.TrimSpace(name))))
}

func (h *AggregateHooks) IncRetry(name string) {
	if h == nil {
		return
	}
	h.retries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("operation", strings.TrimSpace(name))))
}
