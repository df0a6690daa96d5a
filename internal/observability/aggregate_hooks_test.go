package observability

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestAggregateHooksOnNoopProvider(t *testing.T) {
	h, err := NewAggregateHooks(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewAggregateHooks: %v", err)
	}
	h.ObserveOperation("SecretSanta.Start", "success", 5*time.Millisecond)
	h.IncConflict("SecretSanta.Start")
	h.IncRetry("SecretSanta.Start")

	var nilHooks *AggregateHooks
	nilHooks.ObserveOperation("x", "y", time.Second)
	nilHooks.IncConflict("x")
	nilHooks.IncRetry("x")
}

func TestAggregateHooksRecordThroughSDKProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProvider(nil, reader)
	h, err := NewAggregateHooks(mp)
	if err != nil {
		t.Fatalf("NewAggregateHooks: %v", err)
	}
	h.ObserveOperation("SecretSanta.Start", "success", 5*time.Millisecond)
	h.ObserveOperation("SecretSanta.Start", "success", 7*time.Millisecond)
	h.ObserveOperation("SecretSanta.Start", "conflict", time.Millisecond)
	h.IncConflict("SecretSanta.Start")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != meterName {
			continue
		}
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}

	ops, ok := byName["aggregate.operation.count"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("aggregate.operation.count: want Sum[int64], got %T", byName["aggregate.operation.count"].Data)
	}
	success := attribute.NewSet(
		attribute.String("operation", "SecretSanta.Start"),
		attribute.String("status", "success"),
	)
	var got int64
	for _, dp := range ops.DataPoints {
		if dp.Attributes.Equals(&success) {
			got = dp.Value
		}
	}
	if got != 2 {
		t.Fatalf("success count: want=2 got=%d", got)
	}

	hist, ok := byName["aggregate.operation.duration"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("aggregate.operation.duration: want Histogram[float64], got %T", byName["aggregate.operation.duration"].Data)
	}
	var samples uint64
	for _, dp := range hist.DataPoints {
		samples += dp.Count
	}
	if samples != 3 {
		t.Fatalf("duration samples: want=3 got=%d", samples)
	}

	conflicts, ok := byName["aggregate.conflict.count"].Data.(metricdata.Sum[int64])
	if !ok || len(conflicts.DataPoints) != 1 || conflicts.DataPoints[0].Value != 1 {
		t.Fatalf("aggregate.conflict.count: want one point of 1, got %+v", byName["aggregate.conflict.count"].Data)
	}
	if _, ok := byName["aggregate.retryable.count"]; ok {
		t.Fatalf("aggregate.retryable.count: want no data before a retry is recorded")
	}

	if err := mp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestInitOTelDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{Enabled: false})
	if shutdown == nil {
		t.Fatalf("shutdown must never be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestClampRatio(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0.25: 0.25, 3: 1}
	for in, want := range cases {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v): want=%v got=%v", in, want, got)
		}
	}
}
