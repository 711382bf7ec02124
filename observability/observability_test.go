package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/streamgroup/errors"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "groupd", "dev", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "/v1/groups", 200, 100*time.Millisecond)
	metrics.RecordError(ctx, "INVALID_INPUT", "groupd")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestGroupMetricsRecordsEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	gm, err := NewGroupMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewGroupMetrics failed: %v", err)
	}

	ctx := context.Background()
	gm.KeyResolved(ctx, "g", 20*time.Millisecond)
	gm.GroupEmitted(ctx, "g", 3)
	gm.GroupEmitted(ctx, "g", 2)
	gm.Failed(ctx, "g", errors.KeyResolution(fmt.Errorf("boom")))

	got := collect(t, reader)
	if n := sumOf(t, got["grouping.groups"]); n != 2 {
		t.Errorf("expected 2 groups, got %d", n)
	}
	if n := sumOf(t, got["grouping.items"]); n != 5 {
		t.Errorf("expected 5 items, got %d", n)
	}
	if n := sumOf(t, got["grouping.failures"]); n != 1 {
		t.Errorf("expected 1 failure, got %d", n)
	}

	failures := got["grouping.failures"].(metricdata.Sum[int64])
	code, _ := failures.DataPoints[0].Attributes.Value(AttrErrorType)
	if code.AsString() != string(errors.ErrCodeKeyResolution) {
		t.Errorf("expected error type %s, got %s", errors.ErrCodeKeyResolution, code.AsString())
	}

	hist, ok := got["grouping.key.wait"].(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("expected one key wait observation, got %+v", got["grouping.key.wait"])
	}
}

func TestGroupMetricsSpanEvents(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	gm, err := NewGroupMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewGroupMetrics failed: %v", err)
	}

	ctx, span := tp.Tracer("test").Start(context.Background(), SpanGroupStream)
	gm.GroupEmitted(ctx, "g", 4)
	gm.Failed(ctx, "g", fmt.Errorf("source broke"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	var sawGroup, sawError bool
	for _, ev := range spans[0].Events() {
		switch ev.Name {
		case "group.emitted":
			sawGroup = true
		case "exception":
			sawError = true
		}
	}
	if !sawGroup || !sawError {
		t.Errorf("expected group.emitted and exception events, got %+v", spans[0].Events())
	}
}

func TestStartSpanAndAttributes(t *testing.T) {
	ctx, span := StartSpan(context.Background(), SpanHTTPRequest)
	defer span.End()

	// The global provider is a no-op here; these must not panic.
	SetSpanAttribute(ctx, AttrKeyPath, "user.id")
	SetSpanAttribute(ctx, AttrGroupCount, 3)
	SetSpanError(ctx, fmt.Errorf("x"))
	if SpanFromContext(ctx) == nil {
		t.Fatal("expected span in context")
	}
}

func TestSetSpanAttributeRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	SetSpanAttribute(ctx, AttrKeyPath, "user.id")
	SetSpanAttribute(ctx, AttrGroupCount, 2)
	SetSpanAttribute(ctx, "ignored", struct{}{})
	span.End()

	attrs := recorder.Ended()[0].Attributes()
	if len(attrs) != 2 {
		t.Errorf("expected 2 attributes, got %v", attrs)
	}
}

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("groupd", "dev")
	sh.AddComponent(Health{Name: "a", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("expected up, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "b", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "c", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "d", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("degraded must not override down, got %s", sh.Status)
	}
}

func TestHealthRegistryCheck(t *testing.T) {
	reg := NewHealthRegistry("groupd", "dev")
	reg.Register("telemetry", func(context.Context) Health {
		return Health{Status: HealthStatusDegraded, Message: "exporter disabled"}
	})
	reg.Register("grouping", func(context.Context) Health {
		return Health{Status: HealthStatusUp}
	})

	sh := reg.Check(context.Background())
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	if len(sh.Components) != 2 || sh.Components[0].Name != "grouping" || sh.Components[1].Name != "telemetry" {
		t.Errorf("expected components sorted by name, got %+v", sh.Components)
	}
}
