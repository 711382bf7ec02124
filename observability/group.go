package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamgroup/errors"
)

// GroupMetrics records grouping engine events as OpenTelemetry metrics and,
// when the context carries a recording span, as span events. It implements
// pipeline.GroupObserver.
type GroupMetrics struct {
	groups    metric.Int64Counter
	items     metric.Int64Counter
	groupSize metric.Int64Histogram
	keyWait   metric.Float64Histogram
	failures  metric.Int64Counter
}

// NewGroupMetrics creates the grouping instruments on the given meter.
func NewGroupMetrics(meter metric.Meter) (*GroupMetrics, error) {
	groups, err := meter.Int64Counter("grouping.groups",
		metric.WithDescription("Groups emitted by grouping engines"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating grouping.groups counter: %w", err)
	}

	items, err := meter.Int64Counter("grouping.items",
		metric.WithDescription("Items delivered inside emitted groups"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating grouping.items counter: %w", err)
	}

	groupSize, err := meter.Int64Histogram("grouping.group.size",
		metric.WithDescription("Number of items per emitted group"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating grouping.group.size histogram: %w", err)
	}

	keyWait, err := meter.Float64Histogram("grouping.key.wait",
		metric.WithDescription("Time between submitting a key computation and its completion"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating grouping.key.wait histogram: %w", err)
	}

	failures, err := meter.Int64Counter("grouping.failures",
		metric.WithDescription("Grouping streams terminated by a source or key failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating grouping.failures counter: %w", err)
	}

	return &GroupMetrics{
		groups:    groups,
		items:     items,
		groupSize: groupSize,
		keyWait:   keyWait,
		failures:  failures,
	}, nil
}

// KeyResolved records how long a key computation took to complete.
func (m *GroupMetrics) KeyResolved(ctx context.Context, name string, wait time.Duration) {
	m.keyWait.Record(ctx, wait.Seconds(), metric.WithAttributes(attribute.String(AttrGroupingName, name)))
}

// GroupEmitted counts an emitted group and its items.
func (m *GroupMetrics) GroupEmitted(ctx context.Context, name string, size int) {
	attrs := metric.WithAttributes(attribute.String(AttrGroupingName, name))
	m.groups.Add(ctx, 1, attrs)
	m.items.Add(ctx, int64(size), attrs)
	m.groupSize.Record(ctx, int64(size), attrs)

	if span := SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("group.emitted", trace.WithAttributes(
			attribute.String(AttrGroupingName, name),
			attribute.Int(AttrGroupSize, size),
		))
	}
}

// Failed counts a terminated stream by error type and records the error on
// the current span.
func (m *GroupMetrics) Failed(ctx context.Context, name string, err error) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrGroupingName, name),
		attribute.String(AttrErrorType, errorType(err)),
	))
	SetSpanError(ctx, err)
}

func errorType(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "unknown"
}
