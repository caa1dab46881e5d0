package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry instruments for the collection service.
// They export through whatever meter provider is installed globally, which
// is a no-op until InitOTel runs.
type OTelMetrics struct {
	collections        metric.Int64Counter
	collectionDuration metric.Float64Histogram
	collectionNodes    metric.Int64Histogram
	collectionErrors   metric.Int64Counter
	descriptorWrites   metric.Int64Counter
}

// NewOTelMetrics creates the instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter("github.com/platinummonkey/depcollect")

	m := &OTelMetrics{}
	var err error

	m.collections, err = meter.Int64Counter(
		"depcollect.collections",
		metric.WithDescription("Total number of dependency collections"),
		metric.WithUnit("{collection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collections counter: %w", err)
	}

	m.collectionDuration, err = meter.Float64Histogram(
		"depcollect.collection.duration",
		metric.WithDescription("Dependency collection duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection duration histogram: %w", err)
	}

	m.collectionNodes, err = meter.Int64Histogram(
		"depcollect.collection.nodes",
		metric.WithDescription("Number of nodes in a collected tree"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection nodes histogram: %w", err)
	}

	m.collectionErrors, err = meter.Int64Counter(
		"depcollect.collection.errors",
		metric.WithDescription("Errors recorded during collection"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection errors counter: %w", err)
	}

	m.descriptorWrites, err = meter.Int64Counter(
		"depcollect.descriptor.writes",
		metric.WithDescription("Descriptors published to the store"),
		metric.WithUnit("{descriptor}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create descriptor writes counter: %w", err)
	}

	return m, nil
}

// RecordCollection records one Collect call made on behalf of a client
func (m *OTelMetrics) RecordCollection(ctx context.Context, source string, duration time.Duration, nodes, errors int) {
	if m == nil {
		return
	}
	status := "success"
	if errors > 0 {
		status = "partial"
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)
	m.collections.Add(ctx, 1, attrs)
	m.collectionDuration.Record(ctx, duration.Seconds(), attrs)
	m.collectionNodes.Record(ctx, int64(nodes), attrs)
	if errors > 0 {
		m.collectionErrors.Add(ctx, int64(errors), attrs)
	}
}

// RecordDescriptorWrite records a descriptor published to a store
func (m *OTelMetrics) RecordDescriptorWrite(ctx context.Context, store string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.descriptorWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store", store),
		attribute.String("status", status),
	))
}
