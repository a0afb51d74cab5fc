// Package observe holds the OpenTelemetry instruments recorded by memgraph.
//
// Instruments are created from a [metric.MeterProvider]. Production code
// uses [DefaultMetrics], which reads the global provider installed by
// [InitProvider]; tests build their own with [NewMetrics] and a ManualReader.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "memgraph"

// Attempt statuses recorded on RemoteAttempts
const (
	AttemptOK          = "ok"
	AttemptRateLimited = "rate_limited"
	AttemptFailed      = "failed"
)

// Metrics holds every instrument. The OTel types synchronise themselves.
type Metrics struct {
	// RemoteRequests counts finished Complete calls by outcome
	RemoteRequests metric.Int64Counter

	// RemoteAttempts counts individual HTTP attempts by status
	RemoteAttempts metric.Int64Counter

	// RemoteBackoff tracks time spent waiting between attempts
	RemoteBackoff metric.Float64Histogram

	// RemoteDuration tracks the whole Complete call including waits
	RemoteDuration metric.Float64Histogram

	// SnapshotDuration tracks save and load latency. Attribute: op
	SnapshotDuration metric.Float64Histogram

	// SnapshotDocuments counts documents written or read.
	// Attributes: op, collection
	SnapshotDocuments metric.Int64Counter

	// MemorizeTopics counts topics stored by the memorizer
	MemorizeTopics metric.Int64Counter

	// HTTPRequestDuration tracks API latency. Attributes: method, route, status
	HTTPRequestDuration metric.Float64Histogram
}

// Remote calls can wait tens of seconds between attempts
var remoteBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60, 120,
}

var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates every instrument from mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RemoteRequests, err = m.Int64Counter("memgraph.remote.requests",
		metric.WithDescription("Completed remote text requests by outcome."),
	); err != nil {
		return nil, err
	}
	if met.RemoteAttempts, err = m.Int64Counter("memgraph.remote.attempts",
		metric.WithDescription("HTTP attempts against the remote text endpoint by status."),
	); err != nil {
		return nil, err
	}
	if met.RemoteBackoff, err = m.Float64Histogram("memgraph.remote.backoff",
		metric.WithDescription("Time waited before retrying a remote request."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(remoteBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RemoteDuration, err = m.Float64Histogram("memgraph.remote.duration",
		metric.WithDescription("Total latency of a remote text request including retries."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(remoteBuckets...),
	); err != nil {
		return nil, err
	}

	if met.SnapshotDuration, err = m.Float64Histogram("memgraph.snapshot.duration",
		metric.WithDescription("Latency of graph snapshot save and load."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SnapshotDocuments, err = m.Int64Counter("memgraph.snapshot.documents",
		metric.WithDescription("Documents written or read by snapshot operations."),
	); err != nil {
		return nil, err
	}

	if met.MemorizeTopics, err = m.Int64Counter("memgraph.memorize.topics",
		metric.WithDescription("Topics stored in the graph by the memorizer."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("memgraph.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance built from the global
// meter provider on first use
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordAttempt counts one HTTP attempt
func (m *Metrics) RecordAttempt(ctx context.Context, model, status string) {
	m.RemoteAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("status", status),
	))
}

// RecordBackoff records one wait between attempts
func (m *Metrics) RecordBackoff(ctx context.Context, reason string, wait time.Duration) {
	m.RemoteBackoff.Record(ctx, wait.Seconds(), metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordRequest records the end of a Complete call
func (m *Metrics) RecordRequest(ctx context.Context, model, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	)
	m.RemoteRequests.Add(ctx, 1, attrs)
	m.RemoteDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordSnapshot records a snapshot save or load
func (m *Metrics) RecordSnapshot(ctx context.Context, op string, elapsed time.Duration, nodes, edges int) {
	m.SnapshotDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("op", op),
	))
	m.SnapshotDocuments.Add(ctx, int64(nodes), metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("collection", "nodes"),
	))
	m.SnapshotDocuments.Add(ctx, int64(edges), metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("collection", "edges"),
	))
}

// RecordHTTPRequest records one served API request
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}
