// Package observe provides application-wide observability primitives for
// Orthoglossa: OpenTelemetry metrics, tracing helpers, and trace-enriched
// structured logging.
//
// Everything is recorded through the OpenTelemetry Metrics API; [InitProvider]
// wires a Prometheus exporter bridge underneath so the instruments surface on
// the usual /metrics endpoint. Production code shares the [DefaultMetrics]
// instance, while tests construct their own via [NewMetrics] with an isolated
// [metric.MeterProvider].
package observe

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for every Orthoglossa instrument.
const meterName = "github.com/klambros/orthoglossa"

// Metrics bundles the application's metric instruments. OTel instruments
// synchronise internally, so a single Metrics value serves all goroutines.
type Metrics struct {
	// Pipeline latency.

	// PassageFetchDuration tracks passage-service lookup latency.
	PassageFetchDuration metric.Float64Histogram

	// LLMDuration tracks model completion latency.
	LLMDuration metric.Float64Histogram

	// Volume counters.

	// PassageRequests counts passage-service calls, attributed by book,
	// lang, and status.
	PassageRequests metric.Int64Counter

	// CommandsProcessed counts processed user turns, attributed by kind.
	CommandsProcessed metric.Int64Counter

	// DictionaryMatches counts terminology matches emitted across queries.
	DictionaryMatches metric.Int64Counter

	// DictionaryReloads counts terminology store loads and reloads.
	DictionaryReloads metric.Int64Counter

	// DictionaryTerms reports how many terminology entries are currently
	// loaded; recorded after every store load.
	DictionaryTerms metric.Int64Gauge

	// Failures.

	// ProviderErrors counts provider failures, attributed by provider and
	// kind.
	ProviderErrors metric.Int64Counter

	// Middleware.

	// HTTPRequestDuration tracks request handling time on the metrics
	// listener, attributed by method and path.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets covers 10ms local lookups up to minute-long completions,
// in seconds.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics registers every instrument on a meter from mp and returns the
// populated Metrics, or the joined errors of the instruments that failed.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	var errs []error

	latency := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		)
		errs = append(errs, err)
		return h
	}
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	gauge := func(name, desc string) metric.Int64Gauge {
		g, err := meter.Int64Gauge(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return g
	}

	met := &Metrics{
		PassageFetchDuration: latency("orthoglossa.passage.fetch.duration",
			"Latency of passage-service lookups."),
		LLMDuration: latency("orthoglossa.llm.duration",
			"Latency of model completions."),
		PassageRequests: counter("orthoglossa.passage.requests",
			"Total passage-service requests by book, language, and status."),
		CommandsProcessed: counter("orthoglossa.commands.processed",
			"Total processed user turns by command kind."),
		DictionaryMatches: counter("orthoglossa.dictionary.matches",
			"Total terminology matches emitted."),
		DictionaryReloads: counter("orthoglossa.dictionary.reloads",
			"Total terminology store loads and reloads."),
		DictionaryTerms: gauge("orthoglossa.dictionary.terms",
			"Terminology entries currently loaded."),
		ProviderErrors: counter("orthoglossa.provider.errors",
			"Total provider errors by provider and kind."),
		HTTPRequestDuration: latency("orthoglossa.http.request.duration",
			"HTTP request latency by method and path."),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return met, nil
}

// The shared instance behind DefaultMetrics.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the shared [Metrics] instance, built on first use
// from [otel.GetMeterProvider]. The global provider never fails instrument
// creation, so a failure here panics.
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

// Attr shortens [attribute.String] at recording call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordPassageRequest increments PassageRequests with the standard
// attribute set.
func (m *Metrics) RecordPassageRequest(ctx context.Context, book, lang, status string) {
	m.PassageRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("book", book),
			attribute.String("lang", lang),
			attribute.String("status", status),
		),
	)
}

// RecordCommand increments CommandsProcessed for one user turn.
func (m *Metrics) RecordCommand(ctx context.Context, kind string) {
	m.CommandsProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordProviderError increments ProviderErrors for one failed provider call.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
