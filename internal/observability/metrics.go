package observability

import (
	otelmetric "go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments used by the forwarding service.
// Instruments are created once at startup and shared with middleware,
// handlers, and the transport chain.
type Metrics struct {
	// HTTP metrics
	HTTPRequestDuration otelmetric.Float64Histogram
	HTTPRequestTotal    otelmetric.Int64Counter
	HTTPRequestErrors   otelmetric.Int64Counter

	// Event intake metrics
	EventsReceived otelmetric.Int64Counter
	EventsRejected otelmetric.Int64Counter

	// Relay metrics
	FlushDuration otelmetric.Float64Histogram
	BatchSize     otelmetric.Int64Histogram
}

// NewMetrics creates all metric instruments from the given Meter.
// Each instrument is created with a descriptive name, unit, and description
// following OpenTelemetry semantic conventions.
func NewMetrics(meter otelmetric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.request.duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestTotal, err = meter.Int64Counter(
		"http.request.total",
		otelmetric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestErrors, err = meter.Int64Counter(
		"http.request.errors",
		otelmetric.WithDescription("HTTP request errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, err
	}

	// Event intake metrics
	m.EventsReceived, err = meter.Int64Counter(
		"events.received",
		otelmetric.WithDescription("Analytics events accepted for forwarding"),
	)
	if err != nil {
		return nil, err
	}

	m.EventsRejected, err = meter.Int64Counter(
		"events.rejected",
		otelmetric.WithDescription("Analytics events rejected at intake"),
	)
	if err != nil {
		return nil, err
	}

	// Relay metrics
	m.FlushDuration, err = meter.Float64Histogram(
		"relay.flush.duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("Collector flush duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	m.BatchSize, err = meter.Int64Histogram(
		"relay.batch.size",
		otelmetric.WithDescription("Calls per collector batch"),
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
