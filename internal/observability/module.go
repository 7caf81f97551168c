// Package observability wires the forwarder's metric pipeline: instruments
// are created on an OpenTelemetry meter and exported through Prometheus in
// the standard exposition format.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Module owns the meter provider backing every instrument in the forwarder
// and the handler serving the scrape endpoint.
type Module struct {
	provider *sdkmetric.MeterProvider
	meter    otelmetric.Meter
	handler  http.Handler
}

// New builds the pipeline: a Prometheus exporter reads from the provider,
// the provider is installed as the global one, and service names the scope
// of the returned meter.
func New(service string) (*Module, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("observability: create exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return &Module{
		provider: provider,
		meter:    provider.Meter(service),
		handler:  promhttp.Handler(),
	}, nil
}

// Meter returns the meter instruments are created on.
func (m *Module) Meter() otelmetric.Meter {
	return m.meter
}

// MetricsHandler serves the Prometheus scrape endpoint, mounted at
// /metrics by the intake router.
func (m *Module) MetricsHandler() http.Handler {
	return m.handler
}

// Shutdown flushes pending metric data and stops the provider.
func (m *Module) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
