package transport

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// Instrumented wraps a Transport and counts every pushed call, tagged with
// its command name (tracker namespace prefix stripped, so differently named
// trackers aggregate under one command).
type Instrumented struct {
	next  Transport
	calls otelmetric.Int64Counter
}

// Instrument creates an Instrumented transport using the given Meter.
func Instrument(meter otelmetric.Meter, next Transport) (*Instrumented, error) {
	calls, err := meter.Int64Counter(
		"ga.calls.pushed",
		otelmetric.WithDescription("Vendor calls pushed to the transport"),
	)
	if err != nil {
		return nil, err
	}
	return &Instrumented{next: next, calls: calls}, nil
}

// Push counts and forwards the call.
func (t *Instrumented) Push(call Call) {
	t.calls.Add(context.Background(), 1, otelmetric.WithAttributes(
		attribute.String("command", bareCommand(call.Command)),
	))
	t.next.Push(call)
}

// Ready defers to the wrapped transport.
func (t *Instrumented) Ready() bool {
	if r, ok := t.next.(ReadyReporter); ok {
		return r.Ready()
	}
	return true
}

func bareCommand(command string) string {
	for i := len(command) - 1; i >= 0; i-- {
		if command[i] == '.' {
			return command[i+1:]
		}
	}
	return command
}
