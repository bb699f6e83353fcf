package client

import (
	"context"
	"time"

	// Packages
	otel "go.opentelemetry.io/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	codes "go.opentelemetry.io/otel/codes"
	metric "go.opentelemetry.io/otel/metric"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const instrumentationName = "github.com/mutablelogic/go-mcp/pkg/mcp/client"

var (
	requestsTotal    metric.Int64Counter
	requestDurations metric.Float64Histogram
)

func init() {
	meter := otel.Meter(instrumentationName)
	requestsTotal, _ = meter.Int64Counter("mcp.client.requests",
		metric.WithDescription("JSON-RPC requests sent, by method and outcome"))
	requestDurations, _ = meter.Float64Histogram("mcp.client.request.duration",
		metric.WithDescription("JSON-RPC request round-trip time in milliseconds"),
		metric.WithUnit("ms"))
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SetTracer overrides the tracer spans are started on. Without a call to
// SetTracer the client uses the global otel tracer provider, which is a
// no-op until a host wires a real exporter.
func (c *Client) SetTracer(tr trace.Tracer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracer = tr
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Client) tracerOrDefault() trace.Tracer {
	c.mu.Lock()
	tr := c.tracer
	c.mu.Unlock()
	if tr != nil {
		return tr
	}
	return otel.Tracer(instrumentationName)
}

// startSpan opens a span named op and returns a func that ends it,
// recording err (if any) as the span status and, for the Request op,
// emitting the request counter and duration histogram.
func (c *Client) startSpan(ctx context.Context, op, method string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := c.tracerOrDefault().Start(ctx, op, trace.WithAttributes(
		attribute.String("mcp.method", method),
	))
	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if op == "Request" {
			attrs := metric.WithAttributes(attribute.String("method", method), attribute.String("status", status))
			requestsTotal.Add(ctx, 1, attrs)
			requestDurations.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
		}
	}
}
