package middleware

import (
	"strings"

	"vacancyhub/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per API request and exposes its trace ID.
// Probe and scrape endpoints are not traced.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/health/") || path == "/metrics" {
			return c.Next()
		}

		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", path),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			c.Set("X-Trace-ID", traceID)
			annotate(c, func(m *RequestMeta) { m.TraceID = traceID })
		}
		if meta := MetaFrom(ctx); meta != nil && meta.RequestID != "" {
			span.SetAttributes(attribute.String("request.id", meta.RequestID))
		}

		c.SetUserContext(ctx)
		err := c.Next()

		// Name the span after the matched route so ids do not explode cardinality.
		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			span.SetName(c.Method() + " " + route.Path)
			span.SetAttributes(attribute.String("http.route", route.Path))
		}

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if kind, ok := c.Locals("kind").(interface{ Slug() string }); ok {
			span.SetAttributes(attribute.String("posting.kind", kind.Slug()))
		}
		if userID := c.Locals("userID"); userID != nil {
			if id, ok := userID.(uint); ok {
				span.SetAttributes(attribute.Int64("user.id", int64(id)))
			}
		}
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fiber.ErrInternalServerError.Message)
		}
		return err
	}
}
