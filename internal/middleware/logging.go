package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the process-wide structured logger.
var Logger *slog.Logger

// RequestMeta is the request-scoped identity attached to every log line. The
// record is created first in the chain and filled in as later middleware learns
// more (trace ID from tracing, user ID from auth).
type RequestMeta struct {
	RequestID string
	TraceID   string
	UserID    uint
}

type metaKey struct{}

// WithRequestMeta returns ctx carrying meta.
func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFrom returns the request record in ctx, or nil outside a request.
func MetaFrom(ctx context.Context) *RequestMeta {
	meta, _ := ctx.Value(metaKey{}).(*RequestMeta)
	return meta
}

type metaHandler struct {
	slog.Handler
}

func (h metaHandler) Handle(ctx context.Context, r slog.Record) error {
	if meta := MetaFrom(ctx); meta != nil {
		if meta.RequestID != "" {
			r.AddAttrs(slog.String("request_id", meta.RequestID))
		}
		if meta.TraceID != "" {
			r.AddAttrs(slog.String("trace_id", meta.TraceID))
		}
		if meta.UserID != 0 {
			r.AddAttrs(slog.Uint64("user_id", uint64(meta.UserID)))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h metaHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return metaHandler{h.Handler.WithAttrs(attrs)}
}

func (h metaHandler) WithGroup(name string) slog.Handler {
	return metaHandler{h.Handler.WithGroup(name)}
}

// NewLogger builds a request-aware logger. Production gets JSON, everything else
// text. level is a slog level name; unknown or empty means info.
func NewLogger(env, level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(metaHandler{handler})
}

func init() {
	Logger = NewLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), os.Stdout)
}

// ContextMiddleware starts the request record. It must run after requestid and
// before anything that logs.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		meta := &RequestMeta{}
		if rid, ok := c.Locals("requestid").(string); ok {
			meta.RequestID = rid
		}
		c.SetUserContext(WithRequestMeta(c.UserContext(), meta))
		return c.Next()
	}
}

func annotate(c *fiber.Ctx, fill func(*RequestMeta)) {
	if meta := MetaFrom(c.UserContext()); meta != nil {
		fill(meta)
	}
}

// StructuredLogger logs one line per request. Probes and scrapes go to debug,
// client errors to warn and server errors to error.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			attrs = append(attrs, slog.String("user_agent", ua))
		}

		level, msg := slog.LevelInfo, "request processed"
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			level, msg = slog.LevelError, "request failed"
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		case strings.HasPrefix(c.Path(), "/health/") || c.Path() == "/metrics":
			level = slog.LevelDebug
		}

		Logger.LogAttrs(c.UserContext(), level, msg, attrs...)
		return err
	}
}
