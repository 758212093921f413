// Package observability configures the process-wide logger. Logs go to
// stderr in text or JSON form; when an OTLP endpoint is configured through
// the standard OTEL_* environment variables, log records are additionally
// exported through the OpenTelemetry log SDK.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Instrument installs the default slog logger and, when export is
// configured, the OTLP log pipeline. The returned function flushes and
// stops the pipeline; call it on shutdown.
func Instrument(level slog.Level, format string) (func(context.Context) error, error) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	shutdown := func(context.Context) error { return nil }

	provider, err := newLoggerProvider(level)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}
	if provider != nil {
		otelHandler := otelslog.NewHandler("boagate", otelslog.WithLoggerProvider(provider))
		handler = fanoutHandler{handlers: []slog.Handler{handler, otelHandler}}
		shutdown = provider.Shutdown
	}

	slog.SetDefault(slog.New(handler))
	return shutdown, nil
}

// newLoggerProvider builds the OTLP log pipeline if export is configured
// via the standard OTEL environment variables; returns nil otherwise.
func newLoggerProvider(level slog.Level) (*sdklog.LoggerProvider, error) {
	exporterName := os.Getenv("OTEL_LOGS_EXPORTER")
	if exporterName == "" && os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return nil, nil
	}

	ctx := context.Background()

	var (
		exporter sdklog.Exporter
		err      error
	)
	switch {
	case exporterName == "console":
		exporter, err = stdoutlog.New()
	case os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc":
		exporter, err = otlploggrpc.New(ctx)
	default:
		exporter, err = otlploghttp.New(ctx)
	}
	if err != nil {
		return nil, err
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)), nil
}

// severity maps slog levels onto the OpenTelemetry severity scale.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}

// fanoutHandler duplicates records to every wrapped handler.
type fanoutHandler struct {
	handlers []slog.Handler
}

// Compile-time check that fanoutHandler implements slog.Handler.
var _ slog.Handler = fanoutHandler{}

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return fanoutHandler{handlers: next}
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return fanoutHandler{handlers: next}
}
