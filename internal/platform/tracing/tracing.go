package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/githubb-dot/gamified-app/internal/platform/logger"
)

type Config struct {
	Stdout bool
	// Writer receives exported spans; nil means stdout.
	Writer io.Writer
}

// Init installs a tracer provider and returns its shutdown func. With Stdout unset the
// global no-op provider stays in place and shutdown does nothing.
func Init(cfg Config, log *logger.Logger) (func(context.Context) error, error) {
	if !cfg.Stdout {
		return func(context.Context) error { return nil }, nil
	}

	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if cfg.Writer != nil {
		opts = append(opts, stdouttrace.WithWriter(cfg.Writer))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	if log != nil {
		log.Debug("tracing initialized", "exporter", "stdout")
	}
	return tp.Shutdown, nil
}
