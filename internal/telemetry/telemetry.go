package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Telemetry owns the tracer and logger providers for one hook process.
type Telemetry struct {
	config         *Config
	tracerProvider *trace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
	degraded       string
}

// New creates a Telemetry instance.
//
// If telemetry is disabled, returns a no-op instance. Exporter errors do not
// fail; the instance degrades to no-op and Health reports the reason.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	t := &Telemetry{config: cfg}
	if !cfg.Enabled {
		return t, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	exporter, err := exporterFor(ctx, cfg, &o)
	if err != nil {
		t.degraded = err.Error()
		return t, nil
	}
	logExporter, err := logExporterFor(ctx, cfg, &o)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		t.degraded = err.Error()
		return t, nil
	}

	t.tracerProvider = newTracerProvider(cfg, exporter)
	t.loggerProvider = newLoggerProvider(cfg, logExporter)
	otel.SetTracerProvider(t.tracerProvider)
	global.SetLoggerProvider(t.loggerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

// Tracer returns a tracer for the given instrumentation scope.
// Returns the global tracer if telemetry is disabled or degraded.
func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if t == nil || t.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

// LoggerProvider returns the provider backing the zap bridge, or nil when
// telemetry is disabled or degraded.
func (t *Telemetry) LoggerProvider() log.LoggerProvider {
	if t == nil || t.loggerProvider == nil {
		return nil
	}
	return t.loggerProvider
}

// Health reports whether telemetry is exporting, and why not when degraded.
func (t *Telemetry) Health() (ok bool, reason string) {
	if t == nil || !t.config.Enabled {
		return true, "disabled"
	}
	if t.degraded != "" {
		return false, t.degraded
	}
	return true, ""
}

// Shutdown flushes pending spans and log records and releases the exporters.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.loggerProvider != nil {
		if err := t.loggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
