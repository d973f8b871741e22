// Package telemetry configures OpenTelemetry tracing for hook invocations.
//
// Each hook run is one short-lived process, so spans are exported with a
// batching processor that is flushed by Shutdown before the process exits.
// When tracing is disabled, Tracer returns the global no-op tracer and
// instrumented code runs unchanged.
//
// Export failures never fail a hook: New degrades to a no-op instance and
// reports the reason through Health.
package telemetry
