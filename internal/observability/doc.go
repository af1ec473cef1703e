// Package observability carries build context through logs and traces.
//
// Log helpers attach the build id and stage stored in the context to every
// record. Spans are created through the global OpenTelemetry tracer provider,
// which is a no-op until a program installs a real one.
package observability
