// Package telemetry wraps OpenTelemetry SDK initialization for agentrelay
// and provides the OTel-native instrumentation used by the pipeline.
// When telemetry is disabled the global providers stay noop and nothing
// connects to an external collector.
package telemetry
