/*
Package main provides the AgentRelay server entrypoint.

# Overview

cmd/agentrelay is the executable entry for the AgentRelay orchestration
service. It exposes the HTTP API, database migrations, a health probe and
version lookup as subcommands. The program loads YAML configuration with
environment overrides, logs through zap and serves Prometheus metrics on a
dedicated port.

# Core types

  - Server              — wires the decision pipeline and manages the HTTP and
    metrics listeners plus graceful shutdown
  - Middleware           — HTTP middleware signature func(http.Handler) http.Handler
  - metricsResponseWriter — wraps http.ResponseWriter to capture status and size

# Capabilities

  - Subcommands: serve, migrate, version, health
  - Middleware chain: Recovery, RequestID, SecurityHeaders, RequestLogger,
    OTelTracing, MetricsMiddleware, CORS, RateLimiter (per IP)
  - Pipeline assembly: handover store, agent catalog with background refresh,
    event bus, analyzer, planner, executor and synthesizer
  - Metrics server: /metrics (Prometheus) on a separate port
  - Graceful shutdown: signal wait, stop refresher, drain HTTP, close event
    bus and store, flush telemetry
  - Build stamping: Version, BuildTime, GitCommit set via ldflags
*/
package main
