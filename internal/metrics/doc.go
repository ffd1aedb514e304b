// Copyright (c) AgentRelay Authors.
// Licensed under the MIT License.

/*
Package metrics provides Prometheus-based metrics collection for the
orchestration pipeline, covering HTTP, pipeline stages, handovers,
catalog refresh and persistence.

# Overview

The package registers and records Prometheus metrics through a single
Collector. Registration uses promauto so no Registry bookkeeping is
required. All metrics share one namespace and are grouped by labels for
dashboarding and alerting.

# Core types

  - Collector: holds the Counter, Histogram and Gauge vectors,
    grouped by concern.

# Recorded dimensions

  - HTTP: request totals, latency and body sizes grouped by
    method/path/status, with status codes bucketed as 2xx/3xx/4xx/5xx.
  - Pipeline: end-to-end request totals and latency by strategy,
    per-stage latency, classification outcomes by mode.
  - Handover: executions and latency by agent/capability, response
    confidence distribution.
  - Catalog: registered agent count, degraded flag, refresh outcomes
    and refresh latency.
  - Persistence: store operation totals and latency by
    backend/operation, database connection gauges.
*/
package metrics
