/*
Package handlers implements the HTTP request handlers of the
orchestration API.

# Core types

  - OrchestrateHandler — runs the decision pipeline for a posted query
  - AgentHandler       — agent catalog listing and registration
  - HandoverHandler    — handover record history and store stats
  - EventsHandler      — WebSocket stream of pipeline events
  - HealthHandler      — /health, /healthz, /ready, /version
  - Response           — uniform JSON envelope (success + data + error + timestamp)
  - ErrorInfo          — structured error payload with code and retryable flag
  - ResponseWriter     — wraps http.ResponseWriter to capture the status code

# Capabilities

  - Uniform responses: WriteSuccess / WriteError / WriteJSON helpers
  - Request validation: DecodeJSONBody (strict mode, unknown fields rejected)
  - ErrorCode to HTTP status mapping (4xx/5xx)
  - Pluggable readiness probes: RegisterCheck with any HealthCheck
*/
package handlers
