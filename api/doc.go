// Package api groups the HTTP surface of the orchestration service.
//
// The handlers subpackage implements the request handlers behind the
// REST endpoints:
//
//   - POST /api/v1/orchestrate — run the decision pipeline for a query
//   - GET/POST /api/v1/agents — list and register catalog agents
//   - GET /api/v1/handovers — handover record history
//   - GET /api/v1/events/ws — WebSocket pipeline event stream
//   - GET /health, /healthz, /ready, /version — service health
//
// All endpoints share a uniform JSON envelope
// {success, data, error, timestamp, request_id}.
package api
