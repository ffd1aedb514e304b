// Package tlsutil centralizes TLS settings for every outbound HTTP client
// in agentrelay (classifier calls, registry probes, agent invocation).
// Hardened defaults: TLS 1.2+, AEAD cipher suites only.
package tlsutil
