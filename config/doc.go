// Package config provides configuration management for AgentRelay.
//
// Configuration is loaded from defaults, an optional YAML file, and
// AGENTRELAY_* environment variables, in that priority order.
package config
