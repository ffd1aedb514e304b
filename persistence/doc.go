// Package persistence stores handover records across pluggable backends.
//
// A HandoverRecord is created when a task is handed to an agent and
// finalized exactly once with the outcome. Four backends implement the
// HandoverStore interface: an in-memory map, redis, a SQL database via
// gorm, and MongoDB. NewStore selects one from configuration.
package persistence
