package persistence

import (
	"context"
	"time"

	"github.com/BaSui01/agentrelay/types"
)

// Common store errors, as typed pipeline errors so callers can branch on
// the code.
var (
	ErrNotFound     = types.NewError(types.ErrNotFound, "handover record not found")
	ErrStoreClosed  = types.NewError(types.ErrStoreClosed, "handover store is closed")
	ErrInvalidInput = types.NewError(types.ErrInvalidRequest, "invalid handover record")
	ErrFinalized    = types.NewError(types.ErrInvalidRequest, "handover record already finalized")
)

// HandoverStatus is the lifecycle state of a handover record. Status is
// monotonic: initiated may become completed or failed, and finalized
// records never change again.
type HandoverStatus string

const (
	// StatusInitiated marks a record created at dispatch time.
	StatusInitiated HandoverStatus = "initiated"
	// StatusCompleted marks a successful agent response.
	StatusCompleted HandoverStatus = "completed"
	// StatusFailed marks a transport error, timeout, or non-2xx reply.
	StatusFailed HandoverStatus = "failed"
)

// IsTerminal reports whether the status is final.
func (s HandoverStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// HandoverRecord is the audit record of one directed task-and-context
// transfer to an agent. Created when the handover is initiated and
// finalized exactly once when the agent responds or the wait expires.
type HandoverRecord struct {
	// ID uniquely identifies the handover.
	ID string `json:"id"`

	// SessionID groups the handovers of one orchestrated request.
	SessionID string `json:"session_id,omitempty"`

	// TaskID is the plan assignment this handover executes.
	TaskID string `json:"task_id,omitempty"`

	// FromAgentID names the sending side ("orchestrator" or a prior
	// agent id).
	FromAgentID string `json:"from_agent_id"`

	// ToAgentID names the receiving agent.
	ToAgentID string `json:"to_agent_id"`

	// Capability is the capability tag of the task.
	Capability string `json:"capability,omitempty"`

	// Task is the task text handed to the agent.
	Task string `json:"task"`

	// ContextSnapshot is the accumulated-context digest captured at
	// dispatch time.
	ContextSnapshot string `json:"context_snapshot,omitempty"`

	// Status is the lifecycle state.
	Status HandoverStatus `json:"status"`

	// Response is the agent's reply text (completed records).
	Response string `json:"response,omitempty"`

	// Error is the failure text (failed records).
	Error string `json:"error,omitempty"`

	// Confidence is the heuristic [0,1] score of the response.
	Confidence float64 `json:"confidence"`

	// Duration is how long the invocation took.
	Duration time.Duration `json:"duration"`

	// CreatedAt is when the handover was initiated.
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt is when the record was finalized.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Outcome carries the finalization of one handover.
type Outcome struct {
	// Status must be a terminal status.
	Status HandoverStatus `json:"status"`

	// Response is the agent reply text on success.
	Response string `json:"response,omitempty"`

	// Error is the failure text on failure.
	Error string `json:"error,omitempty"`

	// Confidence is the response confidence score.
	Confidence float64 `json:"confidence"`

	// Duration is the invocation duration.
	Duration time.Duration `json:"duration"`
}

// Filter selects handover records for listing.
type Filter struct {
	// SessionID filters by session.
	SessionID string `json:"session_id,omitempty"`

	// ToAgentID filters by receiving agent.
	ToAgentID string `json:"to_agent_id,omitempty"`

	// Status filters by any of the given statuses.
	Status []HandoverStatus `json:"status,omitempty"`

	// CreatedAfter keeps records created at or after this time.
	CreatedAfter *time.Time `json:"created_after,omitempty"`

	// CreatedBefore keeps records created before this time.
	CreatedBefore *time.Time `json:"created_before,omitempty"`

	// Limit caps the result count; zero means no cap.
	Limit int `json:"limit,omitempty"`

	// Offset skips the first records of the result.
	Offset int `json:"offset,omitempty"`
}

// Stats summarizes the store contents.
type Stats struct {
	// Total is the record count.
	Total int64 `json:"total"`

	// StatusCounts is the record count per status.
	StatusCounts map[HandoverStatus]int64 `json:"status_counts"`

	// AgentCounts is the record count per receiving agent.
	AgentCounts map[string]int64 `json:"agent_counts"`

	// AvgDuration is the mean duration of finalized records.
	AvgDuration time.Duration `json:"avg_duration"`
}

// HandoverStore persists handover records with an explicit
// create/finalize lifecycle. The store is injected into the executor:
// no ambient global state holds records.
type HandoverStore interface {
	// Create persists a new record in initiated state. The record must
	// carry an id; creating an existing id fails.
	Create(ctx context.Context, record *HandoverRecord) error

	// Finalize moves a record to a terminal status exactly once.
	// Finalizing an already terminal record fails with ErrFinalized.
	Finalize(ctx context.Context, id string, outcome Outcome) error

	// Get returns the record with the given id.
	Get(ctx context.Context, id string) (*HandoverRecord, error)

	// List returns records matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]*HandoverRecord, error)

	// Delete removes one record.
	Delete(ctx context.Context, id string) error

	// Cleanup removes finalized records older than the given age and
	// returns how many were removed.
	Cleanup(ctx context.Context, olderThan time.Duration) (int, error)

	// Stats summarizes the store contents.
	Stats(ctx context.Context) (*Stats, error)

	// Ping checks store health.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}

// matchesFilter applies a filter to one record. Shared by the backends
// that filter in process.
func matchesFilter(r *HandoverRecord, f Filter) bool {
	if f.SessionID != "" && r.SessionID != f.SessionID {
		return false
	}
	if f.ToAgentID != "" && r.ToAgentID != f.ToAgentID {
		return false
	}
	if len(f.Status) > 0 {
		found := false
		for _, s := range f.Status {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CreatedAfter != nil && r.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && !r.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

// applyOutcome writes a terminal outcome onto a record. The caller has
// already checked the record is not terminal.
func applyOutcome(r *HandoverRecord, outcome Outcome) {
	now := time.Now()
	r.Status = outcome.Status
	r.Response = outcome.Response
	r.Error = outcome.Error
	r.Confidence = outcome.Confidence
	r.Duration = outcome.Duration
	r.CompletedAt = &now
}

// page applies offset and limit to a sorted result.
func page(records []*HandoverRecord, f Filter) []*HandoverRecord {
	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return []*HandoverRecord{}
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}
