package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/agentrelay/types"
)

// digestLimit caps each prior-result digest embedded in a step prompt.
// Bounds prompt growth across long chains at the cost of fidelity on
// early steps.
const digestLimit = 200

// StepResult is the outcome of one plan assignment.
type StepResult struct {
	// HandoverID is the persisted handover record id.
	HandoverID string `json:"handover_id"`

	// TaskID is the plan assignment id.
	TaskID string `json:"task_id"`

	// AgentID identifies the invoked agent.
	AgentID string `json:"agent_id"`

	// AgentName is the invoked agent's display name.
	AgentName string `json:"agent_name"`

	// Task is the task text handed to the agent.
	Task string `json:"task"`

	// Response is the agent's reply text. Empty on failure.
	Response string `json:"response,omitempty"`

	// ExecutionTime is how long the invocation took.
	ExecutionTime time.Duration `json:"execution_time"`

	// Confidence is the heuristic [0,1] score of the response. Zero on
	// failure.
	Confidence float64 `json:"confidence"`

	// HandoverReady reports whether the step produced a usable result.
	// False exactly for failed steps.
	HandoverReady bool `json:"handover_ready"`

	// Error is the failure text of a failed step.
	Error string `json:"error,omitempty"`

	// ErrorKind classifies the failure so callers can distinguish
	// retryable from terminal. Empty on success.
	ErrorKind types.ErrorCode `json:"error_kind,omitempty"`
}

// ContextEntry records one completed step inside the accumulated
// context.
type ContextEntry struct {
	// Agent is the display name of the agent that produced the entry.
	Agent string `json:"agent"`

	// Task is the task text the agent worked on.
	Task string `json:"task"`

	// Response is the agent's reply, or the failure text of a failed
	// step.
	Response string `json:"response"`

	// ExecutionTime is the step duration.
	ExecutionTime time.Duration `json:"execution_time"`

	// Confidence is the step confidence score.
	Confidence float64 `json:"confidence"`

	// Failed marks entries folded in from failed steps.
	Failed bool `json:"failed,omitempty"`
}

// AccumulatedContext carries prior results forward through a plan. Only
// the executor mutates it; earlier pipeline stages never see it.
type AccumulatedContext struct {
	// Query is the original user query.
	Query string `json:"query"`

	// Entries holds one record per executed step, in execution order.
	Entries []ContextEntry `json:"entries,omitempty"`

	// TotalTime is the sum of recorded execution times.
	TotalTime time.Duration `json:"total_time"`

	// HandoverCount is the entry count.
	HandoverCount int `json:"handover_count"`
}

// NewAccumulatedContext starts an empty context for one query.
func NewAccumulatedContext(query string) *AccumulatedContext {
	return &AccumulatedContext{Query: query}
}

// Append records a step outcome and recomputes the running totals.
func (c *AccumulatedContext) Append(entry ContextEntry) {
	c.Entries = append(c.Entries, entry)
	c.HandoverCount = len(c.Entries)

	var total time.Duration
	for _, e := range c.Entries {
		total += e.ExecutionTime
	}
	c.TotalTime = total
}

// Digest renders the length-capped per-entry summaries embedded in the
// next step's prompt. Failed entries carry their failure text so later
// agents can react to it.
func (c *AccumulatedContext) Digest() []string {
	digests := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		var line string
		if e.Failed {
			line = fmt.Sprintf("[%s] failed: %s", e.Agent, e.Response)
		} else {
			line = fmt.Sprintf("[%s] (%s): %s", e.Agent, e.ExecutionTime.Round(time.Millisecond), e.Response)
		}
		digests = append(digests, truncate(line, digestLimit))
	}
	return digests
}

// Snapshot renders the context as a single block for persistence.
func (c *AccumulatedContext) Snapshot() string {
	return strings.Join(c.Digest(), "\n")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
