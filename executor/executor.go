package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/internal/metrics"
	"github.com/BaSui01/agentrelay/internal/telemetry"
	"github.com/BaSui01/agentrelay/persistence"
	"github.com/BaSui01/agentrelay/planner"
	"github.com/BaSui01/agentrelay/types"
)

// fromOrchestrator names the sending side of first-party handovers.
const fromOrchestrator = "orchestrator"

// Executor walks an execution plan one assignment at a time, handing
// each task to its assigned agent with the accumulated context of the
// prior steps. A failed step never aborts the plan: its failure text is
// folded into the context and execution continues.
type Executor struct {
	invoker AgentInvoker
	store   persistence.HandoverStore
	events  *EventBus
	metrics *metrics.Collector
	otel    *telemetry.Instruments
	logger  *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithStore sets the handover record store.
func WithStore(store persistence.HandoverStore) Option {
	return func(e *Executor) { e.store = store }
}

// WithEventBus sets the pipeline event bus.
func WithEventBus(bus *EventBus) Option {
	return func(e *Executor) { e.events = bus }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Executor) { e.metrics = collector }
}

// WithTelemetry sets the tracing instruments.
func WithTelemetry(instruments *telemetry.Instruments) Option {
	return func(e *Executor) { e.otel = instruments }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// New creates an executor around an agent invoker.
func New(invoker AgentInvoker, opts ...Option) *Executor {
	e := &Executor{
		invoker: invoker,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "executor"))
	return e
}

// Execute runs every plan assignment in order and returns one result
// per assignment. Parallelism in the plan is advisory: context
// accumulation is order-dependent, so the walk is always sequential.
func (e *Executor) Execute(ctx context.Context, plan *planner.ExecutionPlan, query string) []StepResult {
	if plan == nil || len(plan.Assignments) == 0 {
		return nil
	}

	sessionID, _ := types.SessionID(ctx)
	accumulated := NewAccumulatedContext(query)
	results := make([]StepResult, 0, len(plan.Assignments))
	previousAgent := fromOrchestrator

	for _, assignment := range plan.Assignments {
		result := e.executeStep(ctx, assignment, accumulated, sessionID, previousAgent)
		results = append(results, result)

		entry := ContextEntry{
			Agent:         result.AgentName,
			Task:          result.Task,
			Response:      result.Response,
			ExecutionTime: result.ExecutionTime,
			Confidence:    result.Confidence,
		}
		if !result.HandoverReady {
			entry.Response = result.Error
			entry.Failed = true
		}
		accumulated.Append(entry)
		previousAgent = result.AgentID
	}

	e.logger.Info("plan executed",
		zap.String("plan_id", plan.ID),
		zap.Int("steps", len(results)),
		zap.Duration("total_time", accumulated.TotalTime))
	return results
}

func (e *Executor) executeStep(ctx context.Context, assignment *planner.TaskAssignment, accumulated *AccumulatedContext, sessionID, fromAgent string) StepResult {
	agent := assignment.Agent
	result := StepResult{
		HandoverID: uuid.NewString(),
		TaskID:     assignment.ID,
		AgentID:    agent.ID,
		AgentName:  agent.Name,
		Task:       assignment.Input,
	}

	record := &persistence.HandoverRecord{
		ID:              result.HandoverID,
		SessionID:       sessionID,
		TaskID:          assignment.ID,
		FromAgentID:     fromAgent,
		ToAgentID:       agent.ID,
		Capability:      string(assignment.Capability),
		Task:            assignment.Input,
		ContextSnapshot: accumulated.Snapshot(),
		Status:          persistence.StatusInitiated,
		CreatedAt:       time.Now(),
	}
	if e.store != nil {
		if err := e.store.Create(ctx, record); err != nil {
			e.logger.Warn("recording handover failed",
				zap.String("handover_id", record.ID), zap.Error(err))
		}
	}
	e.publish(EventHandoverInitiated, sessionID, &result, assignment, "")

	prompt := e.buildPrompt(accumulated, assignment.Input)

	started := time.Now()
	reply, err := e.invoker.Invoke(ctx, agent, prompt, sessionID)
	elapsed := time.Since(started)

	if err != nil {
		result.ExecutionTime = elapsed
		result.Error = err.Error()
		result.ErrorKind = types.GetErrorCode(err)
		result.HandoverReady = false

		e.finalize(ctx, record.ID, persistence.Outcome{
			Status:   persistence.StatusFailed,
			Error:    result.Error,
			Duration: elapsed,
		})
		e.observeHandover(ctx, &result, assignment, "failed")
		e.publish(EventHandoverFailed, sessionID, &result, assignment, result.Error)

		e.logger.Warn("handover failed",
			zap.String("task_id", assignment.ID),
			zap.String("agent_id", agent.ID),
			zap.String("error_kind", string(result.ErrorKind)),
			zap.Error(err))
		return result
	}

	result.Response = reply.Response
	result.ExecutionTime = elapsed
	if reply.ExecutionTime > 0 {
		result.ExecutionTime = reply.ExecutionTime
	}
	result.Confidence = Confidence(reply.Response)
	result.HandoverReady = true

	e.finalize(ctx, record.ID, persistence.Outcome{
		Status:     persistence.StatusCompleted,
		Response:   reply.Response,
		Confidence: result.Confidence,
		Duration:   result.ExecutionTime,
	})
	e.observeHandover(ctx, &result, assignment, "completed")
	e.publish(EventHandoverCompleted, sessionID, &result, assignment, "")

	e.logger.Debug("handover completed",
		zap.String("task_id", assignment.ID),
		zap.String("agent_id", agent.ID),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("execution_time", result.ExecutionTime))
	return result
}

// buildPrompt embeds the original query, the prior-result digests, and
// the task text into a single prompt for the next agent.
func (e *Executor) buildPrompt(accumulated *AccumulatedContext, task string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original request: %s\n\n", accumulated.Query)
	if digests := accumulated.Digest(); len(digests) > 0 {
		b.WriteString("Prior results:\n")
		for _, digest := range digests {
			fmt.Fprintf(&b, "- %s\n", digest)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Your task: %s", task)
	return b.String()
}

func (e *Executor) finalize(ctx context.Context, id string, outcome persistence.Outcome) {
	if e.store == nil {
		return
	}
	if err := e.store.Finalize(ctx, id, outcome); err != nil {
		e.logger.Warn("finalizing handover failed",
			zap.String("handover_id", id), zap.Error(err))
	}
}

func (e *Executor) observeHandover(ctx context.Context, result *StepResult, assignment *planner.TaskAssignment, status string) {
	if e.metrics != nil {
		e.metrics.RecordHandover(result.AgentID, string(assignment.Capability), status, result.ExecutionTime)
		if result.HandoverReady {
			e.metrics.RecordConfidence(result.AgentID, result.Confidence)
		}
	}
	if e.otel != nil {
		e.otel.RecordHandover(ctx, result.AgentID, string(assignment.Capability), status, result.ExecutionTime)
	}
}

func (e *Executor) publish(eventType EventType, sessionID string, result *StepResult, assignment *planner.TaskAssignment, errText string) {
	if e.events == nil {
		return
	}
	e.events.Publish(PipelineEvent{
		Type:       eventType,
		SessionID:  sessionID,
		HandoverID: result.HandoverID,
		TaskID:     result.TaskID,
		AgentID:    result.AgentID,
		Capability: string(assignment.Capability),
		Confidence: result.Confidence,
		Error:      errText,
	})
}
