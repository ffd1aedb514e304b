// Package orchestrator wires the pipeline stages into a single facade:
// analyze the query, build a plan against the agent catalog, execute it
// with context handed forward, and synthesize the final report.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/analyzer"
	"github.com/BaSui01/agentrelay/executor"
	"github.com/BaSui01/agentrelay/internal/metrics"
	"github.com/BaSui01/agentrelay/internal/telemetry"
	"github.com/BaSui01/agentrelay/planner"
	"github.com/BaSui01/agentrelay/types"
)

// PlanSummary is the caller-facing view of the chosen plan.
type PlanSummary struct {
	// ID identifies the plan.
	ID string `json:"id"`

	// Strategy is the chosen execution shape.
	Strategy planner.Strategy `json:"strategy"`

	// Assignments counts the plan's tasks.
	Assignments int `json:"assignments"`

	// CriticalPath is the longest dependency chain, as assignment ids.
	CriticalPath []string `json:"critical_path,omitempty"`

	// ParallelGroups partitions independent assignments.
	ParallelGroups [][]string `json:"parallel_groups,omitempty"`

	// TotalEstimate is the planned duration.
	TotalEstimate time.Duration `json:"total_estimate"`
}

// Result is the outcome of one orchestrated request.
type Result struct {
	// SessionID identifies the request.
	SessionID string `json:"session_id"`

	// Report is the synthesized final answer.
	Report string `json:"report"`

	// Analysis is the query analysis that drove planning.
	Analysis analyzer.QueryAnalysis `json:"analysis"`

	// Plan summarizes the executed plan.
	Plan PlanSummary `json:"plan"`

	// Steps holds one result per executed assignment.
	Steps []executor.StepResult `json:"steps"`

	// Duration is the end-to-end wall-clock time.
	Duration time.Duration `json:"duration"`
}

// Orchestrator runs the full decision pipeline.
type Orchestrator struct {
	analyzer    *analyzer.Analyzer
	planner     *planner.Planner
	executor    *executor.Executor
	synthesizer Synthesizer
	metrics     *metrics.Collector
	otel        *telemetry.Instruments
	logger      *zap.Logger
}

// Synthesizer renders step results into a report.
type Synthesizer interface {
	Synthesize(results []executor.StepResult, query string) string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = collector }
}

// WithTelemetry sets the tracing instruments.
func WithTelemetry(instruments *telemetry.Instruments) Option {
	return func(o *Orchestrator) { o.otel = instruments }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New assembles an orchestrator from its four stages.
func New(an *analyzer.Analyzer, pl *planner.Planner, ex *executor.Executor, sy Synthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analyzer:    an,
		planner:     pl,
		executor:    ex,
		synthesizer: sy,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(zap.String("component", "orchestrator"))
	return o
}

// Orchestrate runs the pipeline for one query. The error is non-nil
// only for plan-level failures (no eligible agents); classification
// failures resolve through the deterministic fallback, and per-step
// failures appear as failed steps inside a successful result.
func (o *Orchestrator) Orchestrate(ctx context.Context, query string) (*Result, error) {
	started := time.Now()

	sessionID, ok := types.SessionID(ctx)
	if !ok {
		sessionID = uuid.NewString()
		ctx = types.WithSessionID(ctx, sessionID)
	}

	analysis := o.stageAnalyze(ctx, query)

	plan, err := o.stagePlan(ctx, analysis)
	if err != nil {
		o.recordPipeline("", "failed", time.Since(started))
		o.logger.Warn("planning failed",
			zap.String("session_id", sessionID),
			zap.String("error_code", string(types.GetErrorCode(err))),
			zap.Error(err))
		return nil, err
	}

	steps := o.stageExecute(ctx, plan, query)
	report := o.stageSynthesize(ctx, steps, query)

	duration := time.Since(started)
	o.recordPipeline(string(plan.Strategy), "completed", duration)
	o.logger.Info("request orchestrated",
		zap.String("session_id", sessionID),
		zap.String("strategy", string(plan.Strategy)),
		zap.Int("steps", len(steps)),
		zap.Duration("duration", duration))

	return &Result{
		SessionID: sessionID,
		Report:    report,
		Analysis:  analysis,
		Plan: PlanSummary{
			ID:             plan.ID,
			Strategy:       plan.Strategy,
			Assignments:    len(plan.Assignments),
			CriticalPath:   plan.CriticalPath,
			ParallelGroups: plan.ParallelGroups,
			TotalEstimate:  plan.TotalEstimate,
		},
		Steps:    steps,
		Duration: duration,
	}, nil
}

func (o *Orchestrator) stageAnalyze(ctx context.Context, query string) analyzer.QueryAnalysis {
	ctx, span := o.span(ctx, "analyze")
	defer span.end()

	started := time.Now()
	analysis := o.analyzer.Analyze(ctx, query)
	o.recordStage("analyze", time.Since(started))
	return analysis
}

func (o *Orchestrator) stagePlan(ctx context.Context, analysis analyzer.QueryAnalysis) (*planner.ExecutionPlan, error) {
	_, span := o.span(ctx, "plan")
	defer span.end()

	started := time.Now()
	plan, err := o.planner.Build(analysis)
	o.recordStage("plan", time.Since(started))
	return plan, err
}

func (o *Orchestrator) stageExecute(ctx context.Context, plan *planner.ExecutionPlan, query string) []executor.StepResult {
	ctx, span := o.span(ctx, "execute")
	defer span.end()

	started := time.Now()
	steps := o.executor.Execute(ctx, plan, query)
	o.recordStage("execute", time.Since(started))
	return steps
}

func (o *Orchestrator) stageSynthesize(ctx context.Context, steps []executor.StepResult, query string) string {
	_, span := o.span(ctx, "synthesize")
	defer span.end()

	started := time.Now()
	report := o.synthesizer.Synthesize(steps, query)
	o.recordStage("synthesize", time.Since(started))
	return report
}

type stageSpan struct{ end func() }

func (o *Orchestrator) span(ctx context.Context, stage string) (context.Context, stageSpan) {
	if o.otel == nil {
		return ctx, stageSpan{end: func() {}}
	}
	ctx, span := o.otel.StageSpan(ctx, stage)
	return ctx, stageSpan{end: func() { span.End() }}
}

func (o *Orchestrator) recordStage(stage string, duration time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordStage(stage, duration)
	}
}

func (o *Orchestrator) recordPipeline(strategy, status string, duration time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordPipeline(strategy, status, duration)
	}
}
