package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/BaSui01/agentrelay/orchestrator"

// Instruments holds the OTel tracer and metric instruments used by the
// orchestration pipeline. Instruments created from the global noop
// providers record nothing, so callers never need to nil-check.
type Instruments struct {
	tracer trace.Tracer
	meter  metric.Meter
	// counters
	requestTotal  metric.Int64Counter
	handoverTotal metric.Int64Counter
	errorTotal    metric.Int64Counter
	fallbackTotal metric.Int64Counter
	// histograms
	requestDuration  metric.Float64Histogram
	handoverDuration metric.Float64Histogram
	planSteps        metric.Int64Histogram
	// gauges
	activeRequests metric.Int64UpDownCounter
}

// NewInstruments creates pipeline instrumentation from the global providers.
func NewInstruments() (*Instruments, error) {
	tracer := otel.Tracer(instrumentationName)
	meter := otel.Meter(instrumentationName)

	in := &Instruments{
		tracer: tracer,
		meter:  meter,
	}

	var err error

	in.requestTotal, err = meter.Int64Counter("pipeline.request.total",
		metric.WithDescription("Total number of orchestration requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	in.handoverTotal, err = meter.Int64Counter("pipeline.handover.total",
		metric.WithDescription("Total number of agent handovers"),
		metric.WithUnit("{handover}"))
	if err != nil {
		return nil, err
	}

	in.errorTotal, err = meter.Int64Counter("pipeline.error.total",
		metric.WithDescription("Total number of pipeline errors"),
		metric.WithUnit("{error}"))
	if err != nil {
		return nil, err
	}

	in.fallbackTotal, err = meter.Int64Counter("pipeline.classification.fallback.total",
		metric.WithDescription("Total number of classifications served by the heuristic fallback"),
		metric.WithUnit("{fallback}"))
	if err != nil {
		return nil, err
	}

	in.requestDuration, err = meter.Float64Histogram("pipeline.request.duration",
		metric.WithDescription("End-to-end orchestration duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300))
	if err != nil {
		return nil, err
	}

	in.handoverDuration, err = meter.Float64Histogram("pipeline.handover.duration",
		metric.WithDescription("Agent handover duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60, 120))
	if err != nil {
		return nil, err
	}

	in.planSteps, err = meter.Int64Histogram("pipeline.plan.steps",
		metric.WithDescription("Number of task assignments per plan"),
		metric.WithUnit("{step}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 13))
	if err != nil {
		return nil, err
	}

	in.activeRequests, err = meter.Int64UpDownCounter("pipeline.request.active",
		metric.WithDescription("Number of orchestration requests in flight"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	return in, nil
}

// RequestAttrs carries the attributes known when a request enters the pipeline.
type RequestAttrs struct {
	SessionID string
	Query     string
}

// OutcomeAttrs carries the attributes known when a request leaves the pipeline.
type OutcomeAttrs struct {
	Strategy   string
	Complexity string
	Status     string
	ErrorCode  string
	Steps      int
	Fallback   bool
	Duration   time.Duration
}

// StartRequest opens the root span for one orchestration request.
func (in *Instruments) StartRequest(ctx context.Context, attrs RequestAttrs) (context.Context, trace.Span) {
	ctx, span := in.tracer.Start(ctx, "pipeline.orchestrate",
		trace.WithAttributes(
			attribute.String("session.id", attrs.SessionID),
			attribute.Int("query.length", len(attrs.Query)),
		))

	in.activeRequests.Add(ctx, 1)

	return ctx, span
}

// EndRequest closes the root span and records the request-level instruments.
func (in *Instruments) EndRequest(ctx context.Context, span trace.Span, req RequestAttrs, out OutcomeAttrs) {
	defer span.End()

	commonAttrs := []attribute.KeyValue{
		attribute.String("strategy", out.Strategy),
		attribute.String("complexity", out.Complexity),
		attribute.String("status", out.Status),
	}

	in.activeRequests.Add(ctx, -1)

	in.requestTotal.Add(ctx, 1, metric.WithAttributes(commonAttrs...))
	in.requestDuration.Record(ctx, out.Duration.Seconds(), metric.WithAttributes(commonAttrs...))

	if out.Steps > 0 {
		in.planSteps.Record(ctx, int64(out.Steps), metric.WithAttributes(
			attribute.String("strategy", out.Strategy)))
	}

	if out.ErrorCode != "" {
		in.errorTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("code", out.ErrorCode)))
		span.SetStatus(codes.Error, out.ErrorCode)
		span.SetAttributes(attribute.String("error.code", out.ErrorCode))
	}

	if out.Fallback {
		in.fallbackTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("classification.fallback", true))
	}

	span.SetAttributes(
		attribute.String("plan.strategy", out.Strategy),
		attribute.String("query.complexity", out.Complexity),
		attribute.Int("plan.steps", out.Steps),
		attribute.Float64("pipeline.duration_ms", float64(out.Duration.Milliseconds())))
}

// StageSpan opens a child span for one pipeline stage
// (analyze, plan, execute, synthesize).
func (in *Instruments) StageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, "pipeline."+stage,
		trace.WithAttributes(attribute.String("pipeline.stage", stage)))
}

// RecordHandover records one agent handover with its own span.
func (in *Instruments) RecordHandover(ctx context.Context, agentID, capability, status string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("agent.id", agentID),
		attribute.String("capability", capability),
		attribute.String("status", status),
	}

	in.handoverTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	in.handoverDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	_, span := in.tracer.Start(ctx, "pipeline.handover",
		trace.WithAttributes(append(attrs,
			attribute.Float64("handover.duration_ms", float64(duration.Milliseconds())))...))
	defer span.End()

	if status == "failed" {
		span.SetStatus(codes.Error, "handover failed")
	}
}

// Tracer exposes the pipeline tracer for callers that open their own spans.
func (in *Instruments) Tracer() trace.Tracer {
	return in.tracer
}
