package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentrelay/analyzer"
	"github.com/BaSui01/agentrelay/catalog"
	"github.com/BaSui01/agentrelay/executor"
	"github.com/BaSui01/agentrelay/planner"
	"github.com/BaSui01/agentrelay/synthesizer"
	"github.com/BaSui01/agentrelay/types"
)

// replyInvoker answers every invocation with a canned response.
type replyInvoker struct {
	response string
	calls    int
}

func (r *replyInvoker) Invoke(ctx context.Context, agent *catalog.AgentProfile, input, sessionID string) (*executor.InvokeResult, error) {
	r.calls++
	return &executor.InvokeResult{Response: r.response}, nil
}

func newTestOrchestrator(t *testing.T, invoker executor.AgentInvoker, capabilities ...catalog.Capability) *Orchestrator {
	t.Helper()

	cat := catalog.New(nil)
	for _, cap := range capabilities {
		require.NoError(t, cat.Register(catalog.AgentProfile{
			ID:           string(cap) + "-agent",
			Name:         string(cap) + " agent",
			Endpoint:     "http://agent.local",
			Capabilities: []catalog.Capability{cap},
			Status:       catalog.StatusActive,
		}))
	}

	return New(
		analyzer.New(nil, nil),
		planner.New(cat, nil),
		executor.New(invoker),
		synthesizer.New(nil),
	)
}

func TestOrchestrateEndToEnd(t *testing.T) {
	invoker := &replyInvoker{response: "the analysis result: summarized content of the requested document"}
	orch := newTestOrchestrator(t, invoker, catalog.CapabilitySummarize)

	result, err := orch.Orchestrate(context.Background(), "summarize this document")
	require.NoError(t, err)

	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, 1, invoker.calls)
	require.Len(t, result.Steps, 1)
	assert.True(t, result.Steps[0].HandoverReady)
	assert.Contains(t, result.Report, "summarized content")
	assert.Equal(t, analyzer.SourceFallback, result.Analysis.Source)
	assert.Equal(t, 1, result.Plan.Assignments)
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestOrchestrateNoEligibleAgents(t *testing.T) {
	orch := newTestOrchestrator(t, &replyInvoker{}, catalog.CapabilityTranslate)

	// The query wants summarization; only a translator is registered.
	_, err := orch.Orchestrate(context.Background(), "summarize the article")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestOrchestrateKeepsSessionID(t *testing.T) {
	orch := newTestOrchestrator(t, &replyInvoker{response: "a perfectly adequate translated body of text"}, catalog.CapabilityTranslate)

	ctx := types.WithSessionID(context.Background(), "sess-fixed")
	result, err := orch.Orchestrate(ctx, "translate this paragraph")
	require.NoError(t, err)
	assert.Equal(t, "sess-fixed", result.SessionID)
}

func TestOrchestrateMultiStep(t *testing.T) {
	invoker := &replyInvoker{response: "a sufficiently detailed result for the assigned step of work"}
	orch := newTestOrchestrator(t, invoker,
		catalog.CapabilityResearch, catalog.CapabilitySummarize)

	result, err := orch.Orchestrate(context.Background(),
		"research the history of the topic and then summarize what you find")
	require.NoError(t, err)

	assert.Equal(t, invoker.calls, len(result.Steps))
	assert.GreaterOrEqual(t, len(result.Steps), 2)
	for _, step := range result.Steps {
		assert.True(t, step.HandoverReady)
	}
}
