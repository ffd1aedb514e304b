package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentrelay/analyzer"
	"github.com/BaSui01/agentrelay/catalog"
	"github.com/BaSui01/agentrelay/types"
)

// testCatalog registers one active agent per given capability.
func testCatalog(t *testing.T, caps ...catalog.Capability) *catalog.Catalog {
	t.Helper()
	cat := catalog.New(nil)
	for i, c := range caps {
		err := cat.Register(catalog.AgentProfile{
			ID:           string(c) + "-agent",
			Name:         string(c) + " agent",
			Endpoint:     "http://agents.local/" + string(c),
			Capabilities: []catalog.Capability{c},
			Status:       catalog.StatusActive,
		})
		require.NoError(t, err, "agent %d", i)
	}
	return cat
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name     string
		analysis analyzer.QueryAnalysis
		want     Strategy
	}{
		{
			name: "dependencies force sequential",
			analysis: analyzer.QueryAnalysis{
				Capabilities: []catalog.Capability{catalog.CapabilitySummarize, catalog.CapabilityResearch, catalog.CapabilityTranslate},
				Complexity:   analyzer.ComplexityComplex,
				StrategyHint: analyzer.HintParallel,
				Dependencies: []string{"summarize -> research"},
			},
			want: StrategySequential,
		},
		{
			name: "complex with more than two capabilities goes hybrid",
			analysis: analyzer.QueryAnalysis{
				Capabilities: []catalog.Capability{catalog.CapabilitySummarize, catalog.CapabilityResearch, catalog.CapabilityTranslate},
				Complexity:   analyzer.ComplexityComplex,
				StrategyHint: analyzer.HintParallel,
			},
			want: StrategyHybrid,
		},
		{
			name: "parallel hint honored",
			analysis: analyzer.QueryAnalysis{
				Capabilities: []catalog.Capability{catalog.CapabilityAnalyzeData},
				Complexity:   analyzer.ComplexitySimple,
				StrategyHint: analyzer.HintParallel,
			},
			want: StrategyParallel,
		},
		{
			name: "default sequential",
			analysis: analyzer.QueryAnalysis{
				Capabilities: []catalog.Capability{catalog.CapabilitySummarize},
				Complexity:   analyzer.ComplexityModerate,
			},
			want: StrategySequential,
		},
		{
			name: "complex but only two capabilities is not hybrid",
			analysis: analyzer.QueryAnalysis{
				Capabilities: []catalog.Capability{catalog.CapabilitySummarize, catalog.CapabilityResearch},
				Complexity:   analyzer.ComplexityComplex,
			},
			want: StrategySequential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectStrategy(tt.analysis))
		})
	}
}

// Scenario: "Summarize this document then create a presentation".
func TestBuild_SequentialWithDependencies(t *testing.T) {
	cat := testCatalog(t, catalog.CapabilitySummarize, catalog.CapabilityCreatePresentation)
	p := New(cat, nil)

	plan, err := p.Build(analyzer.QueryAnalysis{
		Query:        "Summarize this document then create a presentation",
		Capabilities: []catalog.Capability{catalog.CapabilitySummarize, catalog.CapabilityCreatePresentation},
		InputType:    "text",
		Complexity:   analyzer.ComplexityModerate,
		MultiAgent:   true,
		Dependencies: []string{"summarize -> create_presentation"},
	})
	require.NoError(t, err)

	assert.Equal(t, StrategySequential, plan.Strategy)
	require.Len(t, plan.Assignments, 2)
	assert.Equal(t, catalog.CapabilitySummarize, plan.Assignments[0].Capability)
	assert.Equal(t, catalog.CapabilityCreatePresentation, plan.Assignments[1].Capability)
	assert.Equal(t, []string{plan.Assignments[0].ID}, plan.Assignments[1].DependsOn)
	assert.Equal(t, []string{"task-1", "task-2"}, plan.CriticalPath)
}

// Scenario: parallel hint with no dependencies.
func TestBuild_ParallelHint(t *testing.T) {
	cat := testCatalog(t, catalog.CapabilityAnalyzeData, catalog.CapabilityCalculate)
	p := New(cat, nil)

	plan, err := p.Build(analyzer.QueryAnalysis{
		Query:        "Analyze three different numbers: 10, 20, 30",
		Capabilities: []catalog.Capability{catalog.CapabilityAnalyzeData, catalog.CapabilityCalculate},
		Complexity:   analyzer.ComplexityModerate,
		StrategyHint: analyzer.HintParallel,
	})
	require.NoError(t, err)

	assert.Equal(t, StrategyParallel, plan.Strategy)
	require.Len(t, plan.Assignments, 2)
	// Discovery order preserved.
	assert.Equal(t, catalog.CapabilityAnalyzeData, plan.Assignments[0].Capability)
	// Independent assignments group together.
	assert.Equal(t, [][]string{{"task-1", "task-2"}}, plan.ParallelGroups)
}

// Scenario: a capability with zero eligible agents is dropped, not an
// error.
func TestBuild_PartialCoverage(t *testing.T) {
	cat := testCatalog(t, catalog.CapabilitySummarize)
	p := New(cat, nil)

	analysis := analyzer.QueryAnalysis{
		Query:        "Summarize and translate this document",
		Capabilities: []catalog.Capability{catalog.CapabilitySummarize, catalog.CapabilityTranslate},
	}
	plan, err := p.Build(analysis)
	require.NoError(t, err)

	assert.Less(t, len(plan.Assignments), len(analysis.Capabilities))
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, catalog.CapabilitySummarize, plan.Assignments[0].Capability)
}

func TestBuild_NoEligibleAgents(t *testing.T) {
	p := New(catalog.New(nil), nil)

	_, err := p.Build(analyzer.QueryAnalysis{
		Query:        "Translate this",
		Capabilities: []catalog.Capability{catalog.CapabilityTranslate},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestBuild_ChainFallbackForUnparseableDependencies(t *testing.T) {
	cat := testCatalog(t, catalog.CapabilitySummarize, catalog.CapabilityResearch, catalog.CapabilityTranslate)
	p := New(cat, nil)

	plan, err := p.Build(analyzer.QueryAnalysis{
		Query:        "multi step request",
		Capabilities: []catalog.Capability{catalog.CapabilitySummarize, catalog.CapabilityResearch, catalog.CapabilityTranslate},
		Dependencies: []string{"the second step needs the first"},
	})
	require.NoError(t, err)

	// Nothing parsed, so assignments chain linearly.
	assert.Equal(t, StrategySequential, plan.Strategy)
	require.Len(t, plan.Assignments, 3)
	assert.Empty(t, plan.Assignments[0].DependsOn)
	assert.Equal(t, []string{"task-1"}, plan.Assignments[1].DependsOn)
	assert.Equal(t, []string{"task-2"}, plan.Assignments[2].DependsOn)
	assert.Equal(t, []string{"task-1", "task-2", "task-3"}, plan.CriticalPath)
}

func TestBuild_DependencyIDsStayInPlan(t *testing.T) {
	// The translate capability has no agent; the dependency naming it
	// cannot create an edge to a missing assignment.
	cat := testCatalog(t, catalog.CapabilitySummarize, catalog.CapabilityResearch)
	p := New(cat, nil)

	plan, err := p.Build(analyzer.QueryAnalysis{
		Query:        "summarize, research, translate",
		Capabilities: []catalog.Capability{catalog.CapabilitySummarize, catalog.CapabilityResearch, catalog.CapabilityTranslate},
		Dependencies: []string{"translate -> research", "summarize -> research"},
	})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, a := range plan.Assignments {
		ids[a.ID] = true
	}
	for _, a := range plan.Assignments {
		for _, dep := range a.DependsOn {
			assert.True(t, ids[dep], "dependency %s must reference an id in the plan", dep)
		}
	}
}

func TestParseDependency(t *testing.T) {
	from, to, ok := parseDependency("summarize -> create_presentation")
	require.True(t, ok)
	assert.Equal(t, catalog.CapabilitySummarize, from)
	assert.Equal(t, catalog.CapabilityCreatePresentation, to)

	// Tight spacing and CamelCase spellings parse too.
	from, to, ok = parseDependency("Research->Summarize")
	require.True(t, ok)
	assert.Equal(t, catalog.CapabilityResearch, from)
	assert.Equal(t, catalog.CapabilitySummarize, to)

	_, _, ok = parseDependency("no arrow here")
	assert.False(t, ok)

	_, _, ok = parseDependency("telepathy -> summarize")
	assert.False(t, ok)
}
