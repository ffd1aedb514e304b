package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/agentrelay/catalog"
)

func TestMatchCapabilities(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []catalog.Capability
	}{
		{
			name:  "summarize then presentation",
			query: "Summarize this document then create a presentation",
			want:  []catalog.Capability{catalog.CapabilitySummarize, catalog.CapabilityCreatePresentation},
		},
		{
			name:  "analysis",
			query: "Analyze three different numbers: 10, 20, 30",
			want:  []catalog.Capability{catalog.CapabilityAnalyzeData},
		},
		{
			name:  "translation",
			query: "translate this paragraph into German",
			want:  []catalog.Capability{catalog.CapabilityTranslate},
		},
		{
			name:  "code",
			query: "implement a parser in Go",
			want:  []catalog.Capability{catalog.CapabilityCodeGeneration},
		},
		{
			name:  "calculation",
			query: "compute the statistics for this quarter",
			want:  []catalog.Capability{catalog.CapabilityAnalyzeData, catalog.CapabilityCalculate},
		},
		{
			name:  "no indicators defaults to multi_step",
			query: "do the thing",
			want:  []catalog.Capability{catalog.CapabilityMultiStep},
		},
		{
			name:  "case insensitive",
			query: "RESEARCH the topic and WRITE a report",
			want:  []catalog.Capability{catalog.CapabilityGenerateContent, catalog.CapabilityResearch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchCapabilities(tt.query))
		})
	}
}

func TestHeuristic_Complexity(t *testing.T) {
	a := New(nil, nil)

	short := a.heuristic("summarize this")
	assert.Equal(t, ComplexitySimple, short.Complexity)

	long := a.heuristic("summarize " + strings.Repeat("the quarterly revenue figures across all regional offices ", 10))
	assert.Equal(t, ComplexityModerate, long.Complexity)
}

func TestHeuristic_Shape(t *testing.T) {
	a := New(nil, nil)
	analysis := a.heuristic("research the topic and summarize the findings")

	assert.Equal(t, "text", analysis.InputType)
	assert.Equal(t, HintNone, analysis.StrategyHint)
	assert.Empty(t, analysis.Dependencies)
	assert.Empty(t, analysis.ContextRequirements)
	assert.True(t, analysis.MultiAgent)
	assert.Equal(t, SourceFallback, analysis.Source)
}

// The fallback must be pure: repeated analysis of the same query yields
// the same result.
func TestHeuristic_Deterministic(t *testing.T) {
	a := New(nil, nil)
	query := "analyze the sales data and draft a summary presentation"

	first := a.heuristic(query)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, a.heuristic(query))
	}
}
