package analyzer

import (
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/catalog"
)

// complexityTokenThreshold separates simple from moderate queries on the
// heuristic path.
const complexityTokenThreshold = 20

// capabilityIndicators maps each capability to the substrings that signal
// it in query text. Scanned in capability declaration order, so earlier
// capabilities win placement when a query matches several.
var capabilityIndicators = map[catalog.Capability][]string{
	catalog.CapabilitySummarize:          {"summar"},
	catalog.CapabilityCreatePresentation: {"presentation", "slide", "deck"},
	catalog.CapabilityAnalyzeData:        {"analy", "statistic", "trend", " data"},
	catalog.CapabilityGenerateContent:    {"generat", "write", "draft", "compose"},
	catalog.CapabilityCodeGeneration:     {"code", "program", "script", "implement"},
	catalog.CapabilityResearch:           {"research", "investigat", "look up", "search for"},
	catalog.CapabilityTranslate:          {"translat"},
	catalog.CapabilityCalculate:          {"calculat", "comput", "equation", "math"},
}

// heuristic is the deterministic fallback analysis. It is a pure function
// of the query text: no external calls, no randomness, so the same query
// always yields the same analysis.
func (a *Analyzer) heuristic(query string) QueryAnalysis {
	caps := matchCapabilities(query)

	complexity := ComplexitySimple
	if a.tokens.Count(query) >= complexityTokenThreshold {
		complexity = ComplexityModerate
	}

	a.logger.Debug("heuristic analysis",
		zap.Int("capabilities", len(caps)),
		zap.String("complexity", string(complexity)),
	)

	return QueryAnalysis{
		Query:        query,
		Capabilities: caps,
		InputType:    "text",
		Complexity:   complexity,
		MultiAgent:   len(caps) > 1,
		StrategyHint: HintNone,
		Source:       SourceFallback,
	}
}

// matchCapabilities scans the lowercased query for indicator substrings
// in capability declaration order. MultiStep is the default when nothing
// matches.
func matchCapabilities(query string) []catalog.Capability {
	lowered := strings.ToLower(query)

	var caps []catalog.Capability
	for _, c := range catalog.AllCapabilities() {
		for _, indicator := range capabilityIndicators[c] {
			if strings.Contains(lowered, indicator) {
				caps = append(caps, c)
				break
			}
		}
	}
	if len(caps) == 0 {
		caps = []catalog.Capability{catalog.CapabilityMultiStep}
	}
	return caps
}
