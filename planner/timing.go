package planner

import (
	"time"

	"github.com/BaSui01/agentrelay/catalog"
)

// defaultBaseEstimate covers capabilities without a specific base.
const defaultBaseEstimate = 60 * time.Second

// baseEstimates holds the per-capability base duration estimates.
var baseEstimates = map[catalog.Capability]time.Duration{
	catalog.CapabilitySummarize:          30 * time.Second,
	catalog.CapabilityCreatePresentation: 120 * time.Second,
	catalog.CapabilityAnalyzeData:        60 * time.Second,
	catalog.CapabilityGenerateContent:    45 * time.Second,
	catalog.CapabilityCodeGeneration:     90 * time.Second,
	catalog.CapabilityResearch:           180 * time.Second,
	catalog.CapabilityTranslate:          20 * time.Second,
	catalog.CapabilityCalculate:          5 * time.Second,
	catalog.CapabilityMultiStep:          150 * time.Second,
}

// estimateDuration predicts one assignment's duration: the capability
// base, scaled by the ratio of the agent's recorded average execution
// time to that base when the agent has history.
func estimateDuration(c catalog.Capability, agent *catalog.AgentProfile) time.Duration {
	base, ok := baseEstimates[c]
	if !ok {
		base = defaultBaseEstimate
	}
	if agent == nil || agent.Metrics.AvgExecTime <= 0 {
		return base
	}
	ratio := float64(agent.Metrics.AvgExecTime) / float64(base)
	return time.Duration(float64(base) * ratio)
}

// totalEstimate sums every assignment estimate regardless of strategy.
// For the sequential executor this is the wall-clock prediction; for
// grouped plans it stays a conservative upper bound.
func totalEstimate(assignments []*TaskAssignment) time.Duration {
	var total time.Duration
	for _, a := range assignments {
		total += a.Estimate
	}
	return total
}
