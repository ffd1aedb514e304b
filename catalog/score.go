package catalog

import "strings"

// Component weights for agent selection. They sum to 1.0 so a perfect
// candidate scores exactly 1.0.
const (
	weightPerformance    = 0.40
	weightHealth         = 0.30
	weightSchema         = 0.20
	weightSpecialization = 0.10
)

// Score rates how well a profile fits a capability and its requirements,
// on [0,1]. It is a pure function of its arguments: no catalog state is
// consulted, so the same inputs always produce the same score.
//
// Components: performance 40% (mean of recorded rating values, 0.5 when
// none recorded), health 30% (active 1.0, unknown 0.5, inactive 0),
// schema compatibility 20%, specialization 10% (full weight when the
// capability text appears in the agent's name or description).
func Score(p *AgentProfile, c Capability, req Requirements) float64 {
	if p == nil {
		return 0
	}
	return weightPerformance*performanceScore(p) +
		weightHealth*healthScore(p.Status) +
		weightSchema*schemaScore(p.Input, req) +
		weightSpecialization*specializationScore(p, c)
}

// performanceScore is the mean of the recorded rating values, or 0.5
// when the agent has no recorded ratings yet.
func performanceScore(p *AgentProfile) float64 {
	if len(p.Metrics.Ratings) == 0 {
		return 0.5
	}
	var sum float64
	for _, v := range p.Metrics.Ratings {
		sum += v
	}
	return sum / float64(len(p.Metrics.Ratings))
}

func healthScore(s AgentStatus) float64 {
	switch s {
	case StatusActive:
		return 1.0
	case StatusInactive:
		return 0
	default:
		return 0.5
	}
}

// schemaScore rates input-schema compatibility: +0.5 for an exact type
// match, +0.3 instead when either side is "mixed", +0.3 when any requested
// format is supported, +0.2 when the declared length limit covers the
// expected input. The sum is capped at 1.0 before weighting.
func schemaScore(in SchemaProfile, req Requirements) float64 {
	var score float64

	have := strings.ToLower(in.Type)
	want := strings.ToLower(req.InputType)
	switch {
	case want != "" && have == want:
		score += 0.5
	case have == "mixed" || want == "mixed":
		score += 0.3
	}

	if formatsIntersect(req.Formats, in.Formats) {
		score += 0.3
	}

	// A zero MaxLen is unbounded; a zero InputLength is an unknown need
	// and counts as covered.
	if in.MaxLen == 0 || req.InputLength <= in.MaxLen {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func formatsIntersect(requested, supported []string) bool {
	for _, r := range requested {
		for _, s := range supported {
			if strings.EqualFold(r, s) {
				return true
			}
		}
	}
	return false
}

// specializationScore gives full weight when the capability text appears
// in the agent's name or description (case-insensitive, underscores in
// the tag also match as spaces), half weight otherwise.
func specializationScore(p *AgentProfile, c Capability) float64 {
	hay := strings.ToLower(p.Name + " " + p.Description)
	tag := string(c)
	if strings.Contains(hay, tag) || strings.Contains(hay, strings.ReplaceAll(tag, "_", " ")) {
		return 1.0
	}
	return 0.5
}
