package catalog

import (
	"strings"
	"time"
)

// Capability is a task capability tag from a closed set. Tags outside the
// set are dropped at parse time, never stored.
type Capability string

const (
	// CapabilitySummarize condenses long input into a short form.
	CapabilitySummarize Capability = "summarize"
	// CapabilityCreatePresentation produces slide or deck content.
	CapabilityCreatePresentation Capability = "create_presentation"
	// CapabilityAnalyzeData performs statistical or trend analysis.
	CapabilityAnalyzeData Capability = "analyze_data"
	// CapabilityGenerateContent drafts prose, articles, or copy.
	CapabilityGenerateContent Capability = "generate_content"
	// CapabilityCodeGeneration writes or modifies program code.
	CapabilityCodeGeneration Capability = "code_generation"
	// CapabilityResearch gathers and cross-references information.
	CapabilityResearch Capability = "research"
	// CapabilityTranslate converts text between languages.
	CapabilityTranslate Capability = "translate"
	// CapabilityCalculate evaluates numeric or symbolic expressions.
	CapabilityCalculate Capability = "calculate"
	// CapabilityMultiStep is the general-purpose fallback for tasks that
	// match no specific capability.
	CapabilityMultiStep Capability = "multi_step"
)

// AllCapabilities returns every known capability in declaration order.
// The order is load-bearing: analyzers and planners iterate it when
// matching, so earlier tags win on overlapping indicators.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilitySummarize,
		CapabilityCreatePresentation,
		CapabilityAnalyzeData,
		CapabilityGenerateContent,
		CapabilityCodeGeneration,
		CapabilityResearch,
		CapabilityTranslate,
		CapabilityCalculate,
		CapabilityMultiStep,
	}
}

// ParseCapability maps a tag string onto the closed capability set.
// Matching is case-insensitive and tolerates spaces and hyphens as
// separators ("CreatePresentation", "create-presentation", and
// "create presentation" all parse). Returns false for unknown tags.
func ParseCapability(s string) (Capability, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")

	// Accept the CamelCase spellings used by classification replies.
	switch normalized {
	case "createpresentation":
		normalized = "create_presentation"
	case "analyzedata":
		normalized = "analyze_data"
	case "generatecontent":
		normalized = "generate_content"
	case "codegeneration":
		normalized = "code_generation"
	case "multistep":
		normalized = "multi_step"
	}

	for _, c := range AllCapabilities() {
		if string(c) == normalized {
			return c, true
		}
	}
	return "", false
}

// String returns the tag form of the capability.
func (c Capability) String() string { return string(c) }

// AgentStatus represents the health status of a registered agent.
type AgentStatus string

const (
	// StatusActive indicates the agent is reachable and serving.
	StatusActive AgentStatus = "active"
	// StatusUnknown indicates health has not been confirmed recently.
	StatusUnknown AgentStatus = "unknown"
	// StatusInactive indicates the agent is unreachable or withdrawn.
	// Inactive agents are never selected.
	StatusInactive AgentStatus = "inactive"
)

// PerformanceMetrics holds rolling performance figures for an agent.
type PerformanceMetrics struct {
	// Ratings maps metric names (accuracy, completeness, ...) to rolling
	// averages in [0,1].
	Ratings map[string]float64 `json:"ratings,omitempty"`

	// AvgExecTime is the recorded average execution time across handovers.
	// Zero means no executions recorded yet.
	AvgExecTime time.Duration `json:"avg_exec_time,omitempty"`

	// Samples is the number of executions behind AvgExecTime.
	Samples int64 `json:"samples,omitempty"`
}

// SchemaProfile describes one side of an agent's I/O schema.
type SchemaProfile struct {
	// Type is the payload type the agent accepts or emits
	// ("text", "structured", "mixed", ...).
	Type string `json:"type,omitempty"`

	// Formats lists concrete formats supported (markdown, json, csv, ...).
	Formats []string `json:"formats,omitempty"`

	// MaxLen is the maximum accepted payload length in characters.
	// Zero means unbounded.
	MaxLen int `json:"max_len,omitempty"`
}

// AgentProfile describes a registered worker agent. Profiles are owned by
// the catalog: reads receive deep copies, so holding a returned profile
// across a refresh is safe.
type AgentProfile struct {
	// ID uniquely identifies the agent.
	ID string `json:"id"`

	// Name is the human-readable agent name.
	Name string `json:"name"`

	// Description summarizes what the agent specializes in.
	Description string `json:"description,omitempty"`

	// Endpoint is the base URL of the agent's execution API.
	Endpoint string `json:"endpoint"`

	// Capabilities lists the capabilities this agent provides.
	Capabilities []Capability `json:"capabilities"`

	// Input describes the accepted input schema.
	Input SchemaProfile `json:"input"`

	// Output describes the produced output schema.
	Output SchemaProfile `json:"output"`

	// Status is the current health status.
	Status AgentStatus `json:"status"`

	// Metrics holds rolling performance figures.
	Metrics PerformanceMetrics `json:"metrics"`

	// Seq is the registration sequence number assigned by the catalog.
	// Lower means registered earlier; selection ties keep the lowest.
	Seq uint64 `json:"seq,omitempty"`

	// RegisteredAt is when the catalog first saw this agent.
	RegisteredAt time.Time `json:"registered_at,omitempty"`
}

// HasCapability reports whether the profile lists the given capability.
func (p *AgentProfile) HasCapability(c Capability) bool {
	for _, have := range p.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the profile.
func (p *AgentProfile) Clone() *AgentProfile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Capabilities != nil {
		cp.Capabilities = make([]Capability, len(p.Capabilities))
		copy(cp.Capabilities, p.Capabilities)
	}
	if p.Input.Formats != nil {
		cp.Input.Formats = make([]string, len(p.Input.Formats))
		copy(cp.Input.Formats, p.Input.Formats)
	}
	if p.Output.Formats != nil {
		cp.Output.Formats = make([]string, len(p.Output.Formats))
		copy(cp.Output.Formats, p.Output.Formats)
	}
	if p.Metrics.Ratings != nil {
		cp.Metrics.Ratings = make(map[string]float64, len(p.Metrics.Ratings))
		for k, v := range p.Metrics.Ratings {
			cp.Metrics.Ratings[k] = v
		}
	}
	return &cp
}

// Requirements describes what a task needs from an agent's input schema.
// The zero value imposes no constraints.
type Requirements struct {
	// InputType is the payload type the step will submit.
	InputType string `json:"input_type,omitempty"`

	// Formats lists formats the step may submit; any overlap with the
	// agent's supported formats counts as compatible.
	Formats []string `json:"formats,omitempty"`

	// InputLength is the expected input length in characters.
	// Zero means unknown.
	InputLength int `json:"input_length,omitempty"`
}
