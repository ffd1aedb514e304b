package analyzer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/catalog"
)

// Complexity grades how involved a query is.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// StrategyHint is the classifier's suggestion for plan execution shape.
// The planner treats it as advisory.
type StrategyHint string

const (
	HintNone       StrategyHint = ""
	HintSequential StrategyHint = "sequential"
	HintParallel   StrategyHint = "parallel"
	HintHybrid     StrategyHint = "hybrid"
)

// Source records which analysis path produced a QueryAnalysis.
type Source string

const (
	SourceClassifier Source = "classifier"
	SourceFallback   Source = "fallback"
)

// QueryAnalysis is the structured reading of one query. It is created
// once per request and never mutated afterwards.
type QueryAnalysis struct {
	// Query is the original request text.
	Query string `json:"query"`

	// Capabilities lists required capabilities in analysis order.
	Capabilities []catalog.Capability `json:"capabilities"`

	// InputType is the payload type of the query ("text" by default).
	InputType string `json:"input_type"`

	// Complexity grades the query.
	Complexity Complexity `json:"complexity"`

	// MultiAgent reports whether more than one agent is needed.
	MultiAgent bool `json:"multi_agent"`

	// StrategyHint is the advisory execution shape, empty when none.
	StrategyHint StrategyHint `json:"strategy_hint,omitempty"`

	// Dependencies holds raw dependency strings ("research -> summarize").
	Dependencies []string `json:"dependencies,omitempty"`

	// ContextRequirements lists context the steps expect to receive.
	ContextRequirements []string `json:"context_requirements,omitempty"`

	// Source records whether the classifier or the heuristic produced
	// this analysis.
	Source Source `json:"source"`
}

// Classifier is the external classification collaborator. Classify sends
// a prompt and returns the raw reply text.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// Analyzer turns a natural-language query into a QueryAnalysis. The
// primary path asks the classification collaborator; any failure there
// falls back to a deterministic heuristic, so analysis never errors.
type Analyzer struct {
	classifier Classifier
	tokens     *TokenCounter
	logger     *zap.Logger
}

// New creates an analyzer. A nil classifier keeps every analysis on the
// heuristic path.
func New(classifier Classifier, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		classifier: classifier,
		tokens:     NewTokenCounter(),
		logger:     logger.With(zap.String("component", "query_analyzer")),
	}
}

// Analyze produces the analysis for a query. It never returns an error:
// classification failures of any kind (transport, timeout, unparseable
// reply, no surviving capability tags) take the heuristic fallback.
func (a *Analyzer) Analyze(ctx context.Context, query string) QueryAnalysis {
	if a.classifier != nil {
		if analysis, ok := a.classify(ctx, query); ok {
			return analysis
		}
	}
	return a.heuristic(query)
}

// classify runs the primary path. The reply is scanned for the first
// well-formed classification block; everything else in it is ignored.
func (a *Analyzer) classify(ctx context.Context, query string) (QueryAnalysis, bool) {
	reply, err := a.classifier.Classify(ctx, buildClassificationPrompt(query))
	if err != nil {
		a.logger.Warn("classification call failed, falling back", zap.Error(err))
		return QueryAnalysis{}, false
	}

	doc, ok := extractClassification(reply)
	if !ok {
		a.logger.Warn("classification reply had no parseable block, falling back")
		return QueryAnalysis{}, false
	}

	analysis, ok := a.fromClassification(query, doc)
	if !ok {
		a.logger.Warn("classification reply listed no known capabilities, falling back")
		return QueryAnalysis{}, false
	}

	a.logger.Debug("query classified",
		zap.Int("capabilities", len(analysis.Capabilities)),
		zap.String("complexity", string(analysis.Complexity)),
	)
	return analysis, true
}

// fromClassification validates a parsed block against the closed sets.
// Unknown capability tags are dropped; duplicates keep their first
// position. Returns false when no capability survives.
func (a *Analyzer) fromClassification(query string, doc classificationDoc) (QueryAnalysis, bool) {
	var caps []catalog.Capability
	seen := make(map[catalog.Capability]bool)
	for _, tag := range doc.Capabilities {
		c, ok := catalog.ParseCapability(tag)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		caps = append(caps, c)
	}
	if len(caps) == 0 {
		return QueryAnalysis{}, false
	}

	complexity := Complexity(doc.Complexity)
	switch complexity {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
	default:
		complexity = ComplexityModerate
	}

	inputType := strings.TrimSpace(doc.InputType)
	if inputType == "" {
		inputType = "text"
	}

	hint := StrategyHint(doc.StrategyHint)
	switch hint {
	case HintSequential, HintParallel, HintHybrid:
	default:
		hint = HintNone
	}

	multiAgent := len(caps) > 1
	if doc.MultiAgent != nil {
		multiAgent = *doc.MultiAgent
	}

	return QueryAnalysis{
		Query:               query,
		Capabilities:        caps,
		InputType:           inputType,
		Complexity:          complexity,
		MultiAgent:          multiAgent,
		StrategyHint:        hint,
		Dependencies:        doc.Dependencies,
		ContextRequirements: doc.ContextRequirements,
		Source:              SourceClassifier,
	}, true
}

// buildClassificationPrompt asks the collaborator for a single JSON
// object describing the query.
func buildClassificationPrompt(query string) string {
	var sb strings.Builder
	sb.WriteString("Classify the following request for task orchestration.\n\n")
	sb.WriteString("Reply with a single JSON object and nothing else:\n")
	sb.WriteString(`{
  "capabilities": [],
  "input_type": "text",
  "complexity": "simple|moderate|complex",
  "multi_agent": false,
  "strategy_hint": "sequential|parallel|hybrid",
  "dependencies": [],
  "context_requirements": []
}` + "\n\n")
	sb.WriteString("Allowed capability tags: ")
	for i, c := range catalog.AllCapabilities() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(c))
	}
	sb.WriteString(".\nList capabilities in execution order. ")
	sb.WriteString("Express dependencies as \"earlier_tag -> later_tag\".\n\n")
	fmt.Fprintf(&sb, "Request: %s\n", query)
	return sb.String()
}
