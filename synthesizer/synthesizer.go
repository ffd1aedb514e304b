// Package synthesizer assembles the final report from per-step results.
package synthesizer

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/executor"
)

// excerptLimit caps the per-result excerpt in the itemized section.
const excerptLimit = 300

// combineThreshold gates which results contribute their full text to
// the combined section.
const combineThreshold = 0.5

// noResultsMessage is returned for an empty result list.
const noResultsMessage = "No results available. None of the assigned agents produced a response."

// Synthesizer renders an ordered result list into a final report.
type Synthesizer struct {
	logger *zap.Logger
}

// New creates a synthesizer.
func New(logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{logger: logger.With(zap.String("component", "synthesizer"))}
}

// Synthesize renders the report: every result itemized in execution
// order, then a combined section carrying the full text of only the
// results whose confidence exceeds the threshold. Low-confidence and
// failed results stay visible in the itemized list.
func (s *Synthesizer) Synthesize(results []executor.StepResult, query string) string {
	if len(results) == 0 {
		return noResultsMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Results for: %s\n\n", query)

	b.WriteString("## Step results\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%s** — %s\n", i+1, agentLabel(r), r.Task)
		fmt.Fprintf(&b, "   execution time: %s, confidence: %.2f\n",
			r.ExecutionTime.Round(time.Millisecond), r.Confidence)
		if r.HandoverReady {
			fmt.Fprintf(&b, "   %s\n", excerpt(r.Response))
		} else {
			fmt.Fprintf(&b, "   failed: %s\n", r.Error)
		}
		b.WriteString("\n")
	}

	combined := s.combine(results)
	if combined != "" {
		b.WriteString("## Combined answer\n\n")
		b.WriteString(combined)
	}

	s.logger.Debug("report synthesized",
		zap.Int("results", len(results)),
		zap.Int("report_len", b.Len()))
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// combine concatenates the full text of high-confidence results in
// execution order.
func (s *Synthesizer) combine(results []executor.StepResult) string {
	var parts []string
	for _, r := range results {
		if r.HandoverReady && r.Confidence > combineThreshold {
			parts = append(parts, fmt.Sprintf("### %s\n\n%s", agentLabel(r), r.Response))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func agentLabel(r executor.StepResult) string {
	if r.AgentName != "" {
		return r.AgentName
	}
	return r.AgentID
}

func excerpt(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= excerptLimit {
		return s
	}
	return s[:excerptLimit] + "..."
}
