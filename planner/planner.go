package planner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/analyzer"
	"github.com/BaSui01/agentrelay/catalog"
	"github.com/BaSui01/agentrelay/types"
)

// Planner builds execution plans from query analyses and the agent
// catalog.
type Planner struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// New creates a planner reading the given catalog.
func New(cat *catalog.Catalog, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		catalog: cat,
		logger:  logger.With(zap.String("component", "plan_builder")),
	}
}

// Build turns an analysis into an execution plan: strategy selection,
// agent assignment, dependency resolution, ordering, timing, critical
// path, and parallel grouping.
//
// A capability with no eligible agent is silently omitted; callers
// detect partial coverage by comparing len(plan.Assignments) to
// len(analysis.Capabilities). A plan with zero assignments is the one
// planning failure surfaced as an error.
func (p *Planner) Build(analysis analyzer.QueryAnalysis) (*ExecutionPlan, error) {
	strategy := selectStrategy(analysis)

	assignments := p.assign(analysis)
	if len(assignments) == 0 {
		return nil, types.NewError(types.ErrNotFound,
			"no eligible agents for any requested capability")
	}
	if len(assignments) < len(analysis.Capabilities) {
		p.logger.Warn("partial capability coverage",
			zap.Int("requested", len(analysis.Capabilities)),
			zap.Int("assigned", len(assignments)),
		)
	}

	resolveDependencies(assignments, analysis.Dependencies)

	for _, a := range assignments {
		a.Estimate = estimateDuration(a.Capability, a.Agent)
	}

	ordered := orderAssignments(strategy, assignments)

	plan := &ExecutionPlan{
		ID:             uuid.New().String(),
		Strategy:       strategy,
		Assignments:    ordered,
		CriticalPath:   criticalPath(ordered),
		ParallelGroups: parallelGroups(ordered),
		TotalEstimate:  totalEstimate(ordered),
	}

	p.logger.Info("plan built",
		zap.String("plan_id", plan.ID),
		zap.String("strategy", string(plan.Strategy)),
		zap.Int("assignments", len(plan.Assignments)),
		zap.Duration("total_estimate", plan.TotalEstimate),
	)
	return plan, nil
}

// selectStrategy applies the strategy rules in order; the first match
// wins.
func selectStrategy(analysis analyzer.QueryAnalysis) Strategy {
	switch {
	case len(analysis.Dependencies) > 0:
		return StrategySequential
	case analysis.Complexity == analyzer.ComplexityComplex && len(analysis.Capabilities) > 2:
		return StrategyHybrid
	case analysis.StrategyHint == analyzer.HintParallel:
		return StrategyParallel
	default:
		return StrategySequential
	}
}

// assign selects an agent for each capability in analysis order.
// Capabilities without an eligible agent are dropped, not errors.
func (p *Planner) assign(analysis analyzer.QueryAnalysis) []*TaskAssignment {
	req := catalog.Requirements{
		InputType:   analysis.InputType,
		InputLength: len(analysis.Query),
	}

	var assignments []*TaskAssignment
	for i, c := range analysis.Capabilities {
		agent, ok := p.catalog.FindBest(c, req)
		if !ok {
			p.logger.Debug("no eligible agent, dropping capability",
				zap.String("capability", string(c)),
			)
			continue
		}
		assignments = append(assignments, &TaskAssignment{
			ID:         fmt.Sprintf("task-%d", len(assignments)+1),
			Capability: c,
			Agent:      agent,
			Priority:   i + 1,
			Input:      taskInput(c, analysis.Query),
		})
	}
	return assignments
}

// taskInput prepares the task text handed to the assigned agent.
func taskInput(c catalog.Capability, query string) string {
	verb := strings.ReplaceAll(string(c), "_", " ")
	return fmt.Sprintf("Perform the %s step for this request: %s", verb, query)
}

// resolveDependencies turns the analysis dependency strings into edges
// between assignments. Explicit "A -> B" references whose endpoints
// parse as capabilities present in the plan make B depend on A. When
// dependencies were declared but none reference plan capabilities, the
// assignments chain linearly instead, each depending on its predecessor,
// preserving the sequential intent of the hints.
func resolveDependencies(assignments []*TaskAssignment, deps []string) {
	if len(deps) == 0 {
		return
	}

	byCapability := make(map[catalog.Capability]*TaskAssignment, len(assignments))
	for _, a := range assignments {
		if _, exists := byCapability[a.Capability]; !exists {
			byCapability[a.Capability] = a
		}
	}

	resolved := false
	for _, dep := range deps {
		from, to, ok := parseDependency(dep)
		if !ok {
			continue
		}
		src, okFrom := byCapability[from]
		dst, okTo := byCapability[to]
		if !okFrom || !okTo || src == dst {
			continue
		}
		if !dst.dependsOn(src.ID) {
			dst.DependsOn = append(dst.DependsOn, src.ID)
		}
		resolved = true
	}

	if !resolved {
		for i := 1; i < len(assignments); i++ {
			assignments[i].DependsOn = []string{assignments[i-1].ID}
		}
	}
}

// parseDependency splits an "A -> B" hint into capability endpoints.
func parseDependency(s string) (from, to catalog.Capability, ok bool) {
	parts := strings.SplitN(s, "->", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	from, okFrom := catalog.ParseCapability(parts[0])
	to, okTo := catalog.ParseCapability(parts[1])
	if !okFrom || !okTo {
		return "", "", false
	}
	return from, to, true
}
