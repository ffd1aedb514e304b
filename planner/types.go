package planner

import (
	"time"

	"github.com/BaSui01/agentrelay/catalog"
)

// Strategy is the execution shape chosen for a plan.
type Strategy string

const (
	// StrategySequential runs assignments one after another, dependency
	// order first.
	StrategySequential Strategy = "sequential"
	// StrategyParallel keeps discovery order; every assignment is
	// independent of the others.
	StrategyParallel Strategy = "parallel"
	// StrategyHybrid orders assignments by dependency levels: each level
	// is independent internally, levels run in sequence.
	StrategyHybrid Strategy = "hybrid"
)

// TaskAssignment binds one capability to a selected agent. The agent
// profile is a snapshot taken at planning time; the catalog remains the
// owner of the live profile.
type TaskAssignment struct {
	// ID identifies the assignment within its plan ("task-1", ...).
	ID string `json:"id"`

	// Capability is the work this assignment covers.
	Capability catalog.Capability `json:"capability"`

	// Agent is the selected agent profile snapshot.
	Agent *catalog.AgentProfile `json:"agent"`

	// Priority is the assignment's 1-based position in analysis order.
	Priority int `json:"priority"`

	// DependsOn lists assignment ids this one waits for. Every id
	// references an assignment in the same plan.
	DependsOn []string `json:"depends_on,omitempty"`

	// Estimate is the predicted execution duration.
	Estimate time.Duration `json:"estimate"`

	// Input is the prepared task text handed to the agent.
	Input string `json:"input"`
}

// dependsOn reports whether the assignment lists the given id.
func (a *TaskAssignment) dependsOn(id string) bool {
	for _, dep := range a.DependsOn {
		if dep == id {
			return true
		}
	}
	return false
}

// ExecutionPlan is the ordered, fully assigned plan for one query.
type ExecutionPlan struct {
	// ID identifies the plan.
	ID string `json:"id"`

	// Strategy is the chosen execution shape.
	Strategy Strategy `json:"strategy"`

	// Assignments in execution order.
	Assignments []*TaskAssignment `json:"assignments"`

	// CriticalPath is the longest dependency-linked id chain, a lower
	// bound on sequential latency.
	CriticalPath []string `json:"critical_path,omitempty"`

	// ParallelGroups partitions independent assignments. Groups are
	// pairwise disjoint and always hold two or more members.
	ParallelGroups [][]string `json:"parallel_groups,omitempty"`

	// TotalEstimate is the sum of every assignment estimate. It is exact
	// for sequential execution and a conservative upper bound otherwise.
	TotalEstimate time.Duration `json:"total_estimate"`
}

// Assignment returns the assignment with the given id.
func (p *ExecutionPlan) Assignment(id string) (*TaskAssignment, bool) {
	for _, a := range p.Assignments {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}
