package planner

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/BaSui01/agentrelay/analyzer"
	"github.com/BaSui01/agentrelay/catalog"
)

// genAssignments builds a random DAG of assignments: each assignment may
// depend on any strict subset of its predecessors, so dependency ids
// always reference the same plan.
func genAssignments() gopter.Gen {
	return gen.IntRange(1, 8).FlatMap(func(v interface{}) gopter.Gen {
		n := v.(int)
		return gen.SliceOfN(n, gen.IntRange(0, 1<<7)).Map(func(masks []int) []*TaskAssignment {
			assignments := make([]*TaskAssignment, n)
			for i := 0; i < n; i++ {
				a := &TaskAssignment{
					ID:       fmt.Sprintf("task-%d", i+1),
					Priority: i + 1,
					Estimate: time.Duration(i+1) * time.Second,
				}
				for j := 0; j < i; j++ {
					if masks[i]&(1<<j) != 0 {
						a.DependsOn = append(a.DependsOn, fmt.Sprintf("task-%d", j+1))
					}
				}
				assignments[i] = a
			}
			return assignments
		})
	}, reflect.TypeOf([]*TaskAssignment(nil)))
}

func TestProperty_CriticalPathBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("critical path never exceeds the assignment count", prop.ForAll(
		func(assignments []*TaskAssignment) bool {
			path := criticalPath(assignments)
			if len(path) > len(assignments) {
				return false
			}
			// Every hop must reference a plan assignment.
			ids := make(map[string]bool, len(assignments))
			for _, a := range assignments {
				ids[a.ID] = true
			}
			for _, id := range path {
				if !ids[id] {
					return false
				}
			}
			return true
		},
		genAssignments(),
	))

	properties.TestingRun(t)
}

func TestProperty_ParallelGroupsDisjoint(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("groups are pairwise disjoint with two or more members", prop.ForAll(
		func(assignments []*TaskAssignment) bool {
			seen := make(map[string]bool)
			for _, group := range parallelGroups(assignments) {
				if len(group) < 2 {
					return false
				}
				for _, id := range group {
					if seen[id] {
						return false
					}
					seen[id] = true
				}
			}
			return true
		},
		genAssignments(),
	))

	properties.TestingRun(t)
}

func TestProperty_HybridOrderRespectsAcyclicDependencies(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("every assignment follows its dependencies", prop.ForAll(
		func(assignments []*TaskAssignment) bool {
			ordered := orderHybrid(assignments)
			if len(ordered) != len(assignments) {
				return false
			}
			position := make(map[string]int, len(ordered))
			for i, a := range ordered {
				position[a.ID] = i
			}
			// Generated graphs only depend backwards, so they are
			// acyclic and the peel must respect every edge.
			for _, a := range assignments {
				for _, dep := range a.DependsOn {
					if position[dep] >= position[a.ID] {
						return false
					}
				}
			}
			return true
		},
		genAssignments(),
	))

	properties.TestingRun(t)
}

func TestProperty_StrategyRules(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genCaps := gen.SliceOfN(4, gen.OneConstOf(
		catalog.CapabilitySummarize,
		catalog.CapabilityResearch,
		catalog.CapabilityTranslate,
		catalog.CapabilityCalculate,
	))

	properties.Property("non-empty dependencies always select sequential", prop.ForAll(
		func(caps []catalog.Capability, dep string) bool {
			analysis := analyzer.QueryAnalysis{
				Capabilities: caps,
				Complexity:   analyzer.ComplexityComplex,
				StrategyHint: analyzer.HintParallel,
				Dependencies: []string{dep},
			}
			return selectStrategy(analysis) == StrategySequential
		},
		genCaps,
		gen.AlphaString(),
	))

	properties.Property("complex with more than two capabilities and no dependencies selects hybrid", prop.ForAll(
		func(caps []catalog.Capability) bool {
			analysis := analyzer.QueryAnalysis{
				Capabilities: caps,
				Complexity:   analyzer.ComplexityComplex,
			}
			return selectStrategy(analysis) == StrategyHybrid
		},
		genCaps,
	))

	properties.TestingRun(t)
}
