package planner

import "sort"

// orderAssignments arranges assignments for execution under the chosen
// strategy. The returned slice shares assignment pointers with the
// input.
func orderAssignments(strategy Strategy, assignments []*TaskAssignment) []*TaskAssignment {
	switch strategy {
	case StrategySequential:
		return orderSequential(assignments)
	case StrategyParallel:
		// Discovery order, no reordering.
		return assignments
	case StrategyHybrid:
		return orderHybrid(assignments)
	default:
		return assignments
	}
}

// orderSequential stable-sorts by dependency count ascending, then by
// original priority ascending.
func orderSequential(assignments []*TaskAssignment) []*TaskAssignment {
	ordered := make([]*TaskAssignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if len(ordered[i].DependsOn) != len(ordered[j].DependsOn) {
			return len(ordered[i].DependsOn) < len(ordered[j].DependsOn)
		}
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}

// orderHybrid peels dependency levels iteratively: each round extracts
// every remaining assignment with no unresolved dependency as the next
// group and marks its id resolved for the rest. When a round extracts
// nothing (a dependency cycle), the single remaining assignment with the
// smallest estimate is forced out to break the cycle. Groups concatenate
// in extraction order.
func orderHybrid(assignments []*TaskAssignment) []*TaskAssignment {
	remaining := make(map[string]*TaskAssignment, len(assignments))
	unresolved := make(map[string]map[string]bool, len(assignments))
	for _, a := range assignments {
		remaining[a.ID] = a
		deps := make(map[string]bool, len(a.DependsOn))
		for _, dep := range a.DependsOn {
			// Ids outside the plan cannot resolve; dependency ids are
			// validated at construction, so this is the same set.
			deps[dep] = true
		}
		unresolved[a.ID] = deps
	}

	ordered := make([]*TaskAssignment, 0, len(assignments))
	for len(remaining) > 0 {
		var ready []*TaskAssignment
		// Walk the original order so extraction is deterministic.
		for _, a := range assignments {
			if _, ok := remaining[a.ID]; !ok {
				continue
			}
			if len(unresolved[a.ID]) == 0 {
				ready = append(ready, a)
			}
		}

		if len(ready) == 0 {
			// Cycle: force out the cheapest remaining assignment.
			var cheapest *TaskAssignment
			for _, a := range assignments {
				if _, ok := remaining[a.ID]; !ok {
					continue
				}
				if cheapest == nil || a.Estimate < cheapest.Estimate {
					cheapest = a
				}
			}
			ready = []*TaskAssignment{cheapest}
		}

		for _, a := range ready {
			ordered = append(ordered, a)
			delete(remaining, a.ID)
			for _, deps := range unresolved {
				delete(deps, a.ID)
			}
		}
	}
	return ordered
}
