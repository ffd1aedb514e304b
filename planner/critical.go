package planner

// criticalPath finds the longest dependency-linked chain of assignment
// ids. Traversal starts from every dependency-free assignment and
// follows dependent edges depth-first; the first longest chain found
// wins ties.
func criticalPath(assignments []*TaskAssignment) []string {
	if len(assignments) == 0 {
		return nil
	}

	// dependents[id] lists assignments that depend on id, in plan order.
	dependents := make(map[string][]*TaskAssignment, len(assignments))
	for _, a := range assignments {
		for _, dep := range a.DependsOn {
			dependents[dep] = append(dependents[dep], a)
		}
	}

	var longest []string
	var walk func(a *TaskAssignment, path []string)
	walk = func(a *TaskAssignment, path []string) {
		path = append(path, a.ID)
		if len(path) > len(longest) {
			longest = append([]string(nil), path...)
		}
		for _, next := range dependents[a.ID] {
			if containsID(path, next.ID) {
				continue
			}
			walk(next, path)
		}
	}

	for _, a := range assignments {
		if len(a.DependsOn) == 0 {
			walk(a, nil)
		}
	}

	// A plan that is all cycles has no dependency-free root; the plan
	// order itself is then the only defensible chain start.
	if longest == nil {
		longest = []string{assignments[0].ID}
	}
	return longest
}

func containsID(ids []string, id string) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}
