package planner

// parallelGroups partitions assignments that share no dependency edge.
// Walking assignments in order, each unprocessed assignment seeds a
// group joined by every other unprocessed assignment with no dependency
// edge to the seed in either direction; all members are then marked
// processed, which keeps groups pairwise disjoint. Only groups of two or
// more are emitted.
func parallelGroups(assignments []*TaskAssignment) [][]string {
	processed := make(map[string]bool, len(assignments))

	var groups [][]string
	for _, seed := range assignments {
		if processed[seed.ID] {
			continue
		}
		group := []string{seed.ID}
		processed[seed.ID] = true

		for _, other := range assignments {
			if processed[other.ID] || conflicts(seed, other) {
				continue
			}
			group = append(group, other.ID)
			processed[other.ID] = true
		}

		if len(group) >= 2 {
			groups = append(groups, group)
		}
	}
	return groups
}

// conflicts reports a dependency edge between two assignments in either
// direction.
func conflicts(a, b *TaskAssignment) bool {
	return a.dependsOn(b.ID) || b.dependsOn(a.ID)
}
