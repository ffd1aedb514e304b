// Package planner turns a query analysis into an execution plan: one
// strategy, an ordered list of agent assignments, a critical path,
// parallel groupings, and a total duration estimate.
//
// Strategy selection applies the first matching rule: declared
// dependencies force sequential execution; complex analyses spanning
// more than two capabilities go hybrid; a parallel hint is honored
// otherwise; everything else defaults to sequential.
//
// Assignment consults the catalog per capability in analysis order.
// Capabilities without an eligible agent are dropped silently — partial
// coverage shows up as fewer assignments than capabilities, and only a
// plan with no assignments at all is an error.
//
// Hybrid ordering peels dependency levels iteratively and breaks cycles
// by forcing out the cheapest remaining assignment. Parallel groups are
// planning-time artifacts: the executor walks the flattened order
// sequentially either way, so the total estimate — the plain sum of
// per-assignment estimates — matches its wall clock.
package planner
