// Package executor walks an execution plan, handing each task to its
// assigned agent with the accumulated context of the prior steps.
//
// Each invocation becomes a persisted handover record with an
// initiated/completed/failed lifecycle and a heuristic confidence
// score. A failed step folds its failure text into the accumulated
// context and execution continues to the next assignment. Progress is
// published as pipeline events on an in-process bus.
package executor
