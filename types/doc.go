// Copyright (c) AgentRelay Authors.
// Licensed under the MIT License.

/*
Package types provides the shared primitives of the orchestration pipeline.

It is the lowest-level package in the module and depends on nothing internal,
so every other package can share its contracts without import cycles.

  - Error / ErrorCode — structured errors with HTTP status and Retryable flag;
    the TIMEOUT, TRANSPORT, BAD_RESPONSE, and NOT_FOUND kinds classify
    external-call failures so callers can tell retryable from terminal.
  - Context propagation — WithRequestID / WithSessionID and their accessors.
*/
package types
