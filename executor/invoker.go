package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/agentrelay/catalog"
	"github.com/BaSui01/agentrelay/internal/tlsutil"
	"github.com/BaSui01/agentrelay/types"
)

// defaultInvokeTimeout bounds the wait for one agent invocation.
const defaultInvokeTimeout = 120 * time.Second

// InvokeResult is an agent's reply to one task.
type InvokeResult struct {
	// Response is the agent's reply text.
	Response string `json:"response"`

	// ExecutionTime is the agent-reported execution time, when the
	// agent reports one. Zero otherwise; the executor falls back to
	// wall-clock time.
	ExecutionTime time.Duration `json:"execution_time,omitempty"`
}

// AgentInvoker dispatches a task to an agent's execution endpoint.
type AgentInvoker interface {
	Invoke(ctx context.Context, agent *catalog.AgentProfile, input, sessionID string) (*InvokeResult, error)
}

// HTTPInvoker invokes agents over HTTP. Failures come back as typed
// errors so the executor can classify the failed step.
type HTTPInvoker struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPInvoker creates an invoker with the given per-call timeout.
// A non-positive timeout uses the default bounded wait.
func NewHTTPInvoker(timeout time.Duration) *HTTPInvoker {
	if timeout <= 0 {
		timeout = defaultInvokeTimeout
	}
	return &HTTPInvoker{
		client:  tlsutil.SecureHTTPClient(timeout),
		timeout: timeout,
	}
}

type invokeRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
}

type invokeResponse struct {
	Response string `json:"response"`
	// ExecutionTime is reported in seconds.
	ExecutionTime float64 `json:"execution_time,omitempty"`
}

// Invoke posts the task to the agent's execution endpoint and waits for
// the reply, bounded by the invoker timeout.
func (in *HTTPInvoker) Invoke(ctx context.Context, agent *catalog.AgentProfile, input, sessionID string) (*InvokeResult, error) {
	if agent == nil || agent.Endpoint == "" {
		return nil, types.NewError(types.ErrNotFound, "agent has no execution endpoint")
	}

	body, err := json.Marshal(invokeRequest{Input: input, SessionID: sessionID})
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "encoding agent request").WithCause(err)
	}

	ctx, cancel := context.WithTimeout(ctx, in.timeout)
	defer cancel()

	url := strings.TrimSuffix(agent.Endpoint, "/") + "/execute"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "building agent request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := in.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, types.NewError(types.ErrTimeout,
				fmt.Sprintf("agent %s did not respond within %s", agent.ID, in.timeout)).
				WithCause(err).WithAgent(agent.ID).WithRetryable(true)
		}
		return nil, types.NewError(types.ErrTransport,
			fmt.Sprintf("reaching agent %s", agent.ID)).
			WithCause(err).WithAgent(agent.ID).WithRetryable(true)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "reading agent response").
			WithCause(err).WithAgent(agent.ID)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.NewError(types.ErrNotFound,
			fmt.Sprintf("agent %s execution endpoint not found", agent.ID)).
			WithHTTPStatus(resp.StatusCode).WithAgent(agent.ID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, types.NewError(types.ErrBadResponse,
			fmt.Sprintf("agent %s returned status %d", agent.ID, resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).WithAgent(agent.ID)
	}

	var parsed invokeResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		// Plain-text agents are accepted as-is.
		return &InvokeResult{Response: string(data)}, nil
	}
	result := &InvokeResult{Response: parsed.Response}
	if parsed.ExecutionTime > 0 {
		result.ExecutionTime = time.Duration(parsed.ExecutionTime * float64(time.Second))
	}
	return result, nil
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

var _ AgentInvoker = (*HTTPInvoker)(nil)
