package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BaSui01/agentrelay/config"
	"github.com/BaSui01/agentrelay/internal/tlsutil"
	"github.com/BaSui01/agentrelay/types"
)

// defaultClassifyTimeout bounds one classification call.
const defaultClassifyTimeout = 30 * time.Second

// HTTPClassifier sends classification prompts to an external HTTP
// collaborator. The reply body may be a JSON envelope with a "reply"
// field or plain text; either way the analyzer scans it for the first
// structured block.
type HTTPClassifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPClassifier creates a classifier client. A non-positive timeout
// falls back to the default.
func NewHTTPClassifier(endpoint, apiKey string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   tlsutil.SecureHTTPClient(timeout),
	}
}

// NewClassifierFromConfig wires a classifier from the classifier config
// section. Returns nil when no endpoint is configured, which keeps the
// analyzer on the heuristic path.
func NewClassifierFromConfig(cfg config.ClassifierConfig) Classifier {
	if cfg.Endpoint == "" {
		return nil
	}
	return NewHTTPClassifier(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
}

// classifyRequest is the wire request sent to the collaborator.
type classifyRequest struct {
	Prompt string `json:"prompt"`
}

// classifyReply is the optional wire envelope of the collaborator reply.
type classifyReply struct {
	Reply string `json:"reply"`
}

// Classify sends the prompt and returns the raw reply text.
func (c *HTTPClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(classifyRequest{Prompt: prompt})
	if err != nil {
		return "", types.NewError(types.ErrInvalidRequest, "encoding classification request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewError(types.ErrInvalidRequest, "building classification request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", types.NewError(types.ErrTimeout, "classification timed out").
				WithRetryable(true).WithCause(err)
		}
		return "", types.NewError(types.ErrTransport, "classification call failed").
			WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", types.NewError(types.ErrBadResponse,
			fmt.Sprintf("classifier returned status %d", resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(resp.StatusCode >= 500)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", types.NewError(types.ErrTransport, "reading classification response").
			WithRetryable(true).WithCause(err)
	}

	// Unwrap the JSON envelope when present; otherwise the body is the
	// reply itself.
	var envelope classifyReply
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Reply != "" {
		return envelope.Reply, nil
	}
	return string(body), nil
}

var _ Classifier = (*HTTPClassifier)(nil)
