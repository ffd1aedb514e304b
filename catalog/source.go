package catalog

import (
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

// Source supplies the current agent listing for a refresh cycle.
type Source interface {
	// Fetch returns every agent the source knows about. The returned
	// profiles are owned by the caller.
	Fetch(ctx context.Context) ([]AgentProfile, error)
}

// defaultFetchTimeout bounds one registry fetch when the caller's context
// carries no deadline.
const defaultFetchTimeout = 15 * time.Second

// wireProfile is the JSON shape served by registry endpoints and declared
// in config seeds. Capability tags are validated against the closed set
// on conversion; unknown tags are dropped.
type wireProfile struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Endpoint     string             `json:"endpoint"`
	Capabilities []string           `json:"capabilities"`
	Status       string             `json:"status"`
	Input        SchemaProfile      `json:"input"`
	Output       SchemaProfile      `json:"output"`
	Metrics      PerformanceMetrics `json:"metrics"`
}

func (w *wireProfile) toProfile() AgentProfile {
	p := AgentProfile{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Endpoint:    w.Endpoint,
		Input:       w.Input,
		Output:      w.Output,
		Metrics:     w.Metrics,
	}
	for _, tag := range w.Capabilities {
		if c, ok := ParseCapability(tag); ok {
			p.Capabilities = append(p.Capabilities, c)
		}
	}
	switch AgentStatus(w.Status) {
	case StatusActive, StatusInactive:
		p.Status = AgentStatus(w.Status)
	default:
		p.Status = StatusUnknown
	}
	return p
}

// HTTPSource fetches agent profiles from a registry HTTP endpoint that
// serves a JSON array of profiles.
type HTTPSource struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSource creates a source polling the given endpoint. A
// non-positive timeout falls back to the default fetch timeout.
func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{
		endpoint: endpoint,
		client:   tlsutil.SecureHTTPClient(timeout),
	}
}

// Fetch retrieves and validates the registry listing.
func (s *HTTPSource) Fetch(ctx context.Context) ([]AgentProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "building registry request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, types.NewError(types.ErrTimeout, "registry fetch timed out").
				WithRetryable(true).WithCause(err)
		}
		return nil, types.NewError(types.ErrTransport, "registry fetch failed").
			WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.NewError(types.ErrNotFound, "registry endpoint not found").
			WithHTTPStatus(resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, types.NewError(types.ErrBadResponse,
			fmt.Sprintf("registry returned status %d", resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(resp.StatusCode >= 500)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "reading registry response").
			WithRetryable(true).WithCause(err)
	}

	var wires []wireProfile
	if err := json.Unmarshal(body, &wires); err != nil {
		return nil, types.NewError(types.ErrBadResponse, "decoding registry response").WithCause(err)
	}

	profiles := make([]AgentProfile, 0, len(wires))
	for i := range wires {
		profiles = append(profiles, wires[i].toProfile())
	}
	return profiles, nil
}

// StaticSource serves a fixed profile set declared in configuration.
type StaticSource struct {
	profiles []AgentProfile
}

// NewStaticSource builds a source from config seeds. Unknown capability
// tags are dropped; seeds start with unknown health until probed.
func NewStaticSource(seeds []config.AgentSeed) *StaticSource {
	profiles := make([]AgentProfile, 0, len(seeds))
	for _, seed := range seeds {
		w := wireProfile{
			ID:           seed.ID,
			Name:         seed.Name,
			Description:  seed.Description,
			Endpoint:     seed.Endpoint,
			Capabilities: seed.Capabilities,
			Input: SchemaProfile{
				Type:    seed.InputType,
				Formats: seed.Formats,
				MaxLen:  seed.MaxInputLen,
			},
		}
		profiles = append(profiles, w.toProfile())
	}
	return &StaticSource{profiles: profiles}
}

// Fetch returns copies of the configured profiles.
func (s *StaticSource) Fetch(ctx context.Context) ([]AgentProfile, error) {
	out := make([]AgentProfile, len(s.profiles))
	for i := range s.profiles {
		out[i] = *s.profiles[i].Clone()
	}
	return out, nil
}

// NewSourceFromConfig picks the registry endpoint when configured, the
// static seed list otherwise.
func NewSourceFromConfig(cfg config.RegistryConfig) Source {
	if cfg.Endpoint != "" {
		return NewHTTPSource(cfg.Endpoint, 0)
	}
	return NewStaticSource(cfg.Seeds)
}

var (
	_ Source = (*HTTPSource)(nil)
	_ Source = (*StaticSource)(nil)
)
