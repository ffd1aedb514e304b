package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BaSui01/agentrelay/config"
	"github.com/BaSui01/agentrelay/types"
)

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{
				"id": "summarizer-1",
				"name": "Summarizer",
				"description": "summarize long documents",
				"endpoint": "http://agents.local/summarizer",
				"capabilities": ["summarize", "Translate", "telepathy"],
				"status": "active",
				"input": {"type": "text", "formats": ["markdown"], "max_len": 8000},
				"metrics": {"ratings": {"accuracy": 0.91}}
			},
			{
				"id": "coder-1",
				"name": "Coder",
				"endpoint": "http://agents.local/coder",
				"capabilities": ["CodeGeneration"],
				"status": "on-fire"
			}
		]`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, 5*time.Second)
	profiles, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	first := profiles[0]
	if first.ID != "summarizer-1" {
		t.Errorf("expected summarizer-1, got %s", first.ID)
	}
	// The unknown "telepathy" tag is dropped; known tags survive.
	if len(first.Capabilities) != 2 {
		t.Errorf("expected 2 capabilities, got %v", first.Capabilities)
	}
	if first.Status != StatusActive {
		t.Errorf("expected active, got %s", first.Status)
	}
	if first.Input.MaxLen != 8000 {
		t.Errorf("expected max_len 8000, got %d", first.Input.MaxLen)
	}
	if first.Metrics.Ratings["accuracy"] != 0.91 {
		t.Errorf("expected accuracy 0.91, got %v", first.Metrics.Ratings["accuracy"])
	}

	// Unrecognized status strings normalize to unknown.
	if profiles[1].Status != StatusUnknown {
		t.Errorf("expected unknown status, got %s", profiles[1].Status)
	}
}

func TestHTTPSource_FetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode types.ErrorCode
	}{
		{"not found", http.StatusNotFound, "", types.ErrNotFound},
		{"server error", http.StatusInternalServerError, "", types.ErrBadResponse},
		{"bad json", http.StatusOK, "{not json", types.ErrBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			src := NewHTTPSource(srv.URL, 5*time.Second)
			_, err := src.Fetch(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := types.GetErrorCode(err); got != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, got)
			}
		})
	}
}

func TestHTTPSource_TransportError(t *testing.T) {
	// A closed server yields a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	src := NewHTTPSource(srv.URL, time.Second)
	_, err := src.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := types.GetErrorCode(err); got != types.ErrTransport {
		t.Errorf("expected TRANSPORT, got %s", got)
	}
	if !types.IsRetryable(err) {
		t.Error("transport errors should be retryable")
	}
}

func TestStaticSource_Fetch(t *testing.T) {
	src := NewStaticSource([]config.AgentSeed{
		{
			ID:           "seed-1",
			Name:         "Seed Agent",
			Endpoint:     "http://localhost:9100",
			Capabilities: []string{"summarize", "bogus"},
			InputType:    "text",
			Formats:      []string{"markdown"},
			MaxInputLen:  4000,
		},
	})

	profiles, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}

	p := profiles[0]
	if len(p.Capabilities) != 1 || p.Capabilities[0] != CapabilitySummarize {
		t.Errorf("expected only the summarize capability, got %v", p.Capabilities)
	}
	// Seeds start unprobed.
	if p.Status != StatusUnknown {
		t.Errorf("expected unknown status, got %s", p.Status)
	}
	if p.Input.Type != "text" || p.Input.MaxLen != 4000 {
		t.Errorf("seed schema not carried over: %+v", p.Input)
	}

	// Mutating a fetched profile must not affect later fetches.
	profiles[0].Capabilities[0] = CapabilityResearch
	again, _ := src.Fetch(context.Background())
	if again[0].Capabilities[0] != CapabilitySummarize {
		t.Error("fetched profiles share state with the source")
	}
}

func TestNewSourceFromConfig(t *testing.T) {
	if _, ok := NewSourceFromConfig(config.RegistryConfig{Endpoint: "http://registry:8500/agents"}).(*HTTPSource); !ok {
		t.Error("expected HTTP source when an endpoint is configured")
	}
	if _, ok := NewSourceFromConfig(config.RegistryConfig{}).(*StaticSource); !ok {
		t.Error("expected static source without an endpoint")
	}
}
