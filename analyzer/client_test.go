package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentrelay/config"
	"github.com/BaSui01/agentrelay/types"
)

func configClassifier(endpoint string) config.ClassifierConfig {
	return config.ClassifierConfig{Endpoint: endpoint, Timeout: 5 * time.Second}
}

func TestHTTPClassifier_EnvelopeReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "classify me")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply": "{\"capabilities\": [\"summarize\"]}"}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "sk-test", 5*time.Second)
	reply, err := c.Classify(context.Background(), "please classify me")
	require.NoError(t, err)
	assert.JSONEq(t, `{"capabilities": ["summarize"]}`, reply)
}

func TestHTTPClassifier_RawBodyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"capabilities": ["research"]}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "", 5*time.Second)
	reply, err := c.Classify(context.Background(), "prompt")
	require.NoError(t, err)
	assert.JSONEq(t, `{"capabilities": ["research"]}`, reply)
}

func TestHTTPClassifier_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "", 5*time.Second)
	_, err := c.Classify(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, types.ErrBadResponse, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestHTTPClassifier_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewHTTPClassifier(srv.URL, "", time.Second)
	_, err := c.Classify(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, types.ErrTransport, types.GetErrorCode(err))
}

func TestNewClassifierFromConfig_EmptyEndpoint(t *testing.T) {
	c := NewClassifierFromConfig(configClassifier(""))
	assert.Nil(t, c)
}

func TestNewClassifierFromConfig_Endpoint(t *testing.T) {
	c := NewClassifierFromConfig(configClassifier("http://classifier.local"))
	assert.NotNil(t, c)
}
