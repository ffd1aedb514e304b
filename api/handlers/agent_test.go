package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentrelay/catalog"
)

func newTestAgentHandler(t *testing.T) (*AgentHandler, *catalog.Catalog) {
	t.Helper()
	cat := catalog.New(nil)
	require.NoError(t, cat.Register(catalog.AgentProfile{
		ID:           "summarizer-1",
		Name:         "Summarizer",
		Endpoint:     "http://summarizer.local",
		Capabilities: []catalog.Capability{catalog.CapabilitySummarize},
		Status:       catalog.StatusActive,
	}))
	require.NoError(t, cat.Register(catalog.AgentProfile{
		ID:           "translator-1",
		Name:         "Translator",
		Endpoint:     "http://translator.local",
		Capabilities: []catalog.Capability{catalog.CapabilityTranslate},
		Status:       catalog.StatusActive,
	}))
	return NewAgentHandler(cat, nil), cat
}

func TestHandleAgentsList(t *testing.T) {
	h, _ := newTestAgentHandler(t)

	rec := httptest.NewRecorder()
	h.HandleAgents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var list AgentListResponse
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 2, list.Count)
	assert.False(t, list.Degraded)
}

func TestHandleAgentsListByCapability(t *testing.T) {
	h, _ := newTestAgentHandler(t)

	rec := httptest.NewRecorder()
	h.HandleAgents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents?capability=translate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data, err := json.Marshal(decodeEnvelope(t, rec).Data)
	require.NoError(t, err)
	var list AgentListResponse
	require.NoError(t, json.Unmarshal(data, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "translator-1", list.Agents[0].ID)
}

func TestHandleAgentsListUnknownCapability(t *testing.T) {
	h, _ := newTestAgentHandler(t)

	rec := httptest.NewRecorder()
	h.HandleAgents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents?capability=levitate", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAgentsRegister(t *testing.T) {
	h, cat := newTestAgentHandler(t)

	body := `{"id":"coder-1","name":"Coder","endpoint":"http://coder.local","capabilities":["code_generation"]}`
	rec := httptest.NewRecorder()
	h.HandleAgents(rec, httptest.NewRequest(http.MethodPost, "/api/v1/agents", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	profile, ok := cat.Get("coder-1")
	require.True(t, ok)
	assert.True(t, profile.HasCapability(catalog.CapabilityCodeGeneration))
	assert.Equal(t, catalog.StatusActive, profile.Status)
}

func TestHandleAgentsRegisterValidation(t *testing.T) {
	h, _ := newTestAgentHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing endpoint", `{"id":"x","capabilities":["summarize"]}`},
		{"missing id", `{"endpoint":"http://x.local","capabilities":["summarize"]}`},
		{"no capabilities", `{"id":"x","endpoint":"http://x.local","capabilities":[]}`},
		{"unknown capability", `{"id":"x","endpoint":"http://x.local","capabilities":["conjure"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleAgents(rec, httptest.NewRequest(http.MethodPost, "/api/v1/agents", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleGetAgent(t *testing.T) {
	h, _ := newTestAgentHandler(t)

	rec := httptest.NewRecorder()
	h.HandleGetAgent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents/summarizer-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleGetAgent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAgentsMethodNotAllowed(t *testing.T) {
	h, _ := newTestAgentHandler(t)

	rec := httptest.NewRecorder()
	h.HandleAgents(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/agents", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
