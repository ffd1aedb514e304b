package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/catalog"
	"github.com/BaSui01/agentrelay/types"
)

// AgentHandler serves the agent catalog surface.
type AgentHandler struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewAgentHandler creates the handler.
func NewAgentHandler(cat *catalog.Catalog, logger *zap.Logger) *AgentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentHandler{
		catalog: cat,
		logger:  logger.With(zap.String("component", "agent_handler")),
	}
}

// AgentListResponse is the body of GET /api/v1/agents.
type AgentListResponse struct {
	Agents   []*catalog.AgentProfile `json:"agents"`
	Count    int                     `json:"count"`
	Degraded bool                    `json:"degraded"`
}

// RegisterAgentRequest is the body of POST /api/v1/agents.
type RegisterAgentRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Endpoint     string   `json:"endpoint"`
	Capabilities []string `json:"capabilities"`
	InputType    string   `json:"input_type,omitempty"`
	Formats      []string `json:"formats,omitempty"`
	MaxInputLen  int      `json:"max_input_len,omitempty"`
}

// HandleAgents dispatches list and register by method.
func (h *AgentHandler) HandleAgents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleRegister(w, r)
	default:
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
	}
}

// HandleGetAgent serves GET /api/v1/agents/{id}.
func (h *AgentHandler) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := extractAgentID(r)
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "agent id is required", h.logger)
		return
	}

	profile, ok := h.catalog.Get(id)
	if !ok {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound, "agent not found: "+id, h.logger)
		return
	}
	WriteSuccess(w, r, profile)
}

func (h *AgentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	agents := h.catalog.List()

	if raw := r.URL.Query().Get("capability"); raw != "" {
		capability, ok := catalog.ParseCapability(raw)
		if !ok {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "unknown capability: "+raw, h.logger)
			return
		}
		filtered := make([]*catalog.AgentProfile, 0, len(agents))
		for _, a := range agents {
			if a.HasCapability(capability) {
				filtered = append(filtered, a)
			}
		}
		agents = filtered
	}

	WriteSuccess(w, r, AgentListResponse{
		Agents:   agents,
		Count:    len(agents),
		Degraded: h.catalog.Degraded(),
	})
}

func (h *AgentHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterAgentRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if req.ID == "" || req.Endpoint == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "id and endpoint are required", h.logger)
		return
	}

	capabilities := make([]catalog.Capability, 0, len(req.Capabilities))
	for _, raw := range req.Capabilities {
		capability, ok := catalog.ParseCapability(raw)
		if !ok {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "unknown capability: "+raw, h.logger)
			return
		}
		capabilities = append(capabilities, capability)
	}
	if len(capabilities) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "at least one capability is required", h.logger)
		return
	}

	profile := catalog.AgentProfile{
		ID:           req.ID,
		Name:         req.Name,
		Description:  req.Description,
		Endpoint:     req.Endpoint,
		Capabilities: capabilities,
		Status:       catalog.StatusActive,
		Input: catalog.SchemaProfile{
			Type:    req.InputType,
			Formats: req.Formats,
			MaxLen:  req.MaxInputLen,
		},
	}
	if err := h.catalog.Register(profile); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, err.Error(), h.logger)
		return
	}

	h.logger.Info("agent registered",
		zap.String("agent_id", req.ID),
		zap.Int("capabilities", len(capabilities)))
	WriteJSON(w, http.StatusCreated, Response{
		Success:   true,
		Data:      profile,
		Timestamp: time.Now(),
	})
}

func extractAgentID(r *http.Request) string {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	id := parts[len(parts)-1]
	if id == "agents" {
		return ""
	}
	return id
}
