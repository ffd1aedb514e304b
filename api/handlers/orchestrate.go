package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/orchestrator"
	"github.com/BaSui01/agentrelay/types"
)

// maxQueryLen caps the accepted query length.
const maxQueryLen = 32 << 10

// OrchestrateRequest is the body of POST /api/v1/orchestrate.
type OrchestrateRequest struct {
	// Query is the natural-language request.
	Query string `json:"query"`

	// SessionID optionally pins the session; a fresh id is generated
	// when absent.
	SessionID string `json:"session_id,omitempty"`
}

// OrchestrateHandler serves the pipeline entry point.
type OrchestrateHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *zap.Logger
}

// NewOrchestrateHandler creates the handler.
func NewOrchestrateHandler(orch *orchestrator.Orchestrator, logger *zap.Logger) *OrchestrateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrchestrateHandler{
		orchestrator: orch,
		logger:       logger.With(zap.String("component", "orchestrate_handler")),
	}
}

// HandleOrchestrate runs the pipeline for the posted query.
func (h *OrchestrateHandler) HandleOrchestrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	var req OrchestrateRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "query is required", h.logger)
		return
	}
	if len(query) > maxQueryLen {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "query too long", h.logger)
		return
	}

	ctx := r.Context()
	if req.SessionID != "" {
		ctx = types.WithSessionID(ctx, req.SessionID)
	}

	result, err := h.orchestrator.Orchestrate(ctx, query)
	if err != nil {
		var typed *types.Error
		if errors.As(err, &typed) {
			WriteError(w, typed, h.logger)
			return
		}
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "orchestration failed", h.logger)
		return
	}

	WriteSuccess(w, r, result)
}
