package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/persistence"
	"github.com/BaSui01/agentrelay/types"
)

// defaultHandoverLimit bounds unpaginated handover listings.
const defaultHandoverLimit = 50

// HandoverHandler serves the handover record history.
type HandoverHandler struct {
	store  persistence.HandoverStore
	logger *zap.Logger
}

// NewHandoverHandler creates the handler.
func NewHandoverHandler(store persistence.HandoverStore, logger *zap.Logger) *HandoverHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandoverHandler{
		store:  store,
		logger: logger.With(zap.String("component", "handover_handler")),
	}
}

// HandoverListResponse is the body of GET /api/v1/handovers.
type HandoverListResponse struct {
	Handovers []*persistence.HandoverRecord `json:"handovers"`
	Count     int                           `json:"count"`
}

// HandleHandovers lists handover records, newest first. Query params:
// session_id, agent_id, status, limit, offset.
func (h *HandoverHandler) HandleHandovers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	records, err := h.store.List(r.Context(), filter)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "listing handovers failed", h.logger)
		return
	}
	WriteSuccess(w, r, HandoverListResponse{Handovers: records, Count: len(records)})
}

// HandleHandoverStats summarizes the handover store.
func (h *HandoverHandler) HandleHandoverStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "collecting handover stats failed", h.logger)
		return
	}
	WriteSuccess(w, r, stats)
}

func (h *HandoverHandler) parseFilter(w http.ResponseWriter, r *http.Request) (persistence.Filter, bool) {
	q := r.URL.Query()
	filter := persistence.Filter{
		SessionID: q.Get("session_id"),
		ToAgentID: q.Get("agent_id"),
		Limit:     defaultHandoverLimit,
	}

	if raw := q.Get("status"); raw != "" {
		status := persistence.HandoverStatus(raw)
		switch status {
		case persistence.StatusInitiated, persistence.StatusCompleted, persistence.StatusFailed:
			filter.Status = []persistence.HandoverStatus{status}
		default:
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "unknown status: "+raw, h.logger)
			return filter, false
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "invalid limit", h.logger)
			return filter, false
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "invalid offset", h.logger)
			return filter, false
		}
		filter.Offset = offset
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "invalid since timestamp", h.logger)
			return filter, false
		}
		filter.CreatedAfter = &since
	}
	return filter, true
}
