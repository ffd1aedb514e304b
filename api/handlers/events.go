package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/executor"
)

// eventWriteTimeout bounds each WebSocket write.
const eventWriteTimeout = 10 * time.Second

// EventsHandler streams pipeline events over WebSocket.
type EventsHandler struct {
	bus     *executor.EventBus
	origins []string
	logger  *zap.Logger
}

// NewEventsHandler creates the handler. Allowed origins mirror the
// server's CORS configuration; empty allows same-origin only.
func NewEventsHandler(bus *executor.EventBus, origins []string, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{
		bus:     bus,
		origins: origins,
		logger:  logger.With(zap.String("component", "events_handler")),
	}
}

// HandleEvents upgrades the connection and forwards pipeline events
// until the client disconnects. An optional session_id query param
// narrows the stream to one session.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sessionID := r.URL.Query().Get("session_id")
	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	h.logger.Debug("event stream opened", zap.String("session_id", sessionID))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			if sessionID != "" && event.SessionID != sessionID {
				continue
			}
			if err := h.writeEvent(ctx, conn, event); err != nil {
				h.logger.Debug("event stream closed", zap.Error(err))
				return
			}
		}
	}
}

func (h *EventsHandler) writeEvent(ctx context.Context, conn *websocket.Conn, event executor.PipelineEvent) error {
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, event)
}
