package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/osrsbingo/internal/api/live"
	"github.com/mcoot/osrsbingo/internal/model"
)

// LiveHandler serves the SSE and WebSocket event streams
type LiveHandler struct {
	hubManager *live.HubManager
	upgrader   *websocket.Upgrader
	logger     *slog.Logger
}

// NewLiveHandler creates a new live handler
func NewLiveHandler(hubManager *live.HubManager, origins []string, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		hubManager: hubManager,
		upgrader:   live.NewUpgrader(origins),
		logger:     logger,
	}
}

// Events handles GET /api/v1/events?topic=...
func (h *LiveHandler) Events(w http.ResponseWriter, r *http.Request) {
	hub, err := h.hub(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	live.ServeSSE(w, r, hub)
}

// WebSocket handles GET /api/v1/ws?topic=...
func (h *LiveHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	hub, err := h.hub(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	live.ServeWS(w, r, hub, h.upgrader, h.logger)
}

// hub resolves the topic query parameter, defaulting to the board topic
func (h *LiveHandler) hub(r *http.Request) (*live.Hub, error) {
	topic := model.Topic(r.URL.Query().Get("topic"))
	if topic == "" {
		topic = model.TopicBoard
	}
	if !topic.IsValid() {
		return nil, NewInvalidRequestError("unknown topic: " + string(topic))
	}

	hub := h.hubManager.GetOrCreateHub(topic)
	if hub == nil {
		return nil, NewInvalidRequestError("server is shutting down")
	}
	return hub, nil
}
