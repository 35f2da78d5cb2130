package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mcoot/osrsbingo/internal/api/response"
)

// Pinger checks that a storage backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports server and storage health
type HealthHandler struct {
	storageType string
	pinger      Pinger
}

// NewHealthHandler creates a health handler. pinger may be nil.
func NewHealthHandler(storageType string, pinger Pinger) *HealthHandler {
	return &HealthHandler{storageType: storageType, pinger: pinger}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "degraded", Storage: h.storageType})
			return
		}
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: h.storageType})
}
