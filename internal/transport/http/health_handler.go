package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"psconvert/internal/services"
	api "psconvert/pkg/contracts/api/v1"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.Check(r.Context())
	render.JSON(w, r, api.HealthResponse{
		Status:    status.Status,
		Version:   status.Version,
		Timestamp: status.Timestamp.Format(time.RFC3339),
		Runtime:   status.Runtime,
	})
}
