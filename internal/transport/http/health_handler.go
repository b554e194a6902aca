package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler serves liveness and dataset-readiness checks.
type HealthHandler struct {
	service DashboardServiceInterface
	logger  *slog.Logger
	version string
}

// NewHealthHandler creates the handler.
func NewHealthHandler(service DashboardServiceInterface, logger *slog.Logger, version string) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("component", "health_handler")),
		version: version,
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetHealth)
	r.Get("/ready", h.GetReady)

	return r
}

// GetHealth handles GET /api/health. Always 200; process liveness only.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "healthy",
		"version": h.version,
	})
}

// GetReady handles GET /api/health/ready. 503 until the dataset loads.
func (h *HealthHandler) GetReady(w http.ResponseWriter, r *http.Request) {
	status := h.service.Health(r.Context())
	if status.Status != "healthy" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}
