package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"retailsight/internal/store"
)

// HealthHandler reports process liveness and snapshot availability.
type HealthHandler struct {
	snapshots *store.Snapshots
	version   string
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(snapshots *store.Snapshots, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		snapshots: snapshots,
		version:   version,
		startedAt: time.Now(),
		logger:    logger.With(slog.String("handler", "health")),
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.HealthCheck)
	r.Get("/live", h.LivenessCheck)
	r.Get("/ready", h.ReadinessCheck)

	return r
}

func snapshotStatus(runID string, ok bool, createdAt time.Time) map[string]interface{} {
	status := map[string]interface{}{"available": ok}
	if ok {
		status["run_id"] = runID
		status["created_at"] = createdAt.Format(time.RFC3339)
	}
	return status
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	retailStatus := map[string]interface{}{"available": false}
	if snap, ok := h.snapshots.Retail(); ok {
		retailStatus = snapshotStatus(snap.RunID, true, snap.CreatedAt)
	}
	churnStatus := map[string]interface{}{"available": false}
	if snap, ok := h.snapshots.Churn(); ok {
		churnStatus = snapshotStatus(snap.RunID, true, snap.CreatedAt)
	}

	render.JSON(w, r, map[string]interface{}{
		"status":         "healthy",
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"snapshots": map[string]interface{}{
			"retail": retailStatus,
			"churn":  churnStatus,
		},
	})
}

// LivenessCheck handles GET /api/health/live.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"status": "alive"})
}

// ReadinessCheck handles GET /api/health/ready. The API serves validation
// and 404 responses without snapshots, so readiness only reflects the
// process being up.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"status": "ready"})
}
