package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "retailsight/internal/errors"
	"retailsight/internal/operations"
)

// RunServiceInterface is the orchestration surface the runs handler needs.
type RunServiceInterface interface {
	Trigger(pipeline string) (operations.RunInfo, error)
	Get(runID string) (operations.RunInfo, error)
	List() []operations.RunInfo
}

// RunsHandler controls pipeline runs over HTTP.
type RunsHandler struct {
	service      RunServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRunsHandler creates a run control handler.
func NewRunsHandler(service RunServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RunsHandler {
	return &RunsHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "runs")),
		errorHandler: errorHandler,
	}
}

// Routes returns the run routes.
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.TriggerRun)
	r.Get("/", h.ListRuns)
	r.Get("/{runID}", h.GetRun)

	return r
}

// TriggerRequest is the body of POST /api/runs.
type TriggerRequest struct {
	Pipeline string `json:"pipeline"`
}

// Bind implements render.Binder.
func (t *TriggerRequest) Bind(*http.Request) error {
	switch t.Pipeline {
	case operations.PipelineRetail, operations.PipelineChurn:
		return nil
	case "":
		return errors.New("pipeline is required")
	default:
		return fmt.Errorf("unknown pipeline %q", t.Pipeline)
	}
}

// TriggerRun handles POST /api/runs.
func (h *RunsHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	req := &TriggerRequest{}
	if err := render.Bind(r, req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationError(err.Error()))
		return
	}

	info, err := h.service.Trigger(req.Pipeline)
	if err != nil {
		if errors.Is(err, operations.ErrAlreadyRunning) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusConflict,
				"RUN_ALREADY_RUNNING",
				err.Error(),
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "run triggered",
		slog.String("run_id", info.ID),
		slog.String("pipeline", info.Pipeline))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// ListRuns handles GET /api/runs.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.service.List()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"count":  len(runs),
		"data":   runs,
	})
}

// GetRun handles GET /api/runs/{runID}.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	info, err := h.service.Get(runID)
	if err != nil {
		if errors.Is(err, operations.ErrRunNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"RUN_NOT_FOUND",
				err.Error(),
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}
