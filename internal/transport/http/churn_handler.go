package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "retailsight/internal/errors"
	"retailsight/internal/services"
)

// ChurnHandler serves the churn feature read API over the latest snapshot.
type ChurnHandler struct {
	service      *services.ChurnService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChurnHandler creates a churn query handler.
func NewChurnHandler(service *services.ChurnService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChurnHandler {
	return &ChurnHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "churn")),
		errorHandler: errorHandler,
	}
}

// Routes returns the churn routes.
func (h *ChurnHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/features", h.GetFeatures)
	r.Get("/features/export", h.ExportFeatures)
	r.Get("/stats", h.GetStats)
	r.Get("/segments", h.GetSegments)

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Use(h.UserCtx)
		r.Get("/", h.GetUser)
	})

	return r
}

// UserCtx validates the user ID path parameter.
func (h *ChurnHandler) UserCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "userID")
		if _, err := strconv.Atoi(raw); err != nil {
			h.errorHandler.HandleError(w, r,
				apierrors.NewValidationError(fmt.Sprintf("user ID must be an integer, got %q", raw)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *ChurnHandler) query(r *http.Request) (services.ChurnQuery, error) {
	churnFlag, err := intParam(r, "churn_flag")
	if err != nil {
		return services.ChurnQuery{}, err
	}
	if churnFlag != nil && *churnFlag != 0 && *churnFlag != 1 {
		return services.ChurnQuery{}, apierrors.NewValidationError("churn_flag must be 0 or 1")
	}
	minSpend, err := floatParam(r, "min_spend")
	if err != nil {
		return services.ChurnQuery{}, err
	}
	maxInactive, err := intParam(r, "max_days_inactive")
	if err != nil {
		return services.ChurnQuery{}, err
	}
	limit, err := intParamOr(r, "limit", 0)
	if err != nil {
		return services.ChurnQuery{}, err
	}
	offset, err := intParamOr(r, "offset", 0)
	if err != nil {
		return services.ChurnQuery{}, err
	}

	return services.ChurnQuery{
		ChurnFlag:       churnFlag,
		Region:          r.URL.Query().Get("region"),
		Channel:         r.URL.Query().Get("channel"),
		LifecycleStage:  r.URL.Query().Get("lifecycle_stage"),
		MinSpend:        minSpend,
		MaxDaysInactive: maxInactive,
		Limit:           limit,
		Offset:          offset,
	}, nil
}

// GetFeatures handles GET /api/churn/features.
func (h *ChurnHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page, err := h.service.Features(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   page,
	})
}

// ExportFeatures handles GET /api/churn/features/export, streaming the
// filtered feature rows as a CSV attachment.
func (h *ChurnHandler) ExportFeatures(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := h.service.ExportCSV(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="churn_features.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write export",
			slog.String("error", err.Error()))
	}
}

// GetStats handles GET /api/churn/stats.
func (h *ChurnHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}

// GetSegments handles GET /api/churn/segments.
func (h *ChurnHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.service.Segments(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   segments,
	})
}

// GetUser handles GET /api/churn/users/{userID}.
func (h *ChurnHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.Atoi(chi.URLParam(r, "userID"))

	row, err := h.service.User(r.Context(), userID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   row,
	})
}
