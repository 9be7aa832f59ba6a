package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "retailsight/internal/errors"
	"retailsight/internal/services"
)

// RetailHandler serves the retail analytics read API over the latest
// snapshot.
type RetailHandler struct {
	service      *services.RetailService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRetailHandler creates a retail query handler.
func NewRetailHandler(service *services.RetailService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RetailHandler {
	return &RetailHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "retail")),
		errorHandler: errorHandler,
	}
}

// Routes returns the retail routes.
func (h *RetailHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/quality/summary", h.GetQualitySummary)
	r.Get("/quality/issues", h.GetIssues)
	r.Get("/quality/outliers", h.GetOutlierStats)
	r.Get("/promo/summary", h.GetPromoSummary)
	r.Get("/promo/suppliers", h.GetSupplierPromo)
	r.Get("/promo/stores", h.GetStorePromo)
	r.Get("/promo/categories", h.GetCategoryPromo)
	r.Get("/price-index", h.GetPriceIndex)
	r.Get("/pricing/summary", h.GetPricingSummary)
	r.Get("/insights", h.GetInsights)

	return r
}

func (h *RetailHandler) respondList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	runID, err := h.service.RunID(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"run_id": runID,
		"count":  count,
		"data":   data,
	})
}

// GetQualitySummary handles GET /api/retail/quality/summary.
func (h *RetailHandler) GetQualitySummary(w http.ResponseWriter, r *http.Request) {
	minScore, err := floatParam(r, "min_quality_score")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows, err := h.service.QualitySummary(r.Context(), services.QualityQuery{
		Dimension:       r.URL.Query().Get("dimension"),
		MinQualityScore: minScore,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetIssues handles GET /api/retail/quality/issues.
func (h *RetailHandler) GetIssues(w http.ResponseWriter, r *http.Request) {
	focal, err := boolParam(r, "focal_only")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	limit, err := intParamOr(r, "limit", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	q := services.IssueQuery{
		IssueType: r.URL.Query().Get("issue_type"),
		Severity:  r.URL.Query().Get("severity"),
		Supplier:  r.URL.Query().Get("supplier"),
		Limit:     limit,
	}
	if focal != nil {
		q.FocalOnly = *focal
	}

	rows, err := h.service.Issues(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetOutlierStats handles GET /api/retail/quality/outliers.
func (h *RetailHandler) GetOutlierStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.OutlierStats(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}

// GetPromoSummary handles GET /api/retail/promo/summary.
func (h *RetailHandler) GetPromoSummary(w http.ResponseWriter, r *http.Request) {
	focal, err := boolParam(r, "focal_only")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	onPromo, err := boolParam(r, "on_promo")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	minUplift, err := floatParam(r, "min_uplift")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	topN, err := intParamOr(r, "top_n", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	q := services.PromoQuery{
		Store:     r.URL.Query().Get("store"),
		Category:  r.URL.Query().Get("category"),
		OnPromo:   onPromo,
		MinUplift: minUplift,
		TopN:      topN,
	}
	if focal != nil {
		q.FocalOnly = *focal
	}

	rows, err := h.service.PromoSummary(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetSupplierPromo handles GET /api/retail/promo/suppliers.
func (h *RetailHandler) GetSupplierPromo(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.SupplierPromo(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetStorePromo handles GET /api/retail/promo/stores.
func (h *RetailHandler) GetStorePromo(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.StorePromo(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetCategoryPromo handles GET /api/retail/promo/categories.
func (h *RetailHandler) GetCategoryPromo(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.CategoryPromo(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetPriceIndex handles GET /api/retail/price-index.
func (h *RetailHandler) GetPriceIndex(w http.ResponseWriter, r *http.Request) {
	focal, err := boolParam(r, "focal_only")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	q := services.PriceIndexQuery{
		Store:       r.URL.Query().Get("store"),
		Section:     r.URL.Query().Get("section"),
		Positioning: r.URL.Query().Get("positioning"),
	}
	if focal != nil {
		q.FocalOnly = *focal
	}

	rows, err := h.service.PriceIndex(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetPricingSummary handles GET /api/retail/pricing/summary.
func (h *RetailHandler) GetPricingSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PricingSummary(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetInsights handles GET /api/retail/insights.
func (h *RetailHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Insights(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}
