package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "retailsight/internal/errors"
	"retailsight/internal/retail"
	"retailsight/internal/services"
	"retailsight/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }

func retailSnapshots(t *testing.T) *store.Snapshots {
	t.Helper()
	snapshots := store.NewSnapshots(testLogger())
	snapshots.PublishRetail(&store.RetailSnapshot{
		RunID: "run-retail-1",
		Derived: &retail.Derived{
			Issues: []retail.QualityIssue{
				{IssueType: retail.IssueNegativeQuantity, Severity: retail.SeverityCritical, IsFocal: true},
				{IssueType: retail.IssueMissingField, Severity: retail.SeverityLow},
			},
			PromoSummary: []retail.PromoSummaryRow{
				{ItemCode: "IT1", StoreName: "NAIVAS", IsOnPromo: true, PromoUpliftPct: f(179.07)},
				{ItemCode: "IT2", StoreName: "QUICKMART", IsOnPromo: false},
			},
			QualitySummary: []retail.QualitySummaryRow{
				{Scope: retail.ScopeOverall, AvgQualityScore: 88.5},
				{Scope: retail.ScopeStore, StoreName: "NAIVAS", AvgQualityScore: 95},
			},
			Insights: []retail.Insight{{Kind: "promo_uplift", Headline: "strong uplift"}},
		},
	})
	return snapshots
}

func retailRouter(snapshots *store.Snapshots) chi.Router {
	logger := testLogger()
	handler := NewRetailHandler(
		services.NewRetailService(snapshots, logger),
		logger,
		apierrors.NewErrorHandler(logger, false),
	)
	r := chi.NewRouter()
	r.Mount("/api/retail", handler.Routes())
	return r
}

func doGet(t *testing.T, router chi.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRetailHandler_QualitySummary(t *testing.T) {
	router := retailRouter(retailSnapshots(t))

	rec := doGet(t, router, "/api/retail/quality/summary?dimension=store")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "run-retail-1", body["run_id"])
	assert.Equal(t, float64(1), body["count"])
}

func TestRetailHandler_QualitySummaryBadDimension(t *testing.T) {
	router := retailRouter(retailSnapshots(t))

	rec := doGet(t, router, "/api/retail/quality/summary?dimension=warehouse")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, apierrors.TypeValidation, body["type"])
}

func TestRetailHandler_SnapshotMissingIs404(t *testing.T) {
	router := retailRouter(store.NewSnapshots(testLogger()))

	rec := doGet(t, router, "/api/retail/quality/summary")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetailHandler_IssuesFilters(t *testing.T) {
	router := retailRouter(retailSnapshots(t))

	rec := doGet(t, router, "/api/retail/quality/issues?focal_only=true")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])

	rec = doGet(t, router, "/api/retail/quality/issues?focal_only=banana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetailHandler_PromoSummaryTopN(t *testing.T) {
	router := retailRouter(retailSnapshots(t))

	rec := doGet(t, router, "/api/retail/promo/summary?top_n=1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "IT1", first["item_code"], "highest uplift row kept")
}

func TestRetailHandler_Insights(t *testing.T) {
	router := retailRouter(retailSnapshots(t))

	rec := doGet(t, router, "/api/retail/insights")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}
