package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsight/internal/churn"
	apierrors "retailsight/internal/errors"
	"retailsight/internal/services"
	"retailsight/internal/store"
)

func intp(v int) *int { return &v }

func churnSnapshots(t *testing.T) *store.Snapshots {
	t.Helper()
	snapshots := store.NewSnapshots(testLogger())
	snapshots.PublishChurn(&store.ChurnSnapshot{
		RunID: "run-churn-1",
		Derived: &churn.Derived{
			Features: []churn.FeatureRow{
				{
					UserID: 1, Email: "a@example.com", Region: "Lagos", Channel: "organic",
					UserTenureDays: 200, TotalSpendNGN: 60000, UniqueSessions: 12,
					DaysSinceLastActivity: intp(3), RFMTotalScore: 13,
					UserLifecycleStage: churn.StageLoyal, ChurnFlag: 0,
				},
				{
					UserID: 2, Email: "b@example.com", Region: "Abuja", Channel: "referral",
					UserTenureDays: 120, TotalSpendNGN: 8000, UniqueSessions: 2,
					DaysSinceLastActivity: intp(45), RFMTotalScore: 5,
					UserLifecycleStage: churn.StageInactive, ChurnFlag: 1,
				},
			},
		},
	})
	return snapshots
}

func churnRouter(snapshots *store.Snapshots) chi.Router {
	logger := testLogger()
	handler := NewChurnHandler(
		services.NewChurnService(snapshots, logger),
		logger,
		apierrors.NewErrorHandler(logger, false),
	)
	r := chi.NewRouter()
	r.Mount("/api/churn", handler.Routes())
	return r
}

func TestChurnHandler_FeaturesFiltered(t *testing.T) {
	router := churnRouter(churnSnapshots(t))

	rec := doGet(t, router, "/api/churn/features?churn_flag=1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	features := data["features"].([]interface{})
	require.Len(t, features, 1)
	row := features[0].(map[string]interface{})
	assert.Equal(t, float64(2), row["user_id"])
}

func TestChurnHandler_FeaturesBadFlag(t *testing.T) {
	router := churnRouter(churnSnapshots(t))

	rec := doGet(t, router, "/api/churn/features?churn_flag=7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChurnHandler_UserLookup(t *testing.T) {
	router := churnRouter(churnSnapshots(t))

	rec := doGet(t, router, "/api/churn/users/1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	row := body["data"].(map[string]interface{})
	assert.Equal(t, "a@example.com", row["email"])

	rec = doGet(t, router, "/api/churn/users/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(t, router, "/api/churn/users/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChurnHandler_Stats(t *testing.T) {
	router := churnRouter(churnSnapshots(t))

	rec := doGet(t, router, "/api/churn/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total_users"])
	assert.Equal(t, float64(50), data["churn_rate_percent"])
}

func TestChurnHandler_ExportCSV(t *testing.T) {
	router := churnRouter(churnSnapshots(t))

	rec := doGet(t, router, "/api/churn/features/export?churn_flag=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "churn_features.csv")
	assert.Contains(t, rec.Body.String(), "b@example.com")
	assert.NotContains(t, rec.Body.String(), "a@example.com")
}

func TestChurnHandler_SnapshotMissingIs404(t *testing.T) {
	router := churnRouter(store.NewSnapshots(testLogger()))

	rec := doGet(t, router, "/api/churn/stats")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
