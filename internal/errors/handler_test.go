package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestErrorToProblem_APIError(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/promo-summary", nil)

	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantType   string
	}{
		{"validation", ErrValidationFailed, http.StatusBadRequest, TypeValidation},
		{"run not found", ErrRunNotFound, http.StatusNotFound, TypeRunNotFound},
		{"snapshot missing", ErrSnapshotNotFound, http.StatusNotFound, TypeSnapshotNotFound},
		{"run conflict", ErrRunRunning, http.StatusConflict, TypeRunRunning},
		{"rate limited", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit},
		{"internal", ErrInternalServer, http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.err.ErrorCode, problem.Extensions["error_code"])
		})
	}
}

func TestErrorToProblem_ContextErrors(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/runs", nil)

	problem := h.ErrorToProblem(context.DeadlineExceeded, r)
	assert.Equal(t, http.StatusGatewayTimeout, problem.Status)
	assert.Equal(t, TypeTimeout, problem.Type)

	problem = h.ErrorToProblem(context.Canceled, r)
	assert.Equal(t, http.StatusGatewayTimeout, problem.Status)
}

func TestErrorToProblem_PlainErrors(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/price-index", nil)

	problem := h.ErrorToProblem(fmt.Errorf("item not found"), r)
	assert.Equal(t, http.StatusNotFound, problem.Status)

	problem = h.ErrorToProblem(fmt.Errorf("retail run already running"), r)
	assert.Equal(t, http.StatusConflict, problem.Status)
	assert.Equal(t, TypeRunRunning, problem.Type)

	problem = h.ErrorToProblem(fmt.Errorf("boom"), r)
	assert.Equal(t, http.StatusInternalServerError, problem.Status)
}

func TestHandleError_RendersProblemJSON(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/data-quality", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, ErrSnapshotNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeSnapshotNotFound, body["type"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	assert.Equal(t, "SNAPSHOT_NOT_FOUND", body["error_code"])
}

func TestProblemDetails_MarshalIncludesExtensions(t *testing.T) {
	problem := NewProblemDetails(http.StatusConflict, TypeConflict, "Conflict", "already exists", "/api/runs").
		WithExtension("trace_id", "abc-123").
		WithExtension("retry_after", 60)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc-123", decoded["trace_id"])
	assert.Equal(t, float64(60), decoded["retry_after"])
	assert.Equal(t, "Conflict", decoded["title"])
}

func TestAppError_WrappingAndContext(t *testing.T) {
	cause := fmt.Errorf("read csv: short row")
	err := NewIngestError("failed to load retail extract", cause).
		WithContext("path", "data/datasets/retail_sales.csv")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INGEST")
	assert.Contains(t, err.Error(), "short row")
	assert.Equal(t, "data/datasets/retail_sales.csv", err.Context["path"])
}
