package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPredictionMux(svc service.PredictionService) *http.ServeMux {
	mux := http.NewServeMux()
	NewPredictionHandler(svc, zerolog.Nop()).RegisterRoutes(mux, identityAuth)
	return mux
}

func TestCanPurchaseAllowed(t *testing.T) {
	mux := newPredictionMux(&stubPredictionService{canPurchase: service.CanPurchaseResult{Allowed: true}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/can-purchase", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.CanPurchaseResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.CanPurchase)
	assert.Empty(t, resp.Reason)
	assert.Zero(t, resp.RetryAfterSeconds)
}

func TestCanPurchaseDeniedCarriesRetryAfter(t *testing.T) {
	mux := newPredictionMux(&stubPredictionService{
		canPurchase: service.CanPurchaseResult{Allowed: false, RetryAfter: 14 * time.Hour},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/can-purchase", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.CanPurchaseResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.CanPurchase)
	assert.Equal(t, "already_purchased_today", resp.Reason)
	assert.Equal(t, int64(14*3600), resp.RetryAfterSeconds)
}

func TestGetTodayWithoutPrediction(t *testing.T) {
	mux := newPredictionMux(&stubPredictionService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/today", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPredictions(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mux := newPredictionMux(&stubPredictionService{
		history: []model.Prediction{
			{ID: "1", ZodiacSign: "leo", Text: "t1", PredictionDate: date},
			{ID: "2", ZodiacSign: "leo", Text: "t2", PredictionDate: date.AddDate(0, 0, -1)},
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var items []dto.PredictionResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "2024-05-01", items[0].PredictionDate)
}
