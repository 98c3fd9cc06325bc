package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/rs/zerolog"
)

type PredictionHandler struct {
	predictionService service.PredictionService
	logger            zerolog.Logger
}

func NewPredictionHandler(predictionService service.PredictionService, logger zerolog.Logger) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService, logger: logger}
}

// RegisterRoutes mounts v1 prediction routes
func (h *PredictionHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/predictions", authMw(http.HandlerFunc(h.listPredictions)))
	mux.Handle("/predictions/today", authMw(http.HandlerFunc(h.getToday)))
	mux.Handle("/predictions/can-purchase", authMw(http.HandlerFunc(h.canPurchase)))
}

func toPredictionDTO(p *model.Prediction) dto.PredictionResponseDTO {
	return dto.PredictionResponseDTO{
		ID:             p.ID,
		ZodiacSign:     p.ZodiacSign,
		Text:           p.Text,
		PredictionDate: p.PredictionDate.Format("2006-01-02"),
		CreatedAt:      p.CreatedAt,
	}
}

func (h *PredictionHandler) listPredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	predictions, err := h.predictionService.History(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, "Failed to retrieve predictions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]dto.PredictionResponseDTO, 0, len(predictions))
	for i := range predictions {
		items = append(items, toPredictionDTO(&predictions[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *PredictionHandler) getToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	prediction, err := h.predictionService.Today(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to retrieve today's prediction: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if prediction == nil {
		http.Error(w, "No prediction for today", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPredictionDTO(prediction))
}

// canPurchase godoc
// @Summary Check whether the user may buy today's prediction
// @Description Pure read. When denied, retry_after_seconds counts down to the next UTC calendar day.
// @Tags predictions
// @Produce json
// @Success 200 {object} dto.CanPurchaseResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Router /predictions/can-purchase [get]
func (h *PredictionHandler) canPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	res, err := h.predictionService.CanPurchase(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to check entitlement: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.CanPurchaseResponseDTO{CanPurchase: res.Allowed}
	if !res.Allowed {
		resp.Reason = "already_purchased_today"
		resp.RetryAfterSeconds = int64(res.RetryAfter.Seconds())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
