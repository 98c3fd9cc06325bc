package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/rs/zerolog"
)

type PaymentHandler struct {
	predictionService service.PredictionService
	logger            zerolog.Logger
}

func NewPaymentHandler(predictionService service.PredictionService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{predictionService: predictionService, logger: logger}
}

// RegisterRoutes mounts v1 payment routes
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/payments/invoice", authMw(http.HandlerFunc(h.openPayment)))
	mux.Handle("/payments/", authMw(http.HandlerFunc(h.handlePayment)))
}

func toPaymentDTO(p *model.Payment) dto.PaymentResponseDTO {
	return dto.PaymentResponseDTO{
		PaymentID: p.ID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, status int, msg string, retryAfterSeconds int64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponseDTO{Error: msg, RetryAfterSeconds: retryAfterSeconds})
}

// openPayment godoc
// @Summary Open a pending payment for today's prediction
// @Description Re-checks the daily entitlement before recording the intent.
// @Tags payments
// @Produce json
// @Success 201 {object} dto.PaymentResponseDTO
// @Failure 409 {object} dto.ErrorResponseDTO "already purchased today"
// @Router /payments/invoice [post]
func (h *PaymentHandler) openPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	payment, err := h.predictionService.OpenPayment(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrEntitlementDenied) {
			res, cerr := h.predictionService.CanPurchase(r.Context(), userID)
			var retry int64
			if cerr == nil {
				retry = int64(res.RetryAfter.Seconds())
			}
			writeError(w, http.StatusConflict, "already_purchased_today", retry)
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to open payment")
		writeError(w, http.StatusInternalServerError, "failed to open payment", 0)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPaymentDTO(payment))
}

func (h *PaymentHandler) handlePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/payments/")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/confirm"):
		h.confirmPayment(w, r, strings.TrimSuffix(rest, "/confirm"), userID)
	case r.Method == http.MethodGet && rest != "" && !strings.Contains(rest, "/"):
		h.getPayment(w, r, rest, userID)
	default:
		http.NotFound(w, r)
	}
}

func (h *PaymentHandler) getPayment(w http.ResponseWriter, r *http.Request, paymentID, userID string) {
	payment, err := h.predictionService.Lookup(r.Context(), paymentID, userID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			writeError(w, http.StatusNotFound, "payment not found", 0)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch payment", 0)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPaymentDTO(payment))
}

// confirmPayment godoc
// @Summary Confirm a pending payment and issue the prediction
// @Description Idempotent: replays on a non-pending payment return 409 without a second grant.
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "payment id"
// @Param request body dto.PaymentConfirmDTO false "processor reference"
// @Success 200 {object} dto.PredictionResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO "payment not found"
// @Failure 409 {object} dto.ErrorResponseDTO "already processed"
// @Failure 422 {object} dto.ErrorResponseDTO "zodiac sign not set"
// @Router /payments/{id}/confirm [post]
func (h *PaymentHandler) confirmPayment(w http.ResponseWriter, r *http.Request, paymentID, userID string) {
	var req dto.PaymentConfirmDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	prediction, err := h.predictionService.Confirm(r.Context(), paymentID, userID, req.TelegramChargeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound), errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "payment not found", 0)
		case errors.Is(err, service.ErrAlreadyProcessed):
			writeError(w, http.StatusConflict, "payment already processed", 0)
		case errors.Is(err, service.ErrDuplicateEntitlement):
			writeError(w, http.StatusConflict, "prediction already exists for today", 0)
		case errors.Is(err, service.ErrMissingZodiacSign):
			writeError(w, http.StatusUnprocessableEntity, "zodiac sign not set", 0)
		default:
			h.logger.Error().Err(err).Str("payment_id", paymentID).Msg("failed to confirm payment")
			writeError(w, http.StatusInternalServerError, "failed to confirm payment", 0)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPredictionDTO(prediction))
}
