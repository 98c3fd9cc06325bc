package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/auth"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AuthHandler issues access tokens to the bot process.
type AuthHandler struct {
	userService service.UserService
	validate    *validator.Validate
	jwtSecret   string
	tokenTTL    time.Duration
	logger      zerolog.Logger
}

func NewAuthHandler(userService service.UserService, v *validator.Validate, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		validate:    v,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// RegisterRoutes mounts the auth endpoints behind the service-key guard.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, serviceKeyMw func(http.Handler) http.Handler) {
	mux.Handle("/auth/token", serviceKeyMw(http.HandlerFunc(h.issueToken)))
}

// issueToken godoc
// @Summary Exchange a Telegram identity for a bearer token
// @Description Registers the user on first contact and returns an HS256 access token. Guarded by the bot service key.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.TokenRequestDTO true "Telegram identity"
// @Success 200 {object} dto.TokenResponseDTO
// @Failure 400 {string} string "invalid request payload"
// @Failure 401 {string} string "invalid service key"
// @Router /auth/token [post]
func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.TokenRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(r.Context(), req.TelegramID, req.FirstName)
	if err != nil {
		h.logger.Error().Err(err).Int64("telegram_id", req.TelegramID).Msg("failed to register user")
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	token, err := auth.CreateToken(user.ID, h.jwtSecret, h.tokenTTL, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to sign token")
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	resp := dto.TokenResponseDTO{
		AccessToken: token,
		TokenType:   "Bearer",
		UserID:      user.ID,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
