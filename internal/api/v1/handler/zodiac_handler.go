package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/zodiac"
)

// ZodiacHandler serves the public sign catalog.
type ZodiacHandler struct{}

func NewZodiacHandler() *ZodiacHandler {
	return &ZodiacHandler{}
}

func (h *ZodiacHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/zodiac-signs", h.listSigns)
}

func (h *ZodiacHandler) listSigns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(zodiac.Signs)
}
