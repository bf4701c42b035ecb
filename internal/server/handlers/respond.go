package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/possync/pkg/api"
)

// WriteJSON пишет v как JSON с указанным статусом
func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// WriteError пишет api.ErrorResponse с кодом ошибки
func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	WriteJSON(w, logger, status, api.ErrorResponse{Error: code, Message: message})
}
