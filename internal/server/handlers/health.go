package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/possync/pkg/api"
)

const healthCheckTimeout = 2 * time.Second

// Pinger checks that a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	db      Pinger
	now     func() time.Time
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		db:      db,
		now:     time.Now,
		version: version,
	}
}

// Health обрабатывает GET /api/v1/health.
// Клиенты используют его как проверку доступности бэкенда, поэтому
// недоступная база данных отдается как 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := api.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Time:    h.now().UTC(),
	}

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("Health check failed", "error", err)
		resp.Status = "unavailable"
		WriteJSON(w, h.logger, http.StatusServiceUnavailable, resp)
		return
	}

	WriteJSON(w, h.logger, http.StatusOK, resp)
}
