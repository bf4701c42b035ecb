package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	clientsync "github.com/iudanet/possync/internal/client/sync"
	"github.com/iudanet/possync/internal/models"
)

const defaultRecent = 20

// StatusResponse is the body of GET /debug/sync
type StatusResponse struct {
	LastSync    *time.Time             `json:"last_sync,omitempty"`
	Connection  models.ConnectionState `json:"connection"`
	Recent      []models.SyncLogEntry  `json:"recent"`
	Stats       models.Stats           `json:"stats"`
	Pending     int                    `json:"pending"`
	QueueDepth  int                    `json:"queue_depth"`
	DeadLetters int                    `json:"dead_letters"`
	Draining    bool                   `json:"draining"`
}

// DrainResponse is the body of POST /debug/sync/drain
type DrainResponse struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Dropped int `json:"dropped"`
}

// Handler returns the diagnostics router
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/debug/sync", a.handleStatus)
	r.Post("/debug/sync/drain", a.handleDrain)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	return r
}

func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n := defaultRecent
	if v := r.URL.Query().Get("recent"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid recent parameter", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	depth, err := a.Queue.Len(ctx)
	if err != nil {
		a.logger.Error("Failed to count queue items", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	dead, err := a.Queue.DeadLetters(ctx)
	if err != nil {
		a.logger.Error("Failed to list dead letters", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := StatusResponse{
		Stats:       a.Recorder.Stats(),
		Recent:      a.Recorder.Recent(n),
		Pending:     a.Recorder.Pending().Value(),
		Connection:  a.Oracle.State(),
		QueueDepth:  depth,
		DeadLetters: len(dead),
		Draining:    a.Dispatcher.Draining(),
	}

	ts, err := a.Storage.GetLastSyncTimestamp(ctx)
	if err != nil {
		a.logger.Warn("Failed to read last sync timestamp", "error", err)
	} else if ts > 0 {
		t := time.Unix(ts, 0).UTC()
		resp.LastSync = &t
	}

	a.writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleDrain(w http.ResponseWriter, r *http.Request) {
	result, err := a.Dispatcher.Drain(r.Context())
	switch {
	case errors.Is(err, clientsync.ErrDrainInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, clientsync.ErrOffline):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil && result == nil:
		a.logger.Error("Manual drain failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.writeJSON(w, http.StatusOK, DrainResponse{
		Success: result.SuccessCount,
		Failed:  result.FailCount,
		Dropped: result.DroppedCount,
	})
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to encode response", "error", err)
	}
}
