package daemon

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/config"
	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/pkg/api"
)

// backend имитирует удаленное хранилище записей
type backend struct {
	server  *httptest.Server
	creates atomic.Int32
	status  atomic.Int32
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{}
	b.status.Store(http.StatusCreated)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok", Time: time.Now()})
	})
	mux.HandleFunc("POST /api/v1/records/{kind}", func(w http.ResponseWriter, r *http.Request) {
		b.creates.Add(1)
		status := int(b.status.Load())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: api.CodeUnavailable, Message: "try later"})
			return
		}
		var req api.RecordRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(api.Record{ID: req.ID, Entity: r.PathValue("kind"), Data: req.Data})
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func newTestApp(t *testing.T, serverURL string) *App {
	t.Helper()

	cfg := config.DefaultClient()
	cfg.ServerURL = serverURL
	cfg.DBPath = filepath.Join(t.TempDir(), "client.db")
	cfg.Observability.ListenAddr = ""
	cfg.Sync.BaseDelay = config.Duration(time.Millisecond)
	cfg.Sync.MaxRetries = 0
	cfg.Sync.Interval = config.Duration(time.Hour)

	app, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func orderMutation(number string) models.Mutation {
	return models.Mutation{
		ID:     "order-" + number,
		Kind:   models.EntityOrders,
		Action: models.ActionCreate,
		Payload: &models.OrderPayload{
			OrderNumber:   number,
			TransactionID: models.TransactionID("txn_" + number),
			Items: []models.OrderLine{
				{MenuItemID: "m-1", Name: "Latte", Quantity: 1, UnitPrice: decimal.RequireFromString("12.50")},
			},
			Total: decimal.RequireFromString("12.50"),
		},
	}
}

func enqueue(t *testing.T, app *App, m models.Mutation) {
	t.Helper()
	status := app.Queue.Enqueue(context.Background(), m)
	require.True(t, status.Queued, "enqueue failed: %v", status.Err)
}

func getStatus(t *testing.T, h http.Handler) StatusResponse {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/sync", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDiagnostics_ManualDrain(t *testing.T) {
	b := newBackend(t)
	app := newTestApp(t, b.server.URL)
	h := app.Handler()

	enqueue(t, app, orderMutation("AB-042"))
	enqueue(t, app, orderMutation("AB-043"))

	before := getStatus(t, h)
	assert.Equal(t, 2, before.QueueDepth)
	assert.Equal(t, models.StateUnknown, before.Connection)
	assert.Nil(t, before.LastSync)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/sync/drain", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var drained DrainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drained))
	assert.Equal(t, DrainResponse{Success: 2}, drained)
	assert.EqualValues(t, 2, b.creates.Load())

	after := getStatus(t, h)
	assert.Equal(t, 0, after.QueueDepth)
	assert.Equal(t, 2, after.Stats.Success)
	assert.Len(t, after.Recent, 2)
	assert.Equal(t, 0, after.Pending)
	assert.NotNil(t, after.LastSync)
}

func TestDiagnostics_RecentLimit(t *testing.T) {
	b := newBackend(t)
	app := newTestApp(t, b.server.URL)
	h := app.Handler()

	for _, n := range []string{"1", "2", "3"} {
		enqueue(t, app, orderMutation(n))
	}
	_, err := app.Dispatcher.Drain(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/sync?recent=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Recent, 1)
	assert.Equal(t, 3, resp.Stats.Total)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/sync?recent=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnostics_DrainOffline(t *testing.T) {
	b := newBackend(t)
	app := newTestApp(t, b.server.URL)
	enqueue(t, app, orderMutation("AB-042"))

	app.Oracle.SetOnline(false)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/sync/drain", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, b.creates.Load())
}

func TestDiagnostics_FailedItemsStayQueued(t *testing.T) {
	b := newBackend(t)
	b.status.Store(http.StatusServiceUnavailable)
	app := newTestApp(t, b.server.URL)
	enqueue(t, app, orderMutation("AB-042"))

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/sync/drain", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var drained DrainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drained))
	assert.Equal(t, DrainResponse{Failed: 1}, drained)

	status := getStatus(t, app.Handler())
	assert.Equal(t, 1, status.QueueDepth)
	assert.Equal(t, 1, status.Stats.Errors)
	assert.Nil(t, status.LastSync)
}

func TestDiagnostics_Metrics(t *testing.T) {
	b := newBackend(t)
	app := newTestApp(t, b.server.URL)
	enqueue(t, app, orderMutation("AB-042"))

	_, err := app.Dispatcher.Drain(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "possync_queue_depth 0")
	assert.True(t, strings.Contains(body, `possync_operations_total{action="CREATE",entity="orders",result="success"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestRun_DrainsOnStartupAndStops(t *testing.T) {
	b := newBackend(t)
	app := newTestApp(t, b.server.URL)
	enqueue(t, app, orderMutation("AB-042"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool {
		n, err := app.Queue.Len(context.Background())
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return app.Oracle.State() == models.StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRun_ReconnectTriggersDrain(t *testing.T) {
	b := newBackend(t)
	app := newTestApp(t, b.server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return app.Oracle.State() == models.StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	app.Oracle.SetOnline(false)
	enqueue(t, app, orderMutation("AB-042"))
	app.Oracle.SetOnline(true)

	assert.Eventually(t, func() bool {
		return b.creates.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_SweepsExpiredTransactions(t *testing.T) {
	b := newBackend(t)
	app := newTestApp(t, b.server.URL)

	ctx := context.Background()
	id := models.TransactionID("txn_old")
	require.NoError(t, app.Storage.SaveTransaction(ctx, &models.TransactionRecord{
		ID:          id,
		SubmittedAt: time.Now().Add(-48 * time.Hour),
	}))

	app.Sweep(ctx)

	_, err := app.Storage.GetTransaction(ctx, id)
	require.Error(t, err)
}
