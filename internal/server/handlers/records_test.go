package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/server/storage"
	"github.com/iudanet/possync/internal/server/storage/sqlite"
	"github.com/iudanet/possync/pkg/api"
)

const validOrder = `{"order_number":"AB-042","transaction_id":"txn_abc","total":"12.50",
	"items":[{"menu_item_id":"m-1","name":"Latte","unit_price":"6.25","quantity":2}]}`

func newRecordsRouter(store storage.RecordStorage) http.Handler {
	h := NewRecordsHandler(setupTestLogger(), store)

	r := chi.NewRouter()
	// в тестах device_id подставляется вместо middleware аутентификации
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithDeviceID(r.Context(), "till-1")))
		})
	})
	r.Post("/api/v1/records/{entity}", h.Create)
	r.Put("/api/v1/records/{entity}/{id}", h.Update)
	r.Delete("/api/v1/records/{entity}/{id}", h.Delete)
	r.Get("/api/v1/records/{entity}/{id}", h.Get)
	return r
}

func newSQLiteRouter(t *testing.T) http.Handler {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return newRecordsRouter(store)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestRecordsHandler_CreateOrder(t *testing.T) {
	h := newSQLiteRouter(t)

	w := doRequest(t, h, http.MethodPost, "/api/v1/records/orders",
		`{"id":"txn_abc","data":`+validOrder+`}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec api.Record
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
	assert.Equal(t, "txn_abc", rec.ID)
	assert.Equal(t, "orders", rec.Entity)
	assert.Equal(t, "txn_abc", rec.TransactionID, "transaction_id берется из payload заказа")
	assert.Equal(t, "till-1", rec.DeviceID)

	t.Run("resent order is a duplicate", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/api/v1/records/orders",
			`{"id":"txn_abc","transaction_id":"txn_abc","data":`+validOrder+`}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, api.CodeDuplicateTransaction, decodeError(t, w).Error)
	})

	t.Run("stored order is readable", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/api/v1/records/orders/txn_abc", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got api.Record
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Contains(t, string(got.Data), "AB-042")
	})
}

func TestRecordsHandler_CreateRejected(t *testing.T) {
	h := newSQLiteRouter(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown entity",
			path:       "/api/v1/records/tables",
			body:       `{"id":"t1","data":{}}`,
			wantStatus: http.StatusNotFound,
			wantCode:   api.CodeUnknownEntity,
		},
		{
			name:       "invalid json",
			path:       "/api/v1/records/customers",
			body:       `{"id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   api.CodeBadRequest,
		},
		{
			name:       "missing data",
			path:       "/api/v1/records/customers",
			body:       `{"id":"c1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   api.CodeBadRequest,
		},
		{
			name:       "missing id",
			path:       "/api/v1/records/customers",
			body:       `{"data":{"name":"Ann","phone":"0812345678"}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   api.CodeBadRequest,
		},
		{
			name:       "payload fails validation",
			path:       "/api/v1/records/customers",
			body:       `{"id":"c1","data":{"name":"Ann","phone":"1"}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   api.CodeValidationFailed,
		},
		{
			name:       "malformed transaction id",
			path:       "/api/v1/records/orders",
			body:       `{"id":"o1","transaction_id":"abc","data":{"order_number":"A1","total":"1"}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   api.CodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Error)
		})
	}
}

func TestRecordsHandler_UnsupportedAction(t *testing.T) {
	h := newSQLiteRouter(t)

	// журнал склада только дополняется
	w := doRequest(t, h, http.MethodPut, "/api/v1/records/inventory_logs/l1",
		`{"data":{"stock_item_id":"i1","type":"out","quantity":"1","new_quantity":"3"}}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = doRequest(t, h, http.MethodDelete, "/api/v1/records/orders/txn_1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRecordsHandler_Update(t *testing.T) {
	h := newSQLiteRouter(t)
	body := `{"data":{"name":"Milk","unit":"l","current_quantity":"4"}}`

	w := doRequest(t, h, http.MethodPut, "/api/v1/records/inventory/i1", body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, h, http.MethodPut, "/api/v1/records/inventory/i1",
		`{"id":"i1","data":{"name":"Milk","unit":"l","current_quantity":"3"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var rec api.Record
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
	assert.Contains(t, string(rec.Data), `"3"`)

	t.Run("id mismatch", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPut, "/api/v1/records/inventory/i1",
			`{"id":"i2","data":{"name":"Milk","unit":"l","current_quantity":"3"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecordsHandler_DeleteIsIdempotent(t *testing.T) {
	h := newSQLiteRouter(t)

	w := doRequest(t, h, http.MethodPost, "/api/v1/records/suppliers",
		`{"id":"s1","data":{"name":"Dairy Co"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for range 2 {
		w = doRequest(t, h, http.MethodDelete, "/api/v1/records/suppliers/s1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/records/suppliers/s1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, api.CodeNotFound, decodeError(t, w).Error)
}

func TestRecordsHandler_StorageFailure(t *testing.T) {
	failure := errors.New("database is locked")
	store := &storage.RecordStorageMock{
		CreateRecordFunc: func(ctx context.Context, rec *storage.Record) (*storage.Record, error) {
			return nil, failure
		},
		GetRecordFunc: func(ctx context.Context, entity, id string) (*storage.Record, error) {
			return nil, failure
		},
		DeleteRecordFunc: func(ctx context.Context, entity, id string) (bool, error) {
			return false, failure
		},
	}
	h := newRecordsRouter(store)

	w := doRequest(t, h, http.MethodPost, "/api/v1/records/suppliers", `{"id":"s1","data":{"name":"Dairy Co"}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, api.CodeInternal, decodeError(t, w).Error)

	w = doRequest(t, h, http.MethodGet, "/api/v1/records/suppliers/s1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(t, h, http.MethodDelete, "/api/v1/records/suppliers/s1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.Len(t, store.CreateRecordCalls(), 1)
	assert.Equal(t, "till-1", store.CreateRecordCalls()[0].Rec.DeviceID)
}
