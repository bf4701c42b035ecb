package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/client/iocli"
	"github.com/iudanet/possync/pkg/api"
)

const testOrder = `{"order_number":"AB-042","order_type":"takeaway","items":[{"menu_item_id":"m-1","name":"Latte","unit_price":"12.50","quantity":1}],"total":"12.50"}`

// testEnv backend и пути к файлам одного теста
type testEnv struct {
	server  *httptest.Server
	dir     string
	creates atomic.Int32
	status  atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{dir: t.TempDir()}
	env.status.Store(http.StatusCreated)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok", Time: time.Now()})
	})
	record := func(w http.ResponseWriter, r *http.Request) {
		status := int(env.status.Load())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: api.CodeValidationFailed, Message: "rejected"})
			return
		}
		var req api.RecordRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(api.Record{ID: req.ID, Entity: r.PathValue("kind"), Data: req.Data})
	}
	mux.HandleFunc("POST /api/v1/records/{kind}", func(w http.ResponseWriter, r *http.Request) {
		env.creates.Add(1)
		record(w, r)
	})
	mux.HandleFunc("PUT /api/v1/records/{kind}/{id}", record)

	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	// ускоряем повторы, чтобы тесты не ждали секунды
	t.Setenv("POSSYNC_SYNC_BASE_DELAY", "1ms")
	t.Setenv("POSSYNC_CHECKOUT_BASE_DELAY", "1ms")
	return env
}

// run выполняет команду и возвращает вывод
func (e *testEnv) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	c := New(iocli.New(strings.NewReader(input), &out), BuildInfo{Version: "1.2.3", BuildDate: "today", GitCommit: "abc"})
	c.logOut = io.Discard

	cmd := c.RootCommand()
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(e.dir, "possync.toml"),
		"--env-file", filepath.Join(e.dir, "absent.env"),
		"--db", filepath.Join(e.dir, "client.db"),
		"--server", e.server.URL,
	}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func TestRootCommand(t *testing.T) {
	cmd := New(iocli.New(strings.NewReader(""), io.Discard), BuildInfo{}).RootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "possync", cmd.Use)

	commands := [][]string{
		{"enqueue"}, {"write"}, {"sync"}, {"status"}, {"checkout"}, {"run"}, {"version"},
		{"queue", "list"}, {"queue", "clear"}, {"queue", "dead"}, {"queue", "requeue"}, {"queue", "purge-dead"},
		{"txn", "check"}, {"txn", "forget"}, {"txn", "sweep"},
	}
	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "possync.toml", configFlag.DefValue)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "version")

	assert.Contains(t, out, "Version:    1.2.3")
	assert.Contains(t, out, "Git Commit: abc")
}

func TestEnqueueListSync(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "enqueue", "customers", "create", "cust-1", "--data", `{"name":"Ann","phone":"+15550001"}`)
	assert.Contains(t, out, "Queued CREATE customers cust-1")

	env.mustRun(t, "enqueue", "orders", "create", "order-1", "--data", testOrder)

	out = env.mustRun(t, "queue", "list")
	assert.Contains(t, out, "customers")
	assert.Contains(t, out, "order-1")
	assert.Contains(t, out, "Total: 2")
	assert.Less(t, strings.Index(out, "cust-1"), strings.Index(out, "order-1"), "порядок постановки в очередь")

	out = env.mustRun(t, "status")
	assert.Contains(t, out, "Connection:  connected")
	assert.Contains(t, out, "Queued:      2")
	assert.Contains(t, out, "Last sync:   never")

	out = env.mustRun(t, "sync")
	assert.Contains(t, out, "Sending 2 queued mutation(s)")
	assert.Contains(t, out, "Delivered:       2")
	assert.EqualValues(t, 2, env.creates.Load())

	out = env.mustRun(t, "queue", "list")
	assert.Contains(t, out, "Queue is empty")

	out = env.mustRun(t, "status")
	assert.Contains(t, out, "All mutations synchronized")
	assert.NotContains(t, out, "Last sync:   never")
}

func TestEnqueue_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown entity", args: []string{"enqueue", "tables", "create", "t-1", "--data", "{}"}},
		{name: "unsupported action", args: []string{"enqueue", "orders", "delete", "o-1"}},
		{name: "missing payload", args: []string{"enqueue", "customers", "create", "c-1"}},
		{name: "invalid payload", args: []string{"enqueue", "customers", "create", "c-1", "--data", `{"name":""}`}},
		{name: "broken json", args: []string{"enqueue", "customers", "create", "c-1", "--data", `{`}},
		{name: "wrong arg count", args: []string{"enqueue", "customers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, "", tt.args...)
			require.Error(t, err)
		})
	}

	out := env.mustRun(t, "queue", "list")
	assert.Contains(t, out, "Queue is empty")
}

func TestEnqueue_FromFileAndDelete(t *testing.T) {
	env := newTestEnv(t)

	path := filepath.Join(env.dir, "item.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Milk","unit":"l","current_quantity":"4"}`), 0o600))

	env.mustRun(t, "enqueue", "inventory", "update", "item-7", "--file", path)
	env.mustRun(t, "enqueue", "inventory", "delete", "item-8")

	out := env.mustRun(t, "queue", "list", "--json")
	assert.Contains(t, out, `"id": "item-7"`)
	assert.Contains(t, out, `"id": "item-8"`)
	assert.Contains(t, out, `"action": "DELETE"`)
}

func TestQueueClear(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "enqueue", "inventory", "delete", "item-1")

	_, err := env.run(t, "", "queue", "clear")
	require.Error(t, err, "без терминала и --force очистка запрещена")
	assert.Contains(t, err.Error(), "--force")

	out := env.mustRun(t, "queue", "clear", "--force")
	assert.Contains(t, out, "Removed 1 mutation(s)")

	out = env.mustRun(t, "queue", "clear")
	assert.Contains(t, out, "Queue is empty")
}

func TestDeadLetters(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "enqueue", "customers", "create", "cust-1", "--data", `{"name":"Ann","phone":"+15550001"}`)

	// постоянная ошибка сразу переносит элемент в dead letters
	env.status.Store(http.StatusUnprocessableEntity)
	out := env.mustRun(t, "sync")
	assert.Contains(t, out, "Dead-lettered:   1")
	assert.Contains(t, out, "possync queue dead")

	out = env.mustRun(t, "queue", "dead", "--json")
	var letters []struct {
		Reason string `json:"reason"`
		Item   struct {
			Key string `json:"key"`
			ID  string `json:"id"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &letters))
	require.Len(t, letters, 1)
	assert.Equal(t, "cust-1", letters[0].Item.ID)
	assert.Contains(t, letters[0].Reason, "permanent error")

	out = env.mustRun(t, "queue", "requeue", letters[0].Item.Key)
	assert.Contains(t, out, "Requeued CREATE customers cust-1")

	env.status.Store(http.StatusCreated)
	out = env.mustRun(t, "sync")
	assert.Contains(t, out, "Delivered:       1")

	out = env.mustRun(t, "queue", "dead")
	assert.Contains(t, out, "No dead letters")
}

func TestPurgeDead(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "enqueue", "customers", "create", "cust-1", "--data", `{"name":"Ann","phone":"+15550001"}`)
	env.status.Store(http.StatusBadRequest)
	env.mustRun(t, "sync")

	out := env.mustRun(t, "queue", "purge-dead", "--force")
	assert.Contains(t, out, "Purged 1 dead letter(s)")
}

func TestWrite(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "write", "customers", "update", "cust-1", "--data", `{"name":"Ann","phone":"+15550001"}`)
	assert.Contains(t, out, "Delivered UPDATE customers cust-1")

	env.status.Store(http.StatusServiceUnavailable)
	out = env.mustRun(t, "write", "customers", "update", "cust-1", "--data", `{"name":"Ann","phone":"+15550001"}`)
	assert.Contains(t, out, "Backend unavailable, queued")

	env.status.Store(http.StatusBadRequest)
	_, err := env.run(t, "", "write", "customers", "update", "cust-1", "--data", `{"name":"Ann","phone":"+15550001"}`)
	require.Error(t, err)
}

func TestCheckout_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	const txn = "txn_checkout-1"

	out := env.mustRun(t, "checkout", "--data", testOrder, "--txn", txn)
	assert.Contains(t, out, "Transaction: "+txn)
	assert.Contains(t, out, "Order submitted")

	out = env.mustRun(t, "checkout", "--data", testOrder, "--txn", txn)
	assert.Contains(t, out, "already submitted")
	assert.EqualValues(t, 1, env.creates.Load())

	out = env.mustRun(t, "txn", "check", txn)
	assert.Contains(t, out, txn+": submitted")

	env.mustRun(t, "txn", "forget", txn)
	out = env.mustRun(t, "txn", "check", txn)
	assert.Contains(t, out, txn+": not submitted")

	out = env.mustRun(t, "txn", "sweep")
	assert.Contains(t, out, "Removed 0 expired transaction(s)")
}

func TestCheckout_GeneratesTransactionID(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "checkout", "--data", testOrder)
	assert.Contains(t, out, "Transaction: txn_")
	assert.EqualValues(t, 1, env.creates.Load())
}

func TestCheckout_RetriesThenFails(t *testing.T) {
	env := newTestEnv(t)
	env.status.Store(http.StatusServiceUnavailable)

	out, err := env.run(t, "", "checkout", "--data", testOrder, "--txn", "txn_fail-1")
	require.Error(t, err)
	assert.Contains(t, out, "Retrying (1)")
	assert.Contains(t, out, "Retrying (2)")
	assert.Contains(t, out, "Retry with --txn txn_fail-1")
	assert.EqualValues(t, 3, env.creates.Load())

	out = env.mustRun(t, "txn", "check", "txn_fail-1")
	assert.Contains(t, out, "not submitted")
}

func TestSync_Unreachable(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "enqueue", "inventory", "delete", "item-1")
	env.server.Close()

	_, err := env.run(t, "", "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")

	out := env.mustRun(t, "status")
	assert.Contains(t, out, "Connection:  disconnected")
	assert.Contains(t, out, "waiting for the server to come back")
}

func TestPassphraseFile(t *testing.T) {
	env := newTestEnv(t)

	path := filepath.Join(env.dir, "passphrase")
	require.NoError(t, os.WriteFile(path, []byte("correct horse battery staple\n"), 0o600))

	env.mustRun(t, "--passphrase-file", path, "enqueue", "inventory", "delete", "item-1")
	out := env.mustRun(t, "--passphrase-file", path, "status")
	assert.Contains(t, out, "Encryption:  on")

	empty := filepath.Join(env.dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err := env.run(t, "", "--passphrase-file", empty, "status")
	require.Error(t, err)
}
