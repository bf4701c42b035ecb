package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/server/handlers"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(1, 3, setupTestLogger())
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	for i := range 3 {
		assert.True(t, rl.Allow("ip:10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("ip:10.0.0.1"), "burst exhausted")
	assert.True(t, rl.Allow("ip:10.0.0.2"), "other clients are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("ip:10.0.0.1"), "token refilled after a second")
}

func TestRateLimiter_RejectedDoesNotConsume(t *testing.T) {
	rl := NewRateLimiter(1, 1, setupTestLogger())
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow("k"))
	for range 5 {
		ok, delay := rl.Reserve("k")
		assert.False(t, ok)
		assert.LessOrEqual(t, delay, time.Second)
	}

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("k"))
}

func TestRateLimiter_RemoveIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1, setupTestLogger())
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(idleLimiterTTL / 2)
	rl.Allow("fresh")
	now = now.Add(idleLimiterTTL/2 + time.Second)

	assert.Equal(t, 1, rl.removeIdle())
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "fresh")
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.5, 1, setupTestLogger())
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	newReq := func(deviceID string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/records/orders", nil)
		req.RemoteAddr = "192.0.2.10:51234"
		if deviceID != "" {
			req = req.WithContext(handlers.WithDeviceID(req.Context(), deviceID))
		}
		return req
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newReq("till-1"))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newReq("till-1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"rate_limited"`)

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)

	// другое устройство с того же адреса не затронуто
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newReq("till-2"))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, remoteAddr: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "203.0.113.7"}, remoteAddr: "10.0.0.1:80", want: "203.0.113.7"},
		{name: "addr without port", remoteAddr: "pipe", want: "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
