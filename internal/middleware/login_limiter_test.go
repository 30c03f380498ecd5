package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technotes-api/internal/logger"
	"technotes-api/internal/model"
)

type memorySink struct {
	mu      sync.Mutex
	entries map[string][]string
}

func newMemorySink() *memorySink {
	return &memorySink{entries: map[string][]string{}}
}

func (s *memorySink) Log(name string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = append(s.entries[name], message)
}

func (s *memorySink) lines(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries[name]...)
}

func loginAttempt(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginLimiter_WindowLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sink := newMemorySink()
	limiter := NewLoginLimiter(5, time.Minute, sink, nil)
	limiter.now = func() time.Time { return now }
	handler := limiter.Handler(okHandler())

	for i := 1; i <= 5; i++ {
		rec := loginAttempt(handler, "192.0.2.1")
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i)
		assert.Equal(t, "5", rec.Header().Get("RateLimit-Limit"))
	}

	now = now.Add(10 * time.Second)
	rec := loginAttempt(handler, "192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "50", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))

	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.IsError)
	assert.Contains(t, body.Message, "Too many login attempts")

	logged := sink.lines(logger.ErrorLog)
	require.Len(t, logged, 1)
	assert.True(t, strings.HasPrefix(logged[0], "Too Many Requests: "))

	other := loginAttempt(handler, "192.0.2.2")
	assert.Equal(t, http.StatusOK, other.Code)

	now = now.Add(50 * time.Second)
	rec = loginAttempt(handler, "192.0.2.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("RateLimit-Remaining"))
}

func TestLoginLimiter_CollectsStaleClients(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewLoginLimiter(2, time.Minute, nil, nil)
	limiter.now = func() time.Time { return now }
	handler := limiter.Handler(okHandler())

	loginAttempt(handler, "192.0.2.1")
	loginAttempt(handler, "192.0.2.2")

	now = now.Add(2 * time.Minute)
	loginAttempt(handler, "192.0.2.3")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.clients, 1)
	assert.Contains(t, limiter.clients, "192.0.2.3")
}

func TestNewLoginLimiterDefaults(t *testing.T) {
	limiter := NewLoginLimiter(0, 0, nil, nil)
	assert.Equal(t, 5, limiter.max)
	assert.Equal(t, time.Minute, limiter.window)
}
