package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterRefills(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, _ := l.Allow("client", 2)
		assert.True(t, ok, "request %d", i)
	}
	ok, retry := l.Allow("client", 2)
	assert.False(t, ok)
	assert.Equal(t, 30, retry)

	ok, _ = l.Allow("other", 2)
	assert.True(t, ok, "buckets are per key")

	now = now.Add(30 * time.Second)
	ok, _ = l.Allow("client", 2)
	assert.True(t, ok)
}

func TestLimiterDisabled(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		ok, _ := l.Allow("client", 0)
		assert.True(t, ok)
	}
}

func TestMiddleware(t *testing.T) {
	l := New()
	handler := l.Middleware(1, func(r *http.Request) string { return r.RemoteAddr })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}
