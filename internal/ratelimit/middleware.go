package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// KeyFunc names the caller a request is charged to.
type KeyFunc func(r *http.Request) string

// Middleware rejects requests over rpm per key with 429 and a Retry-After
// header. The body has the suggestion error shape.
func (l *Limiter) Middleware(rpm int, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rpm <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			allowed, retryAfter := l.Allow(k, rpm)
			if !allowed {
				slog.Warn("rate limited", "key", k, "retry_after", retryAfter)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"suggestions": []any{},
					"status":      "error",
					"message":     "rate limited, retry in " + strconv.Itoa(retryAfter) + "s",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
