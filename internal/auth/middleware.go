package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Middleware authenticates every request and enforces requiredScope. Failures
// are answered with a JSON error body in the same shape as suggestion errors.
func (s *Service) Middleware(requiredScope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := s.Authenticate(r.Header.Get("Authorization"))
			if err == nil {
				err = s.ValidateScopes(principal, requiredScope)
			}
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, ErrForbidden) {
					status = http.StatusForbidden
				} else {
					w.Header().Set("WWW-Authenticate", `Bearer realm="domainsuggest"`)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"suggestions": []any{},
					"status":      "error",
					"message":     err.Error(),
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
