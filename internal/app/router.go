package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"domainsuggest/internal/auth"
)

const maxBodyBytes = 64 << 10

func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)

	r.Group(func(r chi.Router) {
		r.Use(a.Auth.Middleware(auth.ScopeSuggest))
		r.Use(a.Limiter.Middleware(a.Config.HTTP.RateLimitRPM, callerKey))
		r.Post("/", a.handleSuggest)
		r.Post("/suggest", a.handleSuggest)
	})
	// MCP authenticates per JSON-RPC method.
	r.Post("/mcp", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		a.MCP.HandleHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.Auth.Middleware(auth.ScopeEvaluate))
		r.Post("/evaluate", a.handleEvaluate)
		r.Get("/evaluations", a.handleListEvaluations)
		r.Get("/evaluations/{id}", a.handleGetEvaluation)
		r.Get("/debug", a.handleDebug)
	})
	return r
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Logger.LogAttrs(r.Context(), slog.LevelDebug, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// callerKey charges authenticated callers by subject and anonymous ones by
// client address.
func callerKey(r *http.Request) string {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok && p.AuthMethod != "anonymous" {
		return p.AuthMethod + ":" + p.Subject
	}
	return "ip:" + r.RemoteAddr
}
