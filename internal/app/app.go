package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"domainsuggest/internal/auth"
	"domainsuggest/internal/config"
	"domainsuggest/internal/domains"
	"domainsuggest/internal/evaluate"
	"domainsuggest/internal/llm"
	"domainsuggest/internal/mcp"
	"domainsuggest/internal/observability"
	"domainsuggest/internal/policy"
	"domainsuggest/internal/queue"
	"domainsuggest/internal/ratelimit"
	"domainsuggest/internal/store"
	"domainsuggest/internal/suggest"
)

// App wires the suggestion pipeline to its optional storage and queue.
// Store and Queue are nil when their connection settings are empty.
type App struct {
	Config    config.Config
	Store     *store.Store
	Queue     *queue.Queue
	Generator llm.Provider
	Judge     llm.Provider
	Policy    policy.Policy
	Suggest   *suggest.Service
	Evaluator *evaluate.Evaluator
	Auth      *auth.Service
	Limiter   *ratelimit.Limiter
	Checker   *domains.Checker
	MCP       *mcp.Server
	Observer  *observability.StatusObserver
	Logger    *slog.Logger
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.Default()

	pol, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	generator, err := SelectGenerator(cfg)
	if err != nil {
		return nil, err
	}
	if noop, ok := generator.(*llm.Noop); ok {
		noop.Sentinel = pol.SentinelPhrase
	}

	a := &App{
		Config:    cfg,
		Generator: generator,
		Judge:     SelectJudge(cfg),
		Policy:    pol,
		Auth:      auth.NewService(cfg),
		Limiter:   ratelimit.New(),
		Checker:   domains.NewChecker(nil),
		Observer:  observability.NewStatusObserver(logger),
		Logger:    logger,
	}

	if cfg.Database.DSN != "" {
		st, err := store.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, st.DB()); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.Store = st
	}
	if cfg.Redis.URL != "" {
		q, err := queue.New(cfg.Redis.URL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Queue = q
	}

	if err := a.wireServices(); err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.MCP, err = a.newMCPServer(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// wireServices builds the suggestion and evaluation services from the
// already selected providers.
func (a *App) wireServices() error {
	svc, err := suggest.NewService(a.Config, a.Generator, a.Policy)
	if err != nil {
		return err
	}
	svc.Observer = a.Observer
	svc.Logger = a.Logger
	if a.Queue != nil {
		svc.Queue = a.Queue
	}
	a.Suggest = svc

	if a.Evaluator != nil {
		a.Evaluator.Close()
	}
	a.Evaluator = evaluate.NewEvaluator(a.Judge, evaluate.Options{
		Temperature:   a.Config.Judge.Temperature,
		MaxTokens:     a.Config.Judge.MaxTokens,
		ModerationTTL: a.Config.Judge.ModerationCacheTTL,
		Logger:        a.Logger,
	})
	return nil
}

func (a *App) Close() error {
	var err error
	if a.Evaluator != nil {
		a.Evaluator.Close()
	}
	if a.Store != nil {
		err = a.Store.Close()
	}
	if a.Queue != nil {
		_ = a.Queue.Close()
	}
	return err
}

func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: a.Config.HTTP.ReadHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	a.Logger.Info("http server listening", "addr", srv.Addr, "generator", a.Generator.Name(), "judge", a.Judge.Name())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SelectGenerator returns the provider that serves the domain model.
func SelectGenerator(cfg config.Config) (llm.Provider, error) {
	g := cfg.Generation
	switch g.Provider {
	case "tgi":
		if g.BaseURL == "" {
			return nil, errors.New("generation.base_url is required for the tgi provider")
		}
		return llm.NewTGI(g.BaseURL, g.APIKey, g.Model, g.Timeout), nil
	case "openai":
		return llm.NewOpenAI(g.BaseURL, g.APIKey, g.Model, g.Timeout), nil
	case "ollama":
		return llm.NewOllama(g.BaseURL, g.Model, g.Timeout), nil
	}
	return llm.NewNoop(), nil
}

// SelectJudge returns the judge provider, falling back to Noop when the
// OpenAI judge has no key.
func SelectJudge(cfg config.Config) llm.Provider {
	j := cfg.Judge
	switch j.Provider {
	case "openai":
		if j.APIKey != "" {
			return llm.NewOpenAI(j.BaseURL, j.APIKey, j.Model, j.Timeout)
		}
		slog.Warn("judge provider openai has no api key, using noop")
	case "ollama":
		return llm.NewOllama(j.BaseURL, j.Model, j.Timeout)
	}
	return llm.NewNoop()
}
