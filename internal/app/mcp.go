package app

import (
	"context"
	"errors"
	"strings"

	"domainsuggest/internal/domains"
	"domainsuggest/internal/mcp"
	"domainsuggest/internal/suggest"
)

// mcpBackend runs MCP tool calls against the same services as the HTTP
// handlers.
type mcpBackend struct {
	app *App
}

func (b mcpBackend) Suggest(ctx context.Context, req suggest.Request) suggest.Response {
	return b.app.Suggest.Suggest(ctx, req)
}

func (b mcpBackend) Evaluate(ctx context.Context, args mcp.EvaluateArgs) (any, error) {
	if strings.TrimSpace(args.BusinessDescription) == "" {
		return nil, errors.New(suggest.MissingInputMessage)
	}
	return b.app.evaluate(ctx, EvaluateRequest{
		BusinessDescription: args.BusinessDescription,
		Domains:             args.Domains,
		Blocked:             args.Blocked,
	}), nil
}

func (b mcpBackend) CheckAvailability(ctx context.Context, names []string) []domains.Availability {
	return b.app.Checker.CheckAll(ctx, names)
}

func (b mcpBackend) RecentEvaluations(ctx context.Context, limit int) (any, error) {
	if b.app.Store == nil {
		return nil, errStorageDisabled
	}
	evs, err := b.app.Store.ListEvaluations(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]evaluationView, 0, len(evs))
	for _, ev := range evs {
		out = append(out, toView(ev))
	}
	return map[string]any{"evaluations": out}, nil
}

func (b mcpBackend) Evaluation(ctx context.Context, id string) (any, error) {
	if b.app.Store == nil {
		return nil, errStorageDisabled
	}
	ev, err := b.app.Store.GetEvaluation(ctx, id)
	if err != nil {
		return nil, err
	}
	return toView(ev), nil
}

func (a *App) newMCPServer() (*mcp.Server, error) {
	srv, err := mcp.NewServer(a.Config, mcpBackend{app: a}, a.Auth)
	if err != nil {
		return nil, err
	}
	srv.Logger = a.Logger
	return srv, nil
}
