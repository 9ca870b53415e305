package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"domainsuggest/internal/app"
	"domainsuggest/internal/config"
	"domainsuggest/internal/mcp"
	"domainsuggest/internal/observability"
	"domainsuggest/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	cfg, err := config.Load(os.Getenv("DS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	observability.SetupLogger(os.Stderr, cfg.Log.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg)
	case "worker":
		err = runWorker(ctx, cfg)
	case "migrate":
		err = runMigrate(ctx, cfg)
	case "mcp":
		err = runMCP(ctx, cfg)
	default:
		usage()
		return
	}
	if err != nil && ctx.Err() == nil {
		slog.Error("domainsuggestd failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	appInstance, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("app init: %w", err)
	}
	defer appInstance.Close()
	return appInstance.Serve(ctx)
}

func runWorker(ctx context.Context, cfg config.Config) error {
	appInstance, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("app init: %w", err)
	}
	defer appInstance.Close()
	if appInstance.Store == nil {
		slog.Warn("database.dsn not set, evaluations will only be logged")
	}
	return appInstance.RunWorker(ctx)
}

// runMCP serves MCP over stdin/stdout; logs stay on stderr.
func runMCP(ctx context.Context, cfg config.Config) error {
	appInstance, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("app init: %w", err)
	}
	defer appInstance.Close()
	return mcp.RunStdio(ctx, appInstance.MCP, os.Stdin, os.Stdout)
}

func runMigrate(ctx context.Context, cfg config.Config) error {
	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := store.Migrate(ctx, st.DB()); err != nil {
		return err
	}
	slog.Info("migrations applied")
	return nil
}

func usage() {
	fmt.Println("Usage: domainsuggestd <serve|worker|mcp|migrate>")
}
