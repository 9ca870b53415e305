package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"domainsuggest/internal/app"
	"domainsuggest/internal/client"
	"domainsuggest/internal/config"
	"domainsuggest/internal/domains"
	"domainsuggest/internal/evaluate"
	"domainsuggest/internal/extract"
	"domainsuggest/internal/observability"
	"domainsuggest/internal/policy"
	"domainsuggest/internal/queue"
	"domainsuggest/internal/store"
	"domainsuggest/internal/suggest"
)

const smokeDescription = "A neighbourhood bakery selling sourdough bread and pastries."

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

	ctx := context.Background()
	switch cmd {
	case "suggest":
		err = runSuggest(ctx, cfg, strings.Join(os.Args[2:], " "))
	case "evaluate":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = runEvaluate(ctx, cfg, os.Args[2], os.Args[3:])
	case "check":
		err = runCheck(ctx, os.Args[2:])
	case "doctor":
		doctor(ctx, cfg)
	default:
		usage()
	}
	if err != nil {
		slog.Error("domainsuggest failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

// runSuggest calls the configured endpoint, or runs the pipeline in process
// when no endpoint is set.
func runSuggest(ctx context.Context, cfg config.Config, description string) error {
	req := suggest.Request{BusinessDescription: description}
	if cfg.Client.EndpointURL != "" {
		resp, err := client.New(cfg.Client.EndpointURL, cfg.Client.Token, cfg.Generation.Timeout).Suggest(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(resp)
	}
	svc, err := localService(cfg)
	if err != nil {
		return err
	}
	return printJSON(svc.Suggest(ctx, req))
}

func runEvaluate(ctx context.Context, cfg config.Config, description string, domains []string) error {
	ev := evaluate.NewEvaluator(app.SelectJudge(cfg), evaluate.Options{
		Temperature:   cfg.Judge.Temperature,
		MaxTokens:     cfg.Judge.MaxTokens,
		ModerationTTL: cfg.Judge.ModerationCacheTTL,
	})
	defer ev.Close()

	result := extract.NoneFound()
	if len(domains) > 0 {
		result = extract.Result{Kind: extract.KindDomains, Domains: domains}
	}
	records := ev.Evaluate(ctx, description, result)
	return printJSON(map[string]any{
		"records":         records,
		"mean_confidence": evaluate.MeanConfidence(records),
	})
}

// runCheck reports which domains already resolve in DNS.
func runCheck(ctx context.Context, names []string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return printJSON(domains.NewChecker(nil).CheckAll(ctx, names))
}

func localService(cfg config.Config) (*suggest.Service, error) {
	pol, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		return nil, err
	}
	generator, err := app.SelectGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return suggest.NewService(cfg, generator, pol)
}

func doctor(ctx context.Context, cfg config.Config) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Generation.Timeout+5*time.Second)
	defer cancel()

	checks := []struct {
		Name string
		Skip bool
		Fn   func() error
	}{
		{"database", cfg.Database.DSN == "", func() error { return pingDatabase(ctx, cfg.Database.DSN) }},
		{"redis", cfg.Redis.URL == "", func() error { return pingRedis(ctx, cfg.Redis.URL) }},
		{"generation", false, func() error { return smokeGeneration(ctx, cfg) }},
		{"judge", false, func() error { return smokeJudge(ctx, cfg) }},
		{"endpoint", cfg.Client.EndpointURL == "", func() error { return smokeEndpoint(ctx, cfg) }},
	}
	for _, check := range checks {
		if check.Skip {
			fmt.Printf("%s: SKIP (not configured)\n", check.Name)
			continue
		}
		if err := check.Fn(); err != nil {
			fmt.Printf("%s: FAIL (%v)\n", check.Name, err)
			continue
		}
		fmt.Printf("%s: OK\n", check.Name)
	}
}

func pingDatabase(ctx context.Context, dsn string) error {
	st, err := store.Open(dsn)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Ping(ctx)
}

func pingRedis(ctx context.Context, url string) error {
	q, err := queue.New(url)
	if err != nil {
		return err
	}
	defer q.Close()
	return q.Ping(ctx)
}

func smokeGeneration(ctx context.Context, cfg config.Config) error {
	svc, err := localService(cfg)
	if err != nil {
		return err
	}
	resp := svc.Suggest(ctx, suggest.Request{BusinessDescription: smokeDescription})
	if resp.Status == suggest.StatusError {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

func smokeJudge(ctx context.Context, cfg config.Config) error {
	ev := evaluate.NewEvaluator(app.SelectJudge(cfg), evaluate.Options{Temperature: cfg.Judge.Temperature})
	defer ev.Close()
	_, err := ev.Moderate(ctx, smokeDescription)
	return err
}

func smokeEndpoint(ctx context.Context, cfg config.Config) error {
	resp, err := client.New(cfg.Client.EndpointURL, cfg.Client.Token, cfg.Generation.Timeout).
		Suggest(ctx, suggest.Request{BusinessDescription: smokeDescription})
	if err != nil {
		return err
	}
	if resp.Status == suggest.StatusError {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Println("Usage: domainsuggest <suggest <description>|evaluate <description> [domain...]|check <domain...>|doctor>")
}
