// Package evaluate scores served suggestions with an LLM judge.
package evaluate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"domainsuggest/internal/extract"
	"domainsuggest/internal/llm"
)

// Marker domains for runs that produced no real domain.
const (
	NoDomainsRecord     = "no_domains_generated"
	InappropriateRecord = "inappropriate_content_detected"
)

type Options struct {
	Temperature   float64
	MaxTokens     int
	ModerationTTL time.Duration
	Logger        *slog.Logger
}

type Evaluator struct {
	judge       llm.Provider
	temperature float64
	maxTokens   int
	logger      *slog.Logger
	moderation  *ttlcache.Cache[string, bool]
}

func NewEvaluator(judge llm.Provider, opts Options) *Evaluator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.ModerationTTL <= 0 {
		opts.ModerationTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	cache := ttlcache.New[string, bool](
		ttlcache.WithTTL[string, bool](opts.ModerationTTL),
		ttlcache.WithDisableTouchOnHit[string, bool](),
	)
	go cache.Start()
	return &Evaluator{
		judge:       judge,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      opts.Logger,
		moderation:  cache,
	}
}

// Close stops the moderation cache expiry loop.
func (e *Evaluator) Close() {
	e.moderation.Stop()
}

// JudgeModel names the model behind the judge.
func (e *Evaluator) JudgeModel() string {
	return e.judge.Name() + "/" + e.judge.Model()
}

// Evaluate judges one extraction result for description. It never fails:
// judge errors are logged and yield an empty list.
func (e *Evaluator) Evaluate(ctx context.Context, description string, result extract.Result) []Record {
	switch result.Kind {
	case extract.KindNoneFound:
		return []Record{uniform(NoDomainsRecord, 0)}
	case extract.KindBlocked:
		inappropriate, err := e.Moderate(ctx, description)
		if err != nil {
			e.logger.Warn("moderation check failed", "error", err)
		}
		// Blocking was correct exactly when the judge also flags the input.
		if inappropriate {
			// Full marks rather than 1s keep confidence equal to Aggregate of the criteria.
			return []Record{uniform(InappropriateRecord, 10)}
		}
		return []Record{uniform(InappropriateRecord, 0)}
	default:
		records, err := e.Score(ctx, description, result.Domains)
		if err != nil {
			e.logger.Warn("domain scoring failed", "domains", len(result.Domains), "error", err)
			return []Record{}
		}
		return records
	}
}

// Score asks the judge to rate domains against description.
func (e *Evaluator) Score(ctx context.Context, description string, domains []string) ([]Record, error) {
	if len(domains) == 0 {
		return []Record{}, nil
	}
	content, err := e.judge.Complete(ctx, llm.Request{
		Task: llm.TaskScore,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: scoringSystemPrompt},
			{Role: llm.RoleUser, Content: scoringPrompt(description, domains)},
		},
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	records, err := ParseScores(content)
	if err != nil {
		if errors.Is(err, ErrUnparseable) {
			e.logger.Warn("could not parse judge response", "content", llm.Truncate(content, 500))
		}
		return nil, err
	}
	return records, nil
}

// Moderate reports whether the judge considers description inappropriate.
// Verdicts are cached per description; errors are not cached.
func (e *Evaluator) Moderate(ctx context.Context, description string) (bool, error) {
	key := strings.TrimSpace(description)
	if item := e.moderation.Get(key); item != nil {
		return item.Value(), nil
	}
	content, err := e.judge.Complete(ctx, llm.Request{
		Task: llm.TaskModerate,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: moderationSystemPrompt},
			{Role: llm.RoleUser, Content: moderationPrompt(key)},
		},
		Temperature: e.temperature,
		MaxTokens:   moderationMaxTokens,
	})
	if err != nil {
		return false, err
	}
	verdict := strings.ToUpper(strings.TrimSpace(content)) == "YES"
	e.moderation.Set(key, verdict, ttlcache.DefaultTTL)
	return verdict, nil
}
