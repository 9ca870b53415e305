package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"domainsuggest/internal/config"
	"domainsuggest/internal/extract"
	"domainsuggest/internal/llm"
	"domainsuggest/internal/observability"
	"domainsuggest/internal/policy"
	"domainsuggest/internal/queue"
)

const enqueueTimeout = 2 * time.Second

// JobQueue receives sampled suggestions for offline judging.
type JobQueue interface {
	PushEvaluationJob(ctx context.Context, job queue.EvaluationJob) (string, error)
}

// Service runs one suggestion request end to end: input checks, generation,
// extraction and response assembly. Suggest never returns an error and never
// panics; every failure becomes an error-status Response.
type Service struct {
	generator      llm.Provider
	prompter       *Prompter
	extractor      *extract.Extractor
	policy         policy.Policy
	defaults       Generation
	reservedPrefix string

	// Optional collaborators.
	Queue      JobQueue
	SampleRate float64
	Observer   *observability.StatusObserver
	Logger     *slog.Logger

	sample func() float64
}

func NewService(cfg config.Config, generator llm.Provider, pol policy.Policy) (*Service, error) {
	prompter, err := NewPrompter(cfg.Generation.SystemPrompt, cfg.Generation.UserPrompt)
	if err != nil {
		return nil, err
	}
	return &Service{
		generator:      generator,
		prompter:       prompter,
		extractor:      extract.New(cfg.Generation.AssistantMarker, pol.SentinelPhrase),
		policy:         pol,
		reservedPrefix: cfg.Generation.ReservedTokenPrefix,
		defaults: Generation{
			Temperature:  cfg.Generation.Temperature,
			MaxNewTokens: cfg.Generation.MaxNewTokens,
			MinP:         cfg.Generation.MinP,
		},
		SampleRate: cfg.Evaluation.SampleRate,
		Logger:     slog.Default(),
		sample:     rand.Float64,
	}, nil
}

func (s *Service) Suggest(ctx context.Context, req Request) (resp Response) {
	var reason string
	defer func() {
		if r := recover(); r != nil {
			resp = ErrorResponse(fmt.Sprintf("%s%v", inferenceErrorText, r))
			reason = "panic"
			s.logger().Error("suggest panicked", "panic", r)
		}
		s.Observer.Record(string(resp.Status), len(resp.Suggestions), reason)
	}()

	description, ok := req.Description()
	if !ok {
		reason = "missing_input"
		return ErrorResponse(MissingInputMessage)
	}

	if check := s.policy.CheckInput(description); !check.Allowed {
		reason = "forbidden_input"
		s.enqueue(ctx, description, extract.Blocked())
		return Assemble(extract.Blocked(), s.policy.BlockedMessage)
	}

	result, err := s.Generate(ctx, description, req.Parameters)
	if err != nil {
		reason = "inference"
		s.logger().Warn("generation failed", "provider", s.generator.Name(), "error", err)
		return ErrorResponse(inferenceErrorText + err.Error())
	}
	if result.Kind == extract.KindBlocked {
		reason = "sentinel"
	}
	s.enqueue(ctx, description, result)
	return Assemble(result, s.policy.BlockedMessage)
}

// Generate calls the model for description and extracts domains from its
// output. The reserved-token tail is cut off before extraction.
func (s *Service) Generate(ctx context.Context, description string, params *Parameters) (extract.Result, error) {
	gen, err := params.Resolve(s.defaults)
	if err != nil {
		return extract.Result{}, err
	}
	messages, err := s.prompter.BuildConversation(description)
	if err != nil {
		return extract.Result{}, err
	}
	raw, err := s.generator.Complete(ctx, llm.Request{
		Task:        llm.TaskGenerate,
		Messages:    messages,
		Temperature: gen.Temperature,
		MaxTokens:   gen.MaxNewTokens,
		MinP:        gen.MinP,
	})
	if err != nil {
		return extract.Result{}, err
	}
	return s.extractor.Extract(llm.TruncateReserved(raw, s.reservedPrefix)), nil
}

// enqueue pushes a sampled job. Queue failures are logged and never affect
// the response.
func (s *Service) enqueue(ctx context.Context, description string, result extract.Result) {
	if s.Queue == nil || s.SampleRate <= 0 {
		return
	}
	if s.SampleRate < 1 && s.sample() >= s.SampleRate {
		return
	}
	status := StatusSuccess
	if result.Kind == extract.KindBlocked {
		status = StatusBlocked
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	id, err := s.Queue.PushEvaluationJob(pushCtx, queue.EvaluationJob{
		Description: description,
		Status:      string(status),
		Kind:        result.Kind.String(),
		Domains:     result.Domains,
		Model:       s.generator.Model(),
	})
	if err != nil {
		s.logger().Warn("evaluation enqueue failed", "error", err)
		return
	}
	s.logger().Debug("evaluation job queued", "job_id", id, "kind", result.Kind.String())
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
