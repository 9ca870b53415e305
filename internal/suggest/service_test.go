package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainsuggest/internal/config"
	"domainsuggest/internal/llm"
	"domainsuggest/internal/observability"
	"domainsuggest/internal/policy"
	"domainsuggest/internal/queue"
)

type stubProvider struct {
	out   string
	err   error
	panic bool
	got   llm.Request
	calls int
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-model" }

func (p *stubProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	p.calls++
	p.got = req
	if p.panic {
		panic("boom")
	}
	return p.out, p.err
}

type stubQueue struct {
	jobs []queue.EvaluationJob
	err  error
}

func (q *stubQueue) PushEvaluationJob(_ context.Context, job queue.EvaluationJob) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.jobs = append(q.jobs, job)
	return "job-1", nil
}

func newTestService(t *testing.T, provider llm.Provider, pol policy.Policy) *Service {
	t.Helper()
	svc, err := NewService(config.Default(), provider, pol)
	require.NoError(t, err)
	svc.Observer = observability.NewStatusObserver(nil)
	return svc
}

func TestSuggestEndToEndDomains(t *testing.T) {
	provider := &stubProvider{out: "<|start_header_id|>assistant<|end_header_id|>\n\n1. shoecraft.com\n2. leatherly.io\n"}
	svc := newTestService(t, provider, policy.Default())

	resp := svc.Suggest(context.Background(), Request{BusinessDescription: "handmade leather shoes"})

	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, []Suggestion{{Domain: "shoecraft.com"}, {Domain: "leatherly.io"}}, resp.Suggestions)
	assert.Empty(t, resp.Message)
}

func TestSuggestEndToEndBlocked(t *testing.T) {
	provider := &stubProvider{out: "<|start_header_id|>assistant<|end_header_id|>\n\nRequest contains inappropriate content<|eot_id|>"}
	svc := newTestService(t, provider, policy.Default())

	resp := svc.Suggest(context.Background(), Request{BusinessDescription: "something shady"})

	assert.Equal(t, Response{Suggestions: []Suggestion{}, Status: StatusBlocked, Message: "Request contains inappropriate content"}, resp)
	assert.Equal(t, int64(1), svc.Observer.Snapshot()["blocked"])
}

func TestSuggestEndToEndNoneFound(t *testing.T) {
	provider := &stubProvider{out: "<|start_header_id|>assistant<|end_header_id|>\n\nI have no ideas today."}
	svc := newTestService(t, provider, policy.Default())

	resp := svc.Suggest(context.Background(), Request{BusinessDescription: "coffee"})

	assert.Equal(t, Response{Suggestions: []Suggestion{}, Status: StatusSuccess}, resp)
}

func TestSuggestMissingInput(t *testing.T) {
	provider := &stubProvider{}
	svc := newTestService(t, provider, policy.Default())

	resp := svc.Suggest(context.Background(), Request{BusinessDescription: "   "})

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, MissingInputMessage, resp.Message)
	assert.NotNil(t, resp.Suggestions)
	assert.Zero(t, provider.calls)
}

func TestSuggestUsesInputsAndDefaults(t *testing.T) {
	provider := &stubProvider{out: "brewly.com"}
	svc := newTestService(t, provider, policy.Default())

	resp := svc.Suggest(context.Background(), Request{Inputs: "organic coffee roastery"})
	require.Equal(t, StatusSuccess, resp.Status)

	assert.Equal(t, llm.TaskGenerate, provider.got.Task)
	assert.Equal(t, 1.2, provider.got.Temperature)
	assert.Equal(t, 64, provider.got.MaxTokens)
	assert.Equal(t, 0.1, provider.got.MinP)
	require.Len(t, provider.got.Messages, 2)
	assert.Equal(t, llm.RoleSystem, provider.got.Messages[0].Role)
	assert.Contains(t, provider.got.Messages[1].Content, "Business Description: organic coffee roastery")
}

func TestSuggestParameterOverrides(t *testing.T) {
	provider := &stubProvider{out: "brewly.com"}
	svc := newTestService(t, provider, policy.Default())
	temp := 0.5

	svc.Suggest(context.Background(), Request{Inputs: "coffee", Parameters: &Parameters{Temperature: &temp}})

	assert.Equal(t, 0.5, provider.got.Temperature)
	assert.Equal(t, 64, provider.got.MaxTokens)
}

func TestSuggestInvalidParameters(t *testing.T) {
	provider := &stubProvider{out: "brewly.com"}
	svc := newTestService(t, provider, policy.Default())
	tokens := -1

	resp := svc.Suggest(context.Background(), Request{Inputs: "coffee", Parameters: &Parameters{MaxNewTokens: &tokens}})

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Message, "max_new_tokens")
	assert.Zero(t, provider.calls)
}

func TestSuggestGenerationError(t *testing.T) {
	provider := &stubProvider{err: errors.New("endpoint unavailable")}
	svc := newTestService(t, provider, policy.Default())

	resp := svc.Suggest(context.Background(), Request{Inputs: "coffee"})

	assert.Equal(t, ErrorResponse("An error occurred during inference: endpoint unavailable"), resp)
}

func TestSuggestRecoversFromPanic(t *testing.T) {
	provider := &stubProvider{panic: true}
	svc := newTestService(t, provider, policy.Default())

	var resp Response
	assert.NotPanics(t, func() {
		resp = svc.Suggest(context.Background(), Request{Inputs: "coffee"})
	})
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Message, "boom")
	assert.Equal(t, int64(1), svc.Observer.Snapshot()["error"])
}

func TestSuggestTruncatesReservedRegion(t *testing.T) {
	provider := &stubProvider{out: "brewly.com<|reserved_special_token_4|> junkdomain.com<|reserved_special_token_9|>"}
	svc := newTestService(t, provider, policy.Default())

	resp := svc.Suggest(context.Background(), Request{Inputs: "coffee"})

	assert.Equal(t, []string{"brewly.com"}, resp.Domains())
}

func TestSuggestForbiddenInputSkipsModel(t *testing.T) {
	provider := &stubProvider{out: "brewly.com"}
	pol := policy.Default()
	pol.ForbiddenPhrases = []string{"counterfeit"}
	svc := newTestService(t, provider, pol)

	resp := svc.Suggest(context.Background(), Request{Inputs: "Counterfeit watches wholesale"})

	assert.Equal(t, StatusBlocked, resp.Status)
	assert.Equal(t, pol.BlockedMessage, resp.Message)
	assert.Zero(t, provider.calls)
}

func TestSuggestEnqueuesSampledJobs(t *testing.T) {
	provider := &stubProvider{out: "1. brewly.com 2. beanly.io"}
	svc := newTestService(t, provider, policy.Default())
	q := &stubQueue{}
	svc.Queue = q
	svc.SampleRate = 0.5

	svc.sample = func() float64 { return 0.9 }
	svc.Suggest(context.Background(), Request{Inputs: "coffee"})
	assert.Empty(t, q.jobs, "sample above the rate is skipped")

	svc.sample = func() float64 { return 0.1 }
	svc.Suggest(context.Background(), Request{Inputs: "coffee"})
	require.Len(t, q.jobs, 1)
	assert.Equal(t, "coffee", q.jobs[0].Description)
	assert.Equal(t, "domains", q.jobs[0].Kind)
	assert.Equal(t, []string{"brewly.com", "beanly.io"}, q.jobs[0].Domains)
	assert.Equal(t, "stub-model", q.jobs[0].Model)
}

func TestSuggestQueueFailureDoesNotAffectResponse(t *testing.T) {
	provider := &stubProvider{out: "brewly.com"}
	svc := newTestService(t, provider, policy.Default())
	svc.Queue = &stubQueue{err: errors.New("redis down")}
	svc.SampleRate = 1

	resp := svc.Suggest(context.Background(), Request{Inputs: "coffee"})

	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, []string{"brewly.com"}, resp.Domains())
}

func TestSuggestWithNoopProvider(t *testing.T) {
	svc := newTestService(t, llm.NewNoop(), policy.Default())

	resp := svc.Suggest(context.Background(), Request{BusinessDescription: "Artisanal leather goods"})
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.Suggestions)

	resp = svc.Suggest(context.Background(), Request{BusinessDescription: "adult content website"})
	assert.Equal(t, StatusBlocked, resp.Status)
}

func TestNewServiceRejectsBadPromptTemplate(t *testing.T) {
	cfg := config.Default()
	cfg.Generation.UserPrompt = "{{.Description"

	_, err := NewService(cfg, &stubProvider{}, policy.Default())
	assert.Error(t, err)
}
