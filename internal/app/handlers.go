package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"domainsuggest/internal/evaluate"
	"domainsuggest/internal/extract"
	"domainsuggest/internal/store"
	"domainsuggest/internal/suggest"
)

func (a *App) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggest.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, suggest.ErrorResponse("invalid request body: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, a.Suggest.Suggest(r.Context(), req))
}

// EvaluateRequest asks the judge about one suggestion run. Blocked marks a
// run where the model refused; otherwise an empty Domains list is a run that
// found nothing.
type EvaluateRequest struct {
	BusinessDescription string   `json:"business_description"`
	Domains             []string `json:"domains"`
	Blocked             bool     `json:"blocked,omitempty"`
}

type EvaluateResponse struct {
	ID             string            `json:"id,omitempty"`
	Records        []evaluate.Record `json:"records"`
	MeanConfidence float64           `json:"mean_confidence"`
}

func (req EvaluateRequest) result() extract.Result {
	switch {
	case req.Blocked:
		return extract.Blocked()
	case len(req.Domains) == 0:
		return extract.NoneFound()
	default:
		return extract.Result{Kind: extract.KindDomains, Domains: req.Domains}
	}
}

func (a *App) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.BusinessDescription) == "" {
		writeError(w, http.StatusBadRequest, suggest.MissingInputMessage)
		return
	}
	writeJSON(w, http.StatusOK, a.evaluate(r.Context(), req))
}

// evaluate judges one run on demand. A failed save is logged; the scores are
// still returned.
func (a *App) evaluate(ctx context.Context, req EvaluateRequest) EvaluateResponse {
	result := req.result()
	status := suggest.StatusSuccess
	if result.Kind == extract.KindBlocked {
		status = suggest.StatusBlocked
	}
	id, records, err := a.evaluateAndStore(ctx, req.BusinessDescription, string(status), "", result)
	if err != nil {
		a.Logger.Warn("save evaluation failed", "error", err)
	}
	return EvaluateResponse{
		ID:             id,
		Records:        records,
		MeanConfidence: evaluate.MeanConfidence(records),
	}
}

// evaluateAndStore judges result and, when storage is configured, persists
// the run. Records are returned even when saving fails.
func (a *App) evaluateAndStore(ctx context.Context, description, status, model string, result extract.Result) (string, []evaluate.Record, error) {
	records := a.Evaluator.Evaluate(ctx, description, result)
	if a.Store == nil {
		return "", records, nil
	}
	if model == "" {
		model = a.Evaluator.JudgeModel()
	}
	ev := store.Evaluation{
		Description: description,
		Status:      status,
		Kind:        result.Kind.String(),
		Model:       model,
	}
	for _, rec := range records {
		ev.Scores = append(ev.Scores, store.Score{
			Domain:       rec.Domain,
			Relevance:    rec.Relevance,
			Creativity:   rec.Creativity,
			Memorability: rec.Memorability,
			Conciseness:  rec.Conciseness,
			Safety:       rec.Safety,
			Confidence:   rec.Confidence,
		})
	}
	id, err := a.Store.SaveEvaluation(ctx, ev)
	return id, records, err
}

type evaluationView struct {
	ID          string            `json:"id"`
	Description string            `json:"business_description"`
	Status      string            `json:"status"`
	Kind        string            `json:"kind"`
	Model       string            `json:"model"`
	CreatedAt   time.Time         `json:"created_at"`
	Records     []evaluate.Record `json:"records,omitempty"`
}

func toView(ev store.Evaluation) evaluationView {
	view := evaluationView{
		ID:          ev.ID,
		Description: ev.Description,
		Status:      ev.Status,
		Kind:        ev.Kind,
		Model:       ev.Model,
		CreatedAt:   ev.CreatedAt,
	}
	for _, sc := range ev.Scores {
		view.Records = append(view.Records, evaluate.Record{
			Domain:       sc.Domain,
			Relevance:    sc.Relevance,
			Creativity:   sc.Creativity,
			Memorability: sc.Memorability,
			Conciseness:  sc.Conciseness,
			Safety:       sc.Safety,
			Confidence:   sc.Confidence,
		})
	}
	return view
}

func (a *App) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled.Error())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	evs, err := a.Store.ListEvaluations(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]evaluationView, 0, len(evs))
	for _, ev := range evs {
		out = append(out, toView(ev))
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": out})
}

func (a *App) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled.Error())
		return
	}
	ev, err := a.Store.GetEvaluation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toView(ev))
}

var errStorageDisabled = errors.New("evaluation storage is not configured")

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if a.Store != nil {
		if err := a.Store.Ping(ctx); err != nil {
			http.Error(w, "database: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	if a.Queue != nil {
		if err := a.Queue.Ping(ctx); err != nil {
			http.Error(w, "redis: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (a *App) handleDebug(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"generator": a.Generator.Name() + "/" + a.Generator.Model(),
		"judge":     a.Evaluator.JudgeModel(),
		"policy":    fmt.Sprintf("%s v%d", a.Policy.ID, a.Policy.Version),
		"statuses":  a.Observer.Snapshot(),
		"storage":   a.Store != nil,
	}
	if a.Queue != nil {
		depth, err := a.Queue.Depth(r.Context())
		if err != nil {
			info["queue_error"] = err.Error()
		} else {
			info["queue_depth"] = depth
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
