package app

import (
	"context"
	"errors"
	"time"

	"domainsuggest/internal/evaluate"
	"domainsuggest/internal/extract"
	"domainsuggest/internal/queue"
)

const (
	popTimeout   = 5 * time.Second
	retryBackoff = 2 * time.Second
)

// RunWorker pops evaluation jobs until ctx is done, judging and storing each.
func (a *App) RunWorker(ctx context.Context) error {
	if a.Queue == nil {
		return errors.New("worker requires redis.url")
	}
	a.Logger.Info("evaluation worker started", "judge", a.Evaluator.JudgeModel(), "storage", a.Store != nil)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		job, err := a.Queue.PopEvaluationJob(ctx, popTimeout)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.Logger.Warn("pop evaluation job failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
			continue
		}
		a.ProcessJob(ctx, job)
	}
}

// ProcessJob judges one queued suggestion run. Failures are logged; the
// returned records are whatever the judge produced.
func (a *App) ProcessJob(ctx context.Context, job queue.EvaluationJob) []evaluate.Record {
	result := extract.Result{Kind: extract.ParseKind(job.Kind), Domains: job.Domains}
	if result.Kind == extract.KindDomains && len(result.Domains) == 0 {
		result = extract.NoneFound()
	}
	id, records, err := a.evaluateAndStore(ctx, job.Description, job.Status, job.Model, result)
	if err != nil {
		a.Logger.Warn("save evaluation failed", "job_id", job.ID, "error", err)
	}
	a.Logger.Info("evaluation job done",
		"job_id", job.ID,
		"evaluation_id", id,
		"kind", result.Kind.String(),
		"records", len(records),
		"mean_confidence", evaluate.MeanConfidence(records),
	)
	return records
}
