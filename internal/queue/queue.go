package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const evaluationList = "evaluation_jobs"

// ErrEmpty is returned by PopEvaluationJob when no job arrived before the
// timeout.
var ErrEmpty = errors.New("queue: no job available")

// EvaluationJob is one served suggestion waiting to be scored by the judge.
type EvaluationJob struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Kind        string    `json:"kind"`
	Domains     []string  `json:"domains"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Queue struct {
	client *redis.Client
}

func New(url string) (*Queue, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	return &Queue{client: client}, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// PushEvaluationJob assigns an ID and timestamp when missing and enqueues the
// job. It returns the job ID.
func (q *Queue) PushEvaluationJob(ctx context.Context, job EvaluationJob) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode evaluation job: %w", err)
	}
	if err := q.client.LPush(ctx, evaluationList, data).Err(); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (q *Queue) PopEvaluationJob(ctx context.Context, timeout time.Duration) (EvaluationJob, error) {
	res, err := q.client.BRPop(ctx, timeout, evaluationList).Result()
	if errors.Is(err, redis.Nil) {
		return EvaluationJob{}, ErrEmpty
	}
	if err != nil {
		return EvaluationJob{}, err
	}
	if len(res) < 2 {
		return EvaluationJob{}, ErrEmpty
	}
	var job EvaluationJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return EvaluationJob{}, fmt.Errorf("decode evaluation job: %w", err)
	}
	return job, nil
}

func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, evaluationList).Result()
}

func (q *Queue) Close() error {
	return q.client.Close()
}
