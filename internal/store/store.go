package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"domainsuggest/internal/domains"
)

// ErrNotFound is returned when an evaluation ID does not exist.
var ErrNotFound = errors.New("evaluation not found")

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("missing database dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Score is one judged domain.
type Score struct {
	Domain       string
	Relevance    int
	Creativity   int
	Memorability int
	Conciseness  int
	Safety       int
	Confidence   float64
}

// Evaluation is a judged suggestion run with its scores in judge order.
type Evaluation struct {
	ID          string
	Description string
	Status      string
	Kind        string
	Model       string
	CreatedAt   time.Time
	Scores      []Score
}

// SaveEvaluation inserts the run and its scores in one transaction and
// returns the run ID. Real domains are stored in canonical form; marker
// records such as no_domains_generated are kept as is.
func (s *Store) SaveEvaluation(ctx context.Context, ev Evaluation) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.Kind == "" {
		ev.Kind = "domains"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO evaluation_runs (id, description, status, kind, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, ev.ID, ev.Description, ev.Status, ev.Kind, ev.Model, ev.CreatedAt); err != nil {
		return "", fmt.Errorf("insert evaluation run: %w", err)
	}
	for i, sc := range ev.Scores {
		domain := sc.Domain
		if canonical, err := domains.CanonicalizeDomain(domain); err == nil {
			domain = canonical
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO evaluation_scores
			(run_id, position, domain, relevance, creativity, memorability, conciseness, safety, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			ev.ID, i, domain, sc.Relevance, sc.Creativity, sc.Memorability, sc.Conciseness, sc.Safety, sc.Confidence); err != nil {
			return "", fmt.Errorf("insert evaluation score %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return ev.ID, nil
}

// ListEvaluations returns the newest runs first, without scores.
func (s *Store) ListEvaluations(ctx context.Context, limit int) ([]Evaluation, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, description, status, kind, model, created_at
		FROM evaluation_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var ev Evaluation
		if err := rows.Scan(&ev.ID, &ev.Description, &ev.Status, &ev.Kind, &ev.Model, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	var ev Evaluation
	if _, err := uuid.Parse(id); err != nil {
		return ev, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, description, status, kind, model, created_at
		FROM evaluation_runs WHERE id = $1`, id)
	if err := row.Scan(&ev.ID, &ev.Description, &ev.Status, &ev.Kind, &ev.Model, &ev.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ev, ErrNotFound
		}
		return ev, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT domain, relevance, creativity, memorability, conciseness, safety, confidence
		FROM evaluation_scores WHERE run_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return ev, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.Domain, &sc.Relevance, &sc.Creativity, &sc.Memorability, &sc.Conciseness, &sc.Safety, &sc.Confidence); err != nil {
			return ev, err
		}
		ev.Scores = append(ev.Scores, sc)
	}
	return ev, rows.Err()
}
