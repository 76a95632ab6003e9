// Package db provides candidate and answer persistence for the screening pipeline.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

var _ Store = (*DB)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id          TEXT PRIMARY KEY,
	email       TEXT NULL,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	avg_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at TIMESTAMPTZ NULL
);
CREATE TABLE IF NOT EXISTS answers (
	id           BIGSERIAL PRIMARY KEY,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	question     TEXT NOT NULL,
	transcript   TEXT NOT NULL,
	score        DOUBLE PRECISION NOT NULL,
	explanation  TEXT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_answers_candidate_id ON answers(candidate_id, id);
CREATE INDEX IF NOT EXISTS idx_candidates_leaderboard ON candidates(status, avg_score DESC);
`

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the candidate and answer tables if they are missing
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateCandidate inserts a new in-progress candidate
func (db *DB) CreateCandidate(ctx context.Context, id string, email *string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO candidates (id, email, status) VALUES ($1, $2, $3)`,
		id, email, StatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// SaveAnswer appends an answer record and returns it
func (db *DB) SaveAnswer(ctx context.Context, in AnswerInput) (*Answer, error) {
	answer := Answer{
		CandidateID: in.CandidateID,
		Question:    in.Question,
		Transcript:  in.Transcript,
		Score:       in.Score,
		Explanation: in.Explanation,
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO answers (candidate_id, question, transcript, score, explanation)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		in.CandidateID, in.Question, in.Transcript, in.Score, in.Explanation,
	).Scan(&answer.ID, &answer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}
	return &answer, nil
}

// FinishCandidate marks a candidate finished. Calling it again keeps the first finish time.
func (db *DB) FinishCandidate(ctx context.Context, id string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE candidates SET status = $1, finished_at = COALESCE(finished_at, NOW()) WHERE id = $2`,
		StatusFinished, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish candidate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("finish %s: %w", id, ErrCandidateNotFound)
	}
	return nil
}

// UpdateAggregateScore recomputes avg_score as the mean of all answer scores
func (db *DB) UpdateAggregateScore(ctx context.Context, id string) (float64, error) {
	var avg float64
	err := db.pool.QueryRow(ctx,
		`UPDATE candidates
		 SET avg_score = COALESCE((SELECT AVG(score) FROM answers WHERE candidate_id = $1), 0)
		 WHERE id = $1
		 RETURNING avg_score`,
		id,
	).Scan(&avg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("update score %s: %w", id, ErrCandidateNotFound)
		}
		return 0, fmt.Errorf("failed to update aggregate score: %w", err)
	}
	return avg, nil
}

// GetCandidate retrieves a candidate by ID, returning nil when absent
func (db *DB) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, status, avg_score, created_at, finished_at
		 FROM candidates WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Email, &c.Status, &c.AvgScore, &c.CreatedAt, &c.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &c, nil
}

// GetAnswers lists a candidate's answers in insertion order
func (db *DB) GetAnswers(ctx context.Context, id string) ([]Answer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, candidate_id, question, transcript, score, explanation, created_at
		 FROM answers WHERE candidate_id = $1 ORDER BY id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.Question, &a.Transcript, &a.Score, &a.Explanation, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CountAnswers returns how many answers a candidate has persisted
func (db *DB) CountAnswers(ctx context.Context, id string) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM answers WHERE candidate_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return n, nil
}

// GetLeaderboard lists finished candidates by score, highest first
func (db *DB) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, avg_score, created_at FROM candidates
		 WHERE status = $1
		 ORDER BY avg_score DESC, created_at ASC`,
		StatusFinished,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.CandidateID, &e.Email, &e.AvgScore, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListCandidates retrieves recent candidates
func (db *DB) ListCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, status, avg_score, created_at, finished_at
		 FROM candidates ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Email, &c.Status, &c.AvgScore, &c.CreatedAt, &c.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
