package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSchemaVersion is the latest schema version applied by MigrateSQLite.
const SQLiteSchemaVersion = 1

// SQLiteDB is the file-backed Store used for single-node deployments and tests.
type SQLiteDB struct {
	db *sql.DB
}

var _ Store = (*SQLiteDB)(nil)

// OpenSQLite opens (creating if needed) the database file at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteDB, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open sqlite: create dir: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc serializes writers at the file level; one connection avoids SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open sqlite: ping: %w", err)
	}
	if err := MigrateSQLite(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &SQLiteDB{db: sqlDB}, nil
}

// MigrateSQLite ensures the schema exists and is upgraded to SQLiteSchemaVersion.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current); err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SQLiteSchemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	statements := []struct {
		name string
		sql  string
	}{
		{"create candidates table", `
			CREATE TABLE IF NOT EXISTS candidates (
				id TEXT PRIMARY KEY,
				email TEXT NULL,
				status TEXT NOT NULL DEFAULT 'in_progress',
				avg_score REAL NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				finished_at TEXT NULL
			);`},
		{"create answers table", `
			CREATE TABLE IF NOT EXISTS answers (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				candidate_id TEXT NOT NULL,
				question TEXT NOT NULL,
				transcript TEXT NOT NULL,
				score REAL NOT NULL,
				explanation TEXT NULL,
				created_at TEXT NOT NULL,
				FOREIGN KEY(candidate_id) REFERENCES candidates(id)
			);`},
		{"create idx_answers_candidate_id", `CREATE INDEX IF NOT EXISTS idx_answers_candidate_id ON answers(candidate_id, id);`},
		{"create idx_candidates_leaderboard", `CREATE INDEX IF NOT EXISTS idx_candidates_leaderboard ON candidates(status, avg_score);`},
	}
	for _, st := range statements {
		if _, err := tx.ExecContext(ctx, st.sql); err != nil {
			return fmt.Errorf("migrate: %s: %w", st.name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES (?);`, SQLiteSchemaVersion); err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying handle
func (s *SQLiteDB) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	return t, nil
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// CreateCandidate inserts a new in-progress candidate
func (s *SQLiteDB) CreateCandidate(ctx context.Context, id string, email *string) error {
	if id == "" {
		return fmt.Errorf("create candidate: id is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, email, status, avg_score, created_at) VALUES (?, ?, ?, 0, ?)`,
		id, nullString(email), StatusInProgress, nowText(),
	)
	if err != nil {
		return fmt.Errorf("create candidate: insert: %w", err)
	}
	return nil
}

// SaveAnswer appends an answer record and returns it
func (s *SQLiteDB) SaveAnswer(ctx context.Context, in AnswerInput) (*Answer, error) {
	createdAt := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (candidate_id, question, transcript, score, explanation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.CandidateID, in.Question, in.Transcript, in.Score, nullString(in.Explanation),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("save answer: insert: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("save answer: last insert id: %w", err)
	}
	return &Answer{
		ID:          id,
		CandidateID: in.CandidateID,
		Question:    in.Question,
		Transcript:  in.Transcript,
		Score:       in.Score,
		Explanation: in.Explanation,
		CreatedAt:   createdAt,
	}, nil
}

// FinishCandidate marks a candidate finished, keeping the first finish time on repeat calls.
func (s *SQLiteDB) FinishCandidate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET status = ?, finished_at = COALESCE(finished_at, ?) WHERE id = ?`,
		StatusFinished, nowText(), id,
	)
	if err != nil {
		return fmt.Errorf("finish candidate: update: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish candidate: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish %s: %w", id, ErrCandidateNotFound)
	}
	return nil
}

// UpdateAggregateScore recomputes avg_score as the mean of all answer scores
func (s *SQLiteDB) UpdateAggregateScore(ctx context.Context, id string) (float64, error) {
	var avg float64
	err := s.db.QueryRowContext(ctx,
		`UPDATE candidates
		 SET avg_score = COALESCE((SELECT AVG(score) FROM answers WHERE candidate_id = ?1), 0)
		 WHERE id = ?1
		 RETURNING avg_score`,
		id,
	).Scan(&avg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("update score %s: %w", id, ErrCandidateNotFound)
		}
		return 0, fmt.Errorf("update aggregate score: %w", err)
	}
	return avg, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	var (
		c          Candidate
		email      sql.NullString
		createdAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&c.ID, &email, &c.Status, &c.AvgScore, &createdAt, &finishedAt); err != nil {
		return nil, err
	}
	c.Email = stringPtr(email)
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	if finishedAt.Valid {
		f, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, err
		}
		c.FinishedAt = &f
	}
	return &c, nil
}

// GetCandidate retrieves a candidate by ID, returning nil when absent
func (s *SQLiteDB) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, status, avg_score, created_at, finished_at FROM candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// GetAnswers lists a candidate's answers in insertion order
func (s *SQLiteDB) GetAnswers(ctx context.Context, id string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, candidate_id, question, transcript, score, explanation, created_at
		 FROM answers WHERE candidate_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("get answers: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var answers []Answer
	for rows.Next() {
		var (
			a           Answer
			explanation sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.Question, &a.Transcript, &a.Score, &explanation, &createdAt); err != nil {
			return nil, fmt.Errorf("get answers: scan: %w", err)
		}
		a.Explanation = stringPtr(explanation)
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("get answers: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CountAnswers returns how many answers a candidate has persisted
func (s *SQLiteDB) CountAnswers(ctx context.Context, id string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM answers WHERE candidate_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

// GetLeaderboard lists finished candidates by score, highest first
func (s *SQLiteDB) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, avg_score, created_at FROM candidates
		 WHERE status = ?
		 ORDER BY avg_score DESC, created_at ASC`, StatusFinished)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []LeaderboardEntry
	for rows.Next() {
		var (
			e         LeaderboardEntry
			email     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.CandidateID, &email, &e.AvgScore, &createdAt); err != nil {
			return nil, fmt.Errorf("get leaderboard: scan: %w", err)
		}
		e.Email = stringPtr(email)
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("get leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListCandidates retrieves recent candidates
func (s *SQLiteDB) ListCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, status, avg_score, created_at, finished_at
		 FROM candidates ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("list candidates: scan: %w", err)
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}
