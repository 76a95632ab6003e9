package db

import (
	"context"
	"errors"
	"time"
)

// Candidate status values
const (
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// ErrCandidateNotFound is returned by writes that target an unknown candidate id.
var ErrCandidateNotFound = errors.New("candidate not found")

// Candidate represents a screened candidate
type Candidate struct {
	ID         string     `json:"id"`
	Email      *string    `json:"email,omitempty"`
	Status     string     `json:"status"`
	AvgScore   float64    `json:"avg_score"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the candidate reached the terminal state.
func (c *Candidate) Finished() bool {
	return c != nil && c.Status == StatusFinished
}

// Answer is an append-only record of one answered question.
type Answer struct {
	ID          int64     `json:"id"`
	CandidateID string    `json:"candidate_id"`
	Question    string    `json:"question"`
	Transcript  string    `json:"transcript"`
	Score       float64   `json:"score"`
	Explanation *string   `json:"explanation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnswerInput holds the fields written by SaveAnswer
type AnswerInput struct {
	CandidateID string
	Question    string
	Transcript  string
	Score       float64
	Explanation *string
}

// LeaderboardEntry is one row of the finished-candidate ranking
type LeaderboardEntry struct {
	CandidateID string    `json:"candidate_id"`
	Email       *string   `json:"email,omitempty"`
	AvgScore    float64   `json:"avg_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence collaborator used by the interview pipeline.
// Each method is a single self-contained statement; callers serialize writes per candidate.
type Store interface {
	CreateCandidate(ctx context.Context, id string, email *string) error
	SaveAnswer(ctx context.Context, in AnswerInput) (*Answer, error)
	FinishCandidate(ctx context.Context, id string) error
	UpdateAggregateScore(ctx context.Context, id string) (float64, error)
	GetCandidate(ctx context.Context, id string) (*Candidate, error)
	GetAnswers(ctx context.Context, id string) ([]Answer, error)
	CountAnswers(ctx context.Context, id string) (int, error)
	GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	ListCandidates(ctx context.Context, limit int) ([]Candidate, error)
	Close()
}

// Driver names accepted by Open
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
