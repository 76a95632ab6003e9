package interview

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/scoring"
)

// Resume and interview weights in the total score.
const (
	ResumeWeight    = 0.4
	InterviewWeight = 0.6
)

// Summary is the end-of-interview report.
type Summary struct {
	Candidate      *db.Candidate `json:"candidate"`
	Answers        []db.Answer   `json:"answers"`
	InterviewScore float64       `json:"interview_score"`
	ResumeScore    float64       `json:"resume_score"`
	TotalScore     float64       `json:"total_score"`
}

// TotalScore weights the resume and interview scores.
func TotalScore(resume, interview float64) float64 {
	return scoring.Round2(ResumeWeight*resume + InterviewWeight*interview)
}

// Summary reports the candidate with all answers and the weighted total.
// It reads only from the store, so it works after the session expires.
func (s *Service) Summary(ctx context.Context, candidateID string) (*Summary, error) {
	cand, err := s.d.Store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if cand == nil {
		return nil, db.ErrCandidateNotFound
	}
	answers, err := s.d.Store.GetAnswers(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	interview := 0.0
	if len(answers) > 0 {
		for _, a := range answers {
			interview += a.Score
		}
		interview /= float64(len(answers))
	}

	return &Summary{
		Candidate:      cand,
		Answers:        answers,
		InterviewScore: scoring.Round2(interview),
		ResumeScore:    s.resumeScore,
		TotalScore:     TotalScore(s.resumeScore, interview),
	}, nil
}
