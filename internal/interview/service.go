// Package interview runs the per-candidate question and answer state machine.
package interview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-screener/internal/audio"
	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/jonathan/interview-screener/internal/questions"
	"github.com/jonathan/interview-screener/internal/retrieval"
	"github.com/jonathan/interview-screener/internal/scoring"
	"github.com/jonathan/interview-screener/internal/transcribe"
)

// NoResponse is stored and reported in place of an empty transcript.
const NoResponse = "[NO RESPONSE]"

// Defaults used when Deps leaves a value unset.
const (
	DefaultQuestionCount = 5
	DefaultResumeScore   = 50.0
)

// ErrSessionNotFound means the candidate has no live session; the caller
// should start over with a new upload.
var ErrSessionNotFound = errors.New("interview session not found or expired")

// AnswerScorer scores one answer. It must not fail.
type AnswerScorer interface {
	Score(ctx context.Context, candidateID, question, transcript string) scoring.Result
}

// AudioIngestor stores and normalizes an uploaded recording.
type AudioIngestor interface {
	Ingest(ctx context.Context, candidateID string, r io.Reader, filename string) (string, error)
}

// Indexer builds the retrieval index for a resume.
type Indexer interface {
	Build(ctx context.Context, candidateID, role, text string) (*retrieval.Index, error)
}

// Deps wires a Service. Store, Sessions, Ingestor and Scorer are required.
type Deps struct {
	Store         db.Store
	Sessions      *Sessions
	Questions     questions.Source
	Indexer       Indexer
	Ingestor      AudioIngestor
	Transcriber   transcribe.Transcriber
	Scorer        AnswerScorer
	Archiver      audio.Archiver
	QuestionCount int
	ResumeScore   *float64 // nil uses DefaultResumeScore
	Role          string
	Logger        *zap.Logger
}

// Service coordinates ingestion, transcription, scoring and persistence.
type Service struct {
	d           Deps
	resumeScore float64
	locks       keyedMutex
}

// NewService validates deps and fills defaults.
func NewService(d Deps) (*Service, error) {
	if d.Store == nil || d.Sessions == nil || d.Ingestor == nil || d.Scorer == nil {
		return nil, fmt.Errorf("interview service requires a store, sessions, ingestor and scorer")
	}
	if d.Transcriber == nil {
		d.Transcriber = transcribe.Nop{}
	}
	if d.Archiver == nil {
		d.Archiver = audio.LocalArchiver{}
	}
	if d.QuestionCount <= 0 {
		d.QuestionCount = DefaultQuestionCount
	}
	resumeScore := DefaultResumeScore
	if d.ResumeScore != nil {
		resumeScore = *d.ResumeScore
	}
	if d.Role == "" {
		d.Role = scoring.DefaultRole
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{d: d, resumeScore: resumeScore}, nil
}

func (s *Service) logger(candidateID string) *zap.Logger {
	return observability.WithFields(s.d.Logger, observability.CandidateFields(candidateID)...)
}

// StartInput describes a new candidate.
type StartInput struct {
	Email      string
	ResumeText string
}

// Started is the result of Start.
type Started struct {
	CandidateID string
	Questions   []string
}

// Start creates the candidate, indexes the resume, assigns the question set
// and opens a session. Indexing and question generation failures are not
// fatal.
func (s *Service) Start(ctx context.Context, in StartInput) (*Started, error) {
	id := uuid.NewString()
	logger := s.logger(id)

	var email *string
	if e := strings.TrimSpace(in.Email); e != "" {
		email = &e
	}
	if err := s.d.Store.CreateCandidate(ctx, id, email); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	if s.d.Indexer != nil {
		if _, err := s.d.Indexer.Build(ctx, id, s.d.Role, in.ResumeText); err != nil {
			logger.Warn("resume index not built, explanations will be ungrounded", zap.Error(err))
		}
	}

	qs := questions.WithFallback(ctx, s.d.Questions, logger, id, in.ResumeText, s.d.QuestionCount)
	s.d.Sessions.Put(id, qs)

	logger.Info("interview started", zap.Int("questions", len(qs)))
	return &Started{CandidateID: id, Questions: qs}, nil
}

// Question is the result of NextQuestion. Index is 1-based.
type Question struct {
	Done     bool
	Question string
	Index    int
	Total    int
}

// state loads the session, candidate and cursor. Callers hold the candidate lock.
func (s *Service) state(ctx context.Context, candidateID string) (Session, *db.Candidate, int, error) {
	sess, ok := s.d.Sessions.Get(candidateID)
	if !ok {
		return Session{}, nil, 0, ErrSessionNotFound
	}
	cand, err := s.d.Store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Session{}, nil, 0, fmt.Errorf("failed to load candidate: %w", err)
	}
	if cand == nil {
		s.d.Sessions.Delete(candidateID)
		return Session{}, nil, 0, ErrSessionNotFound
	}
	cursor, err := s.d.Store.CountAnswers(ctx, candidateID)
	if err != nil {
		return Session{}, nil, 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return sess, cand, cursor, nil
}

// NextQuestion returns the question at the cursor without moving it. When
// every question is answered it reports done and finalizes the candidate.
func (s *Service) NextQuestion(ctx context.Context, candidateID string) (*Question, error) {
	unlock := s.locks.Lock(candidateID)
	defer unlock()

	sess, cand, cursor, err := s.state(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	total := len(sess.Questions)

	if cursor >= total || cand.Finished() {
		if _, err := s.finalize(ctx, candidateID); err != nil {
			return nil, err
		}
		return &Question{Done: true, Index: total, Total: total}, nil
	}
	return &Question{Question: sess.Questions[cursor], Index: cursor + 1, Total: total}, nil
}

// Outcome is the result of SubmitAnswer.
type Outcome struct {
	Done            bool
	AlreadyComplete bool
	Question        string
	Index           int
	Transcript      string
	Score           float64
	Explanation     string
	Path            scoring.Path
}

// SubmitAnswer records the answer to the current question. Only session,
// input and conversion errors are returned before an answer is stored;
// transcription and scoring problems degrade to sentinel values.
func (s *Service) SubmitAnswer(ctx context.Context, candidateID string, r io.Reader, filename string) (*Outcome, error) {
	unlock := s.locks.Lock(candidateID)
	defer unlock()

	logger := s.logger(candidateID)

	sess, cand, cursor, err := s.state(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	total := len(sess.Questions)

	if cursor >= total || cand.Finished() {
		if !cand.Finished() {
			if _, err := s.finalize(ctx, candidateID); err != nil {
				return nil, err
			}
		}
		logger.Info("answer ignored, interview already complete")
		return &Outcome{Done: true, AlreadyComplete: true, Index: total}, nil
	}
	question := sess.Questions[cursor]

	wavPath, err := s.d.Ingestor.Ingest(ctx, candidateID, r, filename)
	if err != nil {
		return nil, err
	}

	// Once audio is valid the answer is always recorded, even if the client goes away.
	work := context.WithoutCancel(ctx)

	transcript, terr := s.d.Transcriber.Transcribe(work, wavPath)
	if terr != nil {
		logger.Warn("transcription failed, treating as silence", zap.Error(terr))
		transcript = ""
	}
	transcript = strings.TrimSpace(transcript)

	if err := s.d.Archiver.Archive(work, candidateID, wavPath); err != nil {
		logger.Warn("failed to archive recording", zap.String("wav", wavPath), zap.Error(err))
	}

	result := s.d.Scorer.Score(work, candidateID, question, transcript)

	stored := transcript
	if stored == "" {
		stored = NoResponse
	}
	var explanation *string
	if result.Explanation != "" {
		explanation = &result.Explanation
	}
	if _, err := s.d.Store.SaveAnswer(work, db.AnswerInput{
		CandidateID: candidateID,
		Question:    question,
		Transcript:  stored,
		Score:       result.Score,
		Explanation: explanation,
	}); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	if _, err := s.d.Store.UpdateAggregateScore(work, candidateID); err != nil {
		logger.Warn("failed to update aggregate score", zap.Error(err))
	}

	out := &Outcome{
		Question:    question,
		Index:       cursor + 1,
		Transcript:  stored,
		Score:       result.Score,
		Explanation: result.Explanation,
		Path:        result.Path,
	}
	if cursor+1 >= total {
		// The answer is stored, so a finish failure is retried by the next
		// NextQuestion or SubmitAnswer call instead of failing this one.
		if _, err := s.finalize(work, candidateID); err != nil {
			logger.Warn("failed to finish interview, will retry on next request", zap.Error(err))
		}
		out.Done = true
	}

	logger.Info("answer recorded",
		zap.Int("index", out.Index),
		zap.Int("total", total),
		zap.String(observability.FieldScorePath, string(result.Path)),
		zap.Float64("score", result.Score),
		zap.Bool("done", out.Done),
	)
	return out, nil
}

// Finalize marks the candidate finished and recomputes the aggregate score.
// Calling it again is safe.
func (s *Service) Finalize(ctx context.Context, candidateID string) (float64, error) {
	unlock := s.locks.Lock(candidateID)
	defer unlock()
	return s.finalize(ctx, candidateID)
}

func (s *Service) finalize(ctx context.Context, candidateID string) (float64, error) {
	if err := s.d.Store.FinishCandidate(ctx, candidateID); err != nil {
		return 0, fmt.Errorf("failed to finish candidate: %w", err)
	}
	avg, err := s.d.Store.UpdateAggregateScore(ctx, candidateID)
	if err != nil {
		return 0, fmt.Errorf("failed to update aggregate score: %w", err)
	}
	return avg, nil
}
