package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-screener/internal/interview"
	"github.com/jonathan/interview-screener/internal/scoring"
)

// CreateCandidateResponse is returned by POST /candidates.
type CreateCandidateResponse struct {
	CandidateID   string `json:"candidate_id"`
	Token         string `json:"token"`
	QuestionCount int    `json:"question_count"`
}

// NextQuestionResponse is returned by GET /candidate/next_question.
type NextQuestionResponse struct {
	Done     bool   `json:"done"`
	Question string `json:"question,omitempty"`
	QIndex   int    `json:"q_index,omitempty"`
	Total    int    `json:"total"`
	Message  string `json:"message,omitempty"`
}

// AnswerResponse is returned by POST /candidate/answer.
type AnswerResponse struct {
	Done            bool         `json:"done"`
	AlreadyComplete bool         `json:"already_complete,omitempty"`
	QIndex          int          `json:"q_index,omitempty"`
	Transcript      string       `json:"transcript,omitempty"`
	Score           float64      `json:"score"`
	Explanation     string       `json:"explanation,omitempty"`
	ScorePath       scoring.Path `json:"score_path,omitempty"`
	Message         string       `json:"message,omitempty"`
}

const completeMessage = "Interview complete. Thank you!"

// parseUpload limits the body and parses the multipart form.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &ErrValidation{Field: "body", Message: "expected multipart form data"}
	}
	return nil
}

// handleCreateCandidate extracts the resume, starts the interview and issues a candidate token.
func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r); err != nil {
		s.fail(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	email := strings.TrimSpace(r.FormValue("email"))
	if email != "" {
		if err := s.validator.Var(email, "email"); err != nil {
			s.fail(w, r, &ErrValidation{Field: "email", Message: "invalid email address"})
			return
		}
	}

	text, err := s.readResume(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	started, err := s.interviews.Start(r.Context(), interview.StartInput{Email: email, ResumeText: text})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	token, err := s.jwtService.GenerateToken(started.CandidateID, RoleCandidate)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to issue candidate token: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusCreated, CreateCandidateResponse{
		CandidateID:   started.CandidateID,
		Token:         token,
		QuestionCount: len(started.Questions),
	})
}

// readResume prefers an uploaded file and falls back to resume_url.
func (s *Server) readResume(r *http.Request) (string, error) {
	file, header, err := r.FormFile("resume")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("failed to read resume upload: %w", err)
		}
		return s.resumes.Extract(r.Context(), header.Filename, data)
	case !errors.Is(err, http.ErrMissingFile):
		return "", &ErrValidation{Field: "resume", Message: "could not read uploaded file"}
	}

	if url := strings.TrimSpace(r.FormValue("resume_url")); url != "" {
		if err := s.validator.Var(url, "url"); err != nil {
			return "", &ErrValidation{Field: "resume_url", Message: "invalid url"}
		}
		return s.resumes.ExtractURL(r.Context(), url)
	}
	return "", &ErrValidation{Field: "resume", Message: "a resume file or resume_url is required"}
}

// handleNextQuestion returns the current question without advancing.
func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.subject(w, r)
	if !ok {
		return
	}

	q, err := s.interviews.NextQuestion(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if q.Done {
		s.jsonResponse(w, http.StatusOK, NextQuestionResponse{Done: true, Total: q.Total, Message: completeMessage})
		return
	}
	s.jsonResponse(w, http.StatusOK, NextQuestionResponse{Question: q.Question, QIndex: q.Index, Total: q.Total})
}

// handleSubmitAnswer records one audio answer for the current question.
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.subject(w, r)
	if !ok {
		return
	}
	if err := s.parseUpload(w, r); err != nil {
		s.fail(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "audio", Message: "an audio file is required"})
		return
	}
	defer file.Close()

	out, err := s.interviews.SubmitAnswer(r.Context(), id, file, header.Filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if out.AlreadyComplete {
		s.jsonResponse(w, http.StatusOK, AnswerResponse{Done: true, AlreadyComplete: true, Message: completeMessage})
		return
	}

	s.logger.Debug("answer submitted", zap.String("candidate_id", id), zap.Int("q_index", out.Index))
	s.jsonResponse(w, http.StatusOK, AnswerResponse{
		Done:        out.Done,
		QIndex:      out.Index,
		Transcript:  out.Transcript,
		Score:       out.Score,
		Explanation: out.Explanation,
		ScorePath:   out.Path,
	})
}

// handleSummary returns the candidate's finish page data.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := s.subject(w, r)
	if !ok {
		return
	}

	summary, err := s.interviews.Summary(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}
