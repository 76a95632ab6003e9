package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/notify"
)

// LeaderboardResponse is returned by GET /org/leaderboard.
type LeaderboardResponse struct {
	Candidates []db.LeaderboardEntry `json:"candidates"`
}

// CandidateDetailResponse is returned by GET /org/candidates/{id}.
type CandidateDetailResponse struct {
	Candidate *db.Candidate `json:"candidate"`
	Answers   []db.Answer   `json:"answers"`
}

// ShortlistRequest is the body of POST /org/shortlist.
type ShortlistRequest struct {
	CandidateIDs []string `json:"candidate_ids" validate:"required,min=1,max=100,dive,required"`
}

// ShortlistResponse reports what was queued.
type ShortlistResponse struct {
	notify.Report
	NotFound []string `json:"not_found,omitempty"`
}

// handleLeaderboard lists finished candidates by score.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.directory.GetLeaderboard(r.Context())
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to load leaderboard: %w", err))
		return
	}
	if entries == nil {
		entries = []db.LeaderboardEntry{}
	}
	s.jsonResponse(w, http.StatusOK, LeaderboardResponse{Candidates: entries})
}

// handleGetCandidate returns one candidate with all answers.
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.errorResponse(w, http.StatusBadRequest, "Candidate ID is required")
		return
	}

	candidate, err := s.directory.GetCandidate(r.Context(), id)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to load candidate: %w", err))
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	answers, err := s.directory.GetAnswers(r.Context(), id)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to load answers: %w", err))
		return
	}
	if answers == nil {
		answers = []db.Answer{}
	}
	s.jsonResponse(w, http.StatusOK, CandidateDetailResponse{Candidate: candidate, Answers: answers})
}

// handleShortlist queues congratulation emails for the selected candidates.
func (s *Server) handleShortlist(w http.ResponseWriter, r *http.Request) {
	if s.shortlister == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Notifications are not configured")
		return
	}

	var req ShortlistRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	var (
		recipients []notify.Recipient
		notFound   []string
	)
	seen := make(map[string]bool, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		candidate, err := s.directory.GetCandidate(r.Context(), id)
		if err != nil {
			s.fail(w, r, fmt.Errorf("failed to load candidate: %w", err))
			return
		}
		if candidate == nil {
			notFound = append(notFound, id)
			continue
		}
		email := ""
		if candidate.Email != nil {
			email = *candidate.Email
		}
		recipients = append(recipients, notify.Recipient{CandidateID: id, Email: email})
	}

	report := s.shortlister.Shortlist(recipients)
	s.jsonResponse(w, http.StatusAccepted, ShortlistResponse{Report: report, NotFound: notFound})
}
