package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/interview-screener/internal/audio"
	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/fetch"
	"github.com/jonathan/interview-screener/internal/interview"
	"github.com/jonathan/interview-screener/internal/resume"
)

func TestErrInvalidCredentials(t *testing.T) {
	err := &ErrInvalidCredentials{}
	assert.Equal(t, "invalid email or password", err.Error())
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "email", Message: "invalid format"}
	assert.Equal(t, "validation error: email - invalid format", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"empty upload", audio.ErrEmptyUpload, http.StatusBadRequest},
		{"unsupported resume", fmt.Errorf("upload: %w", resume.ErrUnsupportedType), http.StatusBadRequest},
		{"empty resume", resume.ErrEmptyResume, http.StatusBadRequest},
		{"session expired", fmt.Errorf("answer: %w", interview.ErrSessionNotFound), StatusSessionExpired},
		{"unknown candidate", db.ErrCandidateNotFound, http.StatusNotFound},
		{"conversion", &audio.ConversionError{Err: errors.New("bad codec")}, http.StatusInternalServerError},
		{"resume url unreadable", &fetch.Error{URL: "https://x", Message: "HTTP 404"}, http.StatusUnprocessableEntity},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Internal server error", publicMessage(errors.New("pq: connection refused")))
	assert.Contains(t, publicMessage(&audio.ConversionError{Err: errors.New("x")}), "audio recording")
	assert.Contains(t, publicMessage(interview.ErrSessionNotFound), "upload your resume again")
	assert.Equal(t, audio.ErrEmptyUpload.Error(), publicMessage(audio.ErrEmptyUpload))
}
