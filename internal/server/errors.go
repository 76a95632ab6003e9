// Package server provides the HTTP API for candidate interviews and the organization dashboard.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/interview-screener/internal/audio"
	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/fetch"
	"github.com/jonathan/interview-screener/internal/interview"
	"github.com/jonathan/interview-screener/internal/resume"
)

// StatusSessionExpired tells the client to upload its resume again.
const StatusSessionExpired = 440

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		invalidCreds *ErrInvalidCredentials
		validation   *ErrValidation
		tooLarge     *http.MaxBytesError
		fetchErr     *fetch.Error
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &invalidCreds):
		return http.StatusUnauthorized
	case errors.As(err, &validation),
		errors.Is(err, audio.ErrEmptyUpload),
		errors.Is(err, resume.ErrUnsupportedType),
		errors.Is(err, resume.ErrEmptyResume):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, interview.ErrSessionNotFound):
		return StatusSessionExpired
	case errors.Is(err, db.ErrCandidateNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the text shown to clients for err. Internal failures
// are not echoed back.
func publicMessage(err error) string {
	var conversion *audio.ConversionError
	switch status := HTTPStatus(err); {
	case errors.Is(err, interview.ErrSessionNotFound):
		return "Session expired. Please upload your resume again."
	case errors.As(err, &conversion):
		return "Could not process the audio recording. Please try again."
	case status == http.StatusInternalServerError:
		return "Internal server error"
	default:
		return err.Error()
	}
}
