package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LoginRequest represents the organization login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued organization token.
type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// AuthHandler handles organization authentication requests.
type AuthHandler struct {
	org        OrgAuthenticator
	jwtService *JWTService
	validator  *validator.Validate
}

// NewAuthHandler creates a new AuthHandler. A nil org rejects every login.
func NewAuthHandler(org OrgAuthenticator, jwtService *JWTService) *AuthHandler {
	return &AuthHandler{
		org:        org,
		jwtService: jwtService,
		validator:  validator.New(),
	}
}

// Login handles organization login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}

	if h.org == nil || !h.org.Verify(req.Email, req.Password) {
		err := &ErrInvalidCredentials{}
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	token, err := h.jwtService.GenerateToken(strings.ToLower(strings.TrimSpace(req.Email)), RoleOrg)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(LoginResponse{Token: token, Role: RoleOrg}); err != nil {
		// Log error but response already sent
		return
	}
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			// Return first validation error for simplicity
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
