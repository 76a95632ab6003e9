package config

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordConfig holds configuration for password hashing and verification.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewPasswordConfig builds a password configuration from the auth settings.
// Cost defaults to 12 when unset.
func NewPasswordConfig(auth AuthConfig) (*PasswordConfig, error) {
	cost := auth.BcryptCost
	if cost == 0 {
		cost = 12
	}

	config := &PasswordConfig{
		BcryptCost: cost,
		Pepper:     auth.Pepper,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *PasswordConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw+c.Pepper), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pw+c.Pepper)) == nil
}

// OrgAccount is the organization login resolved at startup.
type OrgAccount struct {
	Email        string
	PasswordHash string
	passwords    *PasswordConfig
}

// NewOrgAccount resolves the organization credentials. A plain password is
// hashed once; a configured hash is used as-is. Returns nil when no account is configured.
func NewOrgAccount(org OrgConfig, passwords *PasswordConfig) (*OrgAccount, error) {
	email := strings.ToLower(strings.TrimSpace(org.Email))
	if email == "" {
		return nil, nil
	}
	if passwords == nil {
		return nil, fmt.Errorf("password config is required")
	}

	hash := org.PasswordHash
	if hash == "" {
		if org.Password == "" {
			return nil, fmt.Errorf("org account %s needs 'org.password' or 'org.password_hash'", email)
		}
		var err error
		hash, err = passwords.HashPassword(org.Password)
		if err != nil {
			return nil, err
		}
	}
	return &OrgAccount{Email: email, PasswordHash: hash, passwords: passwords}, nil
}

// Verify reports whether the login matches the configured account.
func (a *OrgAccount) Verify(email, password string) bool {
	if a == nil {
		return false
	}
	if strings.ToLower(strings.TrimSpace(email)) != a.Email {
		return false
	}
	return a.passwords.VerifyPassword(password, a.PasswordHash)
}
