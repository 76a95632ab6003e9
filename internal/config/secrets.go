package config

import (
	"fmt"
	"os"
	"strings"
)

// SecretSource describes how to load a secret value.
type SecretSource struct {
	// Name is used in error messages.
	Name string
	// Value is an inline secret value.
	Value string
	// File points to a file containing the secret. It takes precedence over Value.
	File string
}

// LoadSecret returns the trimmed secret from src. An error is returned when
// neither File nor Value contain a usable secret.
func LoadSecret(src SecretSource) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}
	return secret, nil
}

// optionalSecret is LoadSecret that treats an unconfigured secret as empty.
func optionalSecret(src SecretSource) (string, error) {
	if strings.TrimSpace(src.File) == "" && strings.TrimSpace(src.Value) == "" {
		return "", nil
	}
	return LoadSecret(src)
}

// ResolveSecrets replaces inline secrets with the contents of their *_file settings.
func (c *Config) ResolveSecrets() error {
	targets := []struct {
		dst *string
		src SecretSource
	}{
		{&c.LLM.APIKey, SecretSource{Name: "llm api key", Value: c.LLM.APIKey, File: c.LLM.APIKeyFile}},
		{&c.Auth.JWTSecret, SecretSource{Name: "jwt secret", Value: c.Auth.JWTSecret, File: c.Auth.JWTSecretFile}},
		{&c.SMTP.Password, SecretSource{Name: "smtp password", Value: c.SMTP.Password, File: c.SMTP.PasswordFile}},
		{&c.Archive.SecretKey, SecretSource{Name: "archive secret key", Value: c.Archive.SecretKey, File: c.Archive.SecretKeyFile}},
	}
	for _, t := range targets {
		value, err := optionalSecret(t.src)
		if err != nil {
			return err
		}
		*t.dst = value
	}
	return nil
}
