package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig_DefaultExpiration(t *testing.T) {
	cfg, err := NewJWTConfig(AuthConfig{JWTSecret: "test-secret-key"})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test-secret-key", cfg.Secret)
	assert.Equal(t, 24, cfg.ExpirationHours, "should use default expiration of 24 hours")
}

func TestNewJWTConfig_Expiration(t *testing.T) {
	tests := []struct {
		name          string
		expiration    int
		expectedHours int
		wantErr       bool
	}{
		{name: "custom expiration 12 hours", expiration: 12, expectedHours: 12},
		{name: "minimum expiration 1 hour", expiration: 1, expectedHours: 1},
		{name: "large expiration", expiration: 168, expectedHours: 168},
		{name: "negative expiration", expiration: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewJWTConfig(AuthConfig{JWTSecret: "test-secret-key", JWTExpirationHours: tt.expiration})
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHours, cfg.ExpirationHours)
		})
	}
}

func TestNewJWTConfig_MissingSecret(t *testing.T) {
	cfg, err := NewJWTConfig(AuthConfig{})
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
