package ratelimit

import (
	"strings"
	"time"

	"github.com/jonathan/interview-screener/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromSettings builds a limiter configuration from the server settings.
// whitelist and blacklist are comma-separated client addresses.
func FromSettings(rl config.RateLimitConfig, whitelist, blacklist string) *Config {
	if !rl.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:           true,
		RequestsPerSecond: rl.RequestsPerSecond,
		Burst:             rl.Burst,
		CleanupInterval:   5 * time.Minute,
		IdleTTL:           time.Hour,
		Whitelist:         parseIPList(whitelist),
		Blacklist:         parseIPList(blacklist),
		EndpointConfigs:   DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Resume upload runs extraction, indexing and question generation.
		{Path: "/candidates", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},

		// Each answer runs conversion, transcription and scoring.
		{Path: "/candidate/answer", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		{Path: "/org/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/org/shortlist", Method: "POST", Limit: 10, Window: time.Minute, Burst: 2},
	}
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}

	return result
}
