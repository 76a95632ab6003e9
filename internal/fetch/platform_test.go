package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://docs.google.com/document/d/1AbC_d-9/edit?usp=sharing", PlatformGoogleDocs},
		{"https://docs.google.com/spreadsheets/d/1AbC/edit", PlatformUnknown},
		{"https://github.com/octocat", PlatformGitHub},
		{"https://octocat.github.io/resume", PlatformGitHub},
		{"https://www.linkedin.com/in/someone", PlatformLinkedIn},
		{"https://example.com/cv", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t,
		"https://docs.google.com/document/d/1AbC_d-9/export?format=txt",
		NormalizeURL("https://docs.google.com/document/d/1AbC_d-9/edit?usp=sharing"))
	assert.Equal(t, "https://example.com/cv", NormalizeURL("https://example.com/cv"))
}

func TestSelectorsFor(t *testing.T) {
	github := SelectorsFor(PlatformGitHub)
	assert.Contains(t, github.Content, ".markdown-body")
	assert.Contains(t, github.Noise, "form")
	assert.Contains(t, github.Noise, ".js-repo-nav")

	assert.Contains(t, SelectorsFor(PlatformLinkedIn).Content, ".top-card-layout")

	unknown := SelectorsFor(PlatformUnknown)
	assert.Equal(t, "main", unknown.Content[0])
	assert.Contains(t, unknown.Noise, ".cookie-banner")
	assert.NotContains(t, unknown.Noise, ".js-repo-nav")
}
