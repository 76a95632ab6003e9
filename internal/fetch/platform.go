package fetch

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform represents a known resume host.
type Platform string

const (
	PlatformGoogleDocs Platform = "google-docs"
	PlatformGitHub     Platform = "github"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformUnknown    Platform = "unknown"
)

var googleDocPath = regexp.MustCompile(`^/document/d/([A-Za-z0-9_-]+)`)

// DetectPlatform identifies the resume host from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "docs.google.com" && googleDocPath.MatchString(parsed.Path):
		return PlatformGoogleDocs
	case host == "github.com" || strings.HasSuffix(host, ".github.io"):
		return PlatformGitHub
	case host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com"):
		return PlatformLinkedIn
	default:
		return PlatformUnknown
	}
}

// NormalizeURL rewrites share links into a form that returns resume text
// directly. Google Docs links become plain-text exports.
func NormalizeURL(urlStr string) string {
	if DetectPlatform(urlStr) != PlatformGoogleDocs {
		return urlStr
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	id := googleDocPath.FindStringSubmatch(parsed.Path)[1]
	return "https://docs.google.com/document/d/" + id + "/export?format=txt"
}

var defaultContent = []string{
	"main",
	"article",
	".resume",
	"#resume",
	".content",
	"#content",
	".main-content",
}

var commonNoise = []string{
	"form",
	".social-share",
	".share-buttons",
	".cookie-banner",
	".cookie-consent",
	".gdpr-notice",
}

// SelectorsFor returns the content and noise selectors for a resume host.
func SelectorsFor(platform Platform) Selectors {
	sel := Selectors{Content: defaultContent, Noise: commonNoise}
	switch platform {
	case PlatformGitHub:
		sel.Content = []string{"article.markdown-body", ".markdown-body", ".js-user-profile-bio", "main"}
		sel.Noise = append(append([]string{}, commonNoise...), ".file-navigation", ".js-repo-nav", ".Layout-sidebar")
	case PlatformLinkedIn:
		sel.Content = []string{".core-section-container", ".top-card-layout", "main"}
		sel.Noise = append(append([]string{}, commonNoise...), ".join-form", ".contextual-sign-in-modal", ".similar-profiles")
	}
	return sel
}
