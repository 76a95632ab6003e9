package resume

import (
	"regexp"
	"strings"
)

var (
	innerSpace = regexp.MustCompile(`\s+`)
	blankRuns  = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes line endings and whitespace while keeping headings,
// bullets and paragraph breaks.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}
	indent := strings.Repeat(" ", len(line)-len(trimmed))
	if isBulletLine(trimmed) {
		return indent + trimmed
	}
	return indent + innerSpace.ReplaceAllString(trimmed, " ")
}

func isBulletLine(trimmed string) bool {
	for _, p := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
