package llm

import "strings"

// CleanJSONBlock removes markdown fences and conversational preamble around a
// JSON object or array in a model response.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.ContainsAny(firstLine, " {[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if start := strings.IndexAny(text, "{["); start > 0 {
		open, closer := text[start], byte('}')
		if open == '[' {
			closer = ']'
		}
		if end := strings.LastIndexByte(text, closer); end > start {
			return strings.TrimSpace(text[start : end+1])
		}
	}
	return text
}

// CleanText strips surrounding whitespace and a single pair of markdown fences
// from a plain-text model response.
func CleanText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") && len(text) >= 6 {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
		if idx := strings.Index(text, "\n"); idx >= 0 && !strings.Contains(text[:idx], " ") {
			text = text[idx+1:]
		}
	}
	return strings.TrimSpace(text)
}
