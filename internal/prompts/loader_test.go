package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(ScoringFile, KeyScoreAnswer)
	require.NoError(t, err)
	assert.Contains(t, prompt, "strictly from 0 to 10")
	assert.Contains(t, prompt, "{{.Question}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(ScoringFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEveryKnownPromptExists(t *testing.T) {
	ClearCache()

	known := map[string][]string{
		ScoringFile:       {KeyScoreAnswer, KeyExplainQuestion, KeyRemediation},
		RetrievalFile:     {KeyGroundedAnswer},
		QuestionsFile:     {KeyGenerateQuestions},
		ResumeFile:        {KeyExtractResume},
		TranscriptionFile: {KeyTranscribeAudio},
	}
	for file, keys := range known {
		for _, key := range keys {
			prompt, err := Get(file, key)
			assert.NoError(t, err, "%s/%s", file, key)
			assert.NotEmpty(t, prompt, "%s/%s", file, key)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{"single", "Q: {{.Question}}", map[string]string{"Question": "Why Go?"}, "Q: Why Go?"},
		{"repeated", "{{.A}} and {{.A}}", map[string]string{"A": "x"}, "x and x"},
		{"missing left intact", "{{.A}} {{.B}}", map[string]string{"A": "x"}, "x {{.B}}"},
		{"value not re-expanded", "{{.A}} {{.B}}", map[string]string{"A": "{{.B}}", "B": "y"}, "{{.B}} y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.template, tt.data))
		})
	}
}

func TestRender(t *testing.T) {
	ClearCache()

	out, err := Render(ScoringFile, KeyScoreAnswer, map[string]string{"Question": "What is a mutex?", "Answer": "A lock"})
	require.NoError(t, err)
	assert.Contains(t, out, "Question: What is a mutex?")
	assert.Contains(t, out, "Answer: A lock")
	assert.NotContains(t, out, "{{.")

	_, err = Render(ScoringFile, KeyScoreAnswer, map[string]string{"Question": "only one"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Answer")
}
