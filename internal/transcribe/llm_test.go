package transcribe

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blobFunc func(ctx context.Context, prompt, mimeType string, data []byte, tier llm.ModelTier) (string, error)

func (f blobFunc) GenerateFromBlob(ctx context.Context, prompt, mimeType string, data []byte, tier llm.ModelTier) (string, error) {
	return f(ctx, prompt, mimeType, data, tier)
}

func TestLLMTranscriber(t *testing.T) {
	var gotMime string
	var gotTier llm.ModelTier
	tr := NewLLMTranscriber(blobFunc(func(_ context.Context, prompt, mimeType string, data []byte, tier llm.ModelTier) (string, error) {
		gotMime, gotTier = mimeType, tier
		assert.Contains(t, prompt, "Transcribe")
		assert.Equal(t, []byte("RIFF"), data)
		return "```\nBecause it scales.\n```", nil
	}))

	text, err := tr.Transcribe(context.Background(), writeTempWav(t, "RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "Because it scales.", text)
	assert.Equal(t, "audio/wav", gotMime)
	assert.Equal(t, llm.TierLite, gotTier)
}

func TestLLMTranscriber_Errors(t *testing.T) {
	_, err := (&LLMTranscriber{}).Transcribe(context.Background(), "a.wav")
	assert.Error(t, err)

	tr := NewLLMTranscriber(blobFunc(func(context.Context, string, string, []byte, llm.ModelTier) (string, error) {
		return "", errors.New("unsupported mime")
	}))
	_, err = tr.Transcribe(context.Background(), writeTempWav(t, "RIFF"))
	assert.ErrorContains(t, err, "unsupported mime")
}
