package transcribe

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/jonathan/interview-screener/internal/prompts"
)

// BlobGenerator is the part of llm.Client used for audio input.
type BlobGenerator interface {
	GenerateFromBlob(ctx context.Context, prompt, mimeType string, data []byte, tier llm.ModelTier) (string, error)
}

// LLMTranscriber sends the recording to a multimodal model.
type LLMTranscriber struct {
	Client BlobGenerator
	Tier   llm.ModelTier
}

// NewLLMTranscriber uses the lite tier of client.
func NewLLMTranscriber(client BlobGenerator) *LLMTranscriber {
	return &LLMTranscriber{Client: client, Tier: llm.TierLite}
}

// Transcribe returns the model's transcript with any fences removed.
func (t *LLMTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if t.Client == nil {
		return "", fmt.Errorf("llm client is not configured")
	}
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}

	prompt, err := prompts.Get(prompts.TranscriptionFile, prompts.KeyTranscribeAudio)
	if err != nil {
		return "", err
	}

	text, err := t.Client.GenerateFromBlob(ctx, prompt, "audio/wav", data, t.Tier)
	if err != nil {
		return "", fmt.Errorf("llm transcription failed: %w", err)
	}
	return llm.CleanText(text), nil
}
