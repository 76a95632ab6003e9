package llm

import (
	"context"
	"fmt"
	"sync"
)

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent generates text content using the specified model tier
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON generates JSON content using the specified model tier
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateFromBlob sends binary input (audio, PDF) alongside the prompt
	GenerateFromBlob(ctx context.Context, prompt, mimeType string, data []byte, tier ModelTier) (string, error)
	// Embed returns one embedding vector per input text
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Warm resolves the configured models once so the first request is not the one that fails
	Warm(ctx context.Context) error
	// Warmed reports whether Warm has succeeded
	Warmed() bool
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// Generator is the single call convention used by the scorer and retrieval.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// TierGenerator binds a Client to one model tier.
type TierGenerator struct {
	Client Client
	Tier   ModelTier
}

// Generate sends prompt to the bound tier.
func (g TierGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Client == nil {
		return "", fmt.Errorf("llm client is not configured")
	}
	return g.Client.GenerateContent(ctx, prompt, g.Tier)
}

// Embedder produces vectors for texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGenAI:
		return NewGenAIClient(ctx, config, apiKey)
	case ProviderGenerativeAI, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}
}

// warmState tracks the one-time warm-up shared by both clients.
type warmState struct {
	mu   sync.Mutex
	done bool
}

func (w *warmState) warm(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	w.done = true
	return nil
}

func (w *warmState) warmed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// tiers lists every tier resolved during warm-up.
var tiers = []ModelTier{TierLite, TierStandard, TierAdvanced}
