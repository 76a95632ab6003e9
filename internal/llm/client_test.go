package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLMClient implements Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return "{}", nil
}

func (m *MockLLMClient) GenerateFromBlob(ctx context.Context, prompt, mimeType string, data []byte, tier ModelTier) (string, error) {
	return "", nil
}

func (m *MockLLMClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *MockLLMClient) Warm(ctx context.Context) error { return nil }
func (m *MockLLMClient) Warmed() bool { return true }
func (m *MockLLMClient) GetModel(tier ModelTier) string { return "mock-model" }
func (m *MockLLMClient) Close() error { return nil }

func TestTierGenerator(t *testing.T) {
	var gotTier ModelTier
	client := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, prompt string, tier ModelTier) (string, error) {
			gotTier = tier
			return "echo: " + prompt, nil
		},
	}

	out, err := TierGenerator{Client: client, Tier: TierStandard}.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
	assert.Equal(t, TierStandard, gotTier)
}

func TestTierGenerator_NilClient(t *testing.T) {
	_, err := TierGenerator{}.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestGeneratorFunc(t *testing.T) {
	g := GeneratorFunc(func(context.Context, string) (string, error) { return "7", nil })
	out, err := g.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "7", out)
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient(context.Background(), &Config{Provider: "openai"}, "key")
	assert.Error(t, err)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), DefaultConfig(), "")
	assert.Error(t, err)
}

func TestNewGenAIClient_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderGenAI

	_, err := NewGenAIClient(context.Background(), cfg, "  ")
	assert.Error(t, err)

	cfg.Backend = BackendVertex
	_, err = NewGenAIClient(context.Background(), cfg, "")
	assert.Error(t, err)
}

func TestWarmState(t *testing.T) {
	var w warmState
	calls := 0

	err := w.warm(func() error { calls++; return errors.New("unavailable") })
	assert.Error(t, err)
	assert.False(t, w.warmed())

	require.NoError(t, w.warm(func() error { calls++; return nil }))
	require.NoError(t, w.warm(func() error { calls++; return nil }))
	assert.True(t, w.warmed())
	assert.Equal(t, 2, calls, "warm-up runs until it first succeeds")
}
