// Package llm provides language model configuration and client abstractions.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: transcription, text extraction
	TierLite ModelTier = "lite"
	// TierStandard is for scoring and grounded explanations
	TierStandard ModelTier = "standard"
	// TierAdvanced is for question generation
	TierAdvanced ModelTier = "advanced"
)

// Provider names the SDK used to reach Gemini
type Provider string

const (
	// ProviderGenerativeAI uses github.com/google/generative-ai-go
	ProviderGenerativeAI Provider = "generative-ai"
	// ProviderGenAI uses google.golang.org/genai (Gemini API or Vertex AI)
	ProviderGenAI Provider = "genai"
)

// Backend values for ProviderGenAI
const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

// Config holds the model configuration for the application
type Config struct {
	Provider       Provider
	Models         map[ModelTier]string
	EmbeddingModel string

	// Backend, Project and Location only apply to ProviderGenAI.
	Backend  string
	Project  string
	Location string
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGenerativeAI,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		EmbeddingModel: "text-embedding-004",
		Backend:        BackendGemini,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok && model != "" {
		return model
	}
	if model, ok := c.Models[TierLite]; ok && model != "" {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}
