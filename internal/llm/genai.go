package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genaisdk "google.golang.org/genai"
)

// GenAIClient implements Client on google.golang.org/genai, reaching either
// the Gemini API or Vertex AI.
type GenAIClient struct {
	client *genaisdk.Client
	config *Config
	warm   warmState
}

var _ Client = (*GenAIClient)(nil)

// NewGenAIClient creates a client for the backend named in config.
func NewGenAIClient(ctx context.Context, config *Config, apiKey string) (*GenAIClient, error) {
	cc := &genaisdk.ClientConfig{}
	switch config.Backend {
	case BackendVertex:
		if config.Project == "" || config.Location == "" {
			return nil, errors.New("vertex backend requires project and location")
		}
		cc.Backend = genaisdk.BackendVertexAI
		cc.Project = config.Project
		cc.Location = config.Location
	default:
		apiKey = strings.TrimSpace(apiKey)
		if apiKey == "" {
			return nil, errors.New("gemini api key is required")
		}
		cc.Backend = genaisdk.BackendGeminiAPI
		cc.APIKey = apiKey
	}

	client, err := genaisdk.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIClient{client: client, config: config}, nil
}

func (c *GenAIClient) generate(ctx context.Context, tier ModelTier, contents []*genaisdk.Content, mime string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("genai client is not initialized")
	}
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	cfg := &genaisdk.GenerateContentConfig{Temperature: genaisdk.Ptr[float32](0.1)}
	if mime != "" {
		cfg.ResponseMIMEType = mime
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
		break
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("genai returned empty response")
	}
	return output, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, tier, genaisdk.Text(prompt), "")
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, tier, genaisdk.Text(prompt), "application/json")
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GenerateFromBlob sends the prompt together with inline binary data
func (c *GenAIClient) GenerateFromBlob(ctx context.Context, prompt, mimeType string, data []byte, tier ModelTier) (string, error) {
	if len(data) == 0 {
		return "", errors.New("blob is empty")
	}
	content := genaisdk.NewContentFromParts([]*genaisdk.Part{
		genaisdk.NewPartFromBytes(data, mimeType),
		genaisdk.NewPartFromText(prompt),
	}, genaisdk.RoleUser)
	return c.generate(ctx, tier, []*genaisdk.Content{content}, "")
}

// Embed returns one vector per text using the configured embedding model
func (c *GenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.config.EmbeddingModel == "" {
		return nil, errors.New("no embedding model configured")
	}

	contents := make([]*genaisdk.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genaisdk.NewContentFromText(text, genaisdk.RoleUser))
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.config.EmbeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Warm looks up every configured model once
func (c *GenAIClient) Warm(ctx context.Context) error {
	return c.warm.warm(func() error {
		seen := map[string]bool{}
		for _, tier := range tiers {
			name := c.config.GetModel(tier)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if _, err := c.client.Models.Get(ctx, name, nil); err != nil {
				return fmt.Errorf("warm model %s: %w", name, err)
			}
		}
		return nil
	})
}

// Warmed reports whether Warm has succeeded
func (c *GenAIClient) Warmed() bool {
	return c.warm.warmed()
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the genai SDK holds no closable resources.
func (c *GenAIClient) Close() error {
	return nil
}
