package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/jonathan/interview-screener/internal/prompts"
)

// DefaultTopK is the number of chunks retrieved when none is configured.
const DefaultTopK = 3

// Querier answers prompts grounded on a candidate's resume index.
type Querier struct {
	Store     *FileStore
	Embedder  llm.Embedder
	Generator llm.Generator
	TopK      int
	Logger    *zap.Logger
}

// ScoredChunk is a chunk with its similarity to the query.
type ScoredChunk struct {
	Text       string
	Similarity float64
}

// Query embeds prompt, picks the TopK closest chunks and asks the model to
// answer using them. A missing index surfaces as ErrIndexNotFound.
func (q *Querier) Query(ctx context.Context, candidateID, role, prompt string) (string, error) {
	idx, err := q.Store.Load(role, candidateID)
	if err != nil {
		return "", err
	}
	if q.Embedder == nil || q.Generator == nil {
		return "", fmt.Errorf("retrieval querier is not fully configured")
	}

	vectors, err := q.Embedder.Embed(ctx, []string{prompt})
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("embedder returned %d vectors for 1 query", len(vectors))
	}

	topK := q.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	top := TopChunks(idx, vectors[0], topK)

	texts := make([]string, len(top))
	for i, c := range top {
		texts[i] = c.Text
	}
	grounded, err := prompts.Render(prompts.RetrievalFile, prompts.KeyGroundedAnswer, map[string]string{
		"Context": strings.Join(texts, "\n\n"),
		"Prompt":  prompt,
	})
	if err != nil {
		return "", err
	}

	logger := observability.WithFields(q.Logger, observability.CandidateFields(candidateID)...)
	logger.Debug("grounded query",
		zap.Int("chunks", len(top)),
		zap.String("prompt", observability.TruncateForLog(prompt, 120)),
	)

	answer, err := q.Generator.Generate(ctx, grounded)
	if err != nil {
		return "", fmt.Errorf("grounded generation failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// TopChunks returns the k chunks most similar to query, best first.
func TopChunks(idx *Index, query []float32, k int) []ScoredChunk {
	scored := make([]ScoredChunk, len(idx.Chunks))
	for i, c := range idx.Chunks {
		scored[i] = ScoredChunk{Text: c.Text, Similarity: Cosine(query, c.Vector)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

// Cosine returns the cosine similarity of a and b, or 0 when they differ in
// length or either is a zero vector.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
