package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-screener/internal/llm"
)

const (
	embedBatchSize   = 16
	embedConcurrency = 4
)

// Builder chunks and embeds resume text into a FileStore.
type Builder struct {
	Embedder   llm.Embedder
	Store      *FileStore
	ChunkWords int
	Model      string
	Logger     *zap.Logger
}

// Build replaces the index for candidateID and role with one built from text.
func (b *Builder) Build(ctx context.Context, candidateID, role, text string) (*Index, error) {
	if b.Embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	chunks := ChunkText(text, b.ChunkWords)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no resume text to index")
	}

	vectors := make([][]float32, len(chunks))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		g.Go(func() error {
			out, err := b.Embedder.Embed(gCtx, chunks[start:end])
			if err != nil {
				return fmt.Errorf("embedding chunks %d-%d failed: %w", start, end-1, err)
			}
			if len(out) != end-start {
				return fmt.Errorf("embedder returned %d vectors for %d chunks", len(out), end-start)
			}
			// batches write disjoint ranges
			copy(vectors[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &Index{
		Version:     IndexVersion,
		CandidateID: candidateID,
		Role:        role,
		Model:       b.Model,
		CreatedAt:   time.Now().UTC(),
		Chunks:      make([]Chunk, len(chunks)),
	}
	for i := range chunks {
		idx.Chunks[i] = Chunk{Text: chunks[i], Vector: vectors[i]}
	}

	if err := b.Store.Save(idx); err != nil {
		return nil, err
	}

	if b.Logger != nil {
		b.Logger.Info("retrieval index built",
			zap.String("candidate_id", candidateID),
			zap.String("role", role),
			zap.Int("chunks", len(chunks)),
		)
	}
	return idx, nil
}
