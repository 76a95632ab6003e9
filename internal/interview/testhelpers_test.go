package interview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jonathan/interview-screener/internal/audio"
	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/jonathan/interview-screener/internal/retrieval"
	"github.com/jonathan/interview-screener/internal/scoring"
	"github.com/jonathan/interview-screener/internal/transcribe"
	"github.com/stretchr/testify/require"
)

// scriptedTranscriber returns the next transcript from a queue; the wav
// content itself is used when the queue is empty.
type scriptedTranscriber struct {
	mu    sync.Mutex
	queue []string
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, wavPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		return next, nil
	}
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), "RIFF"), nil
}

// switchableConverter copies the upload with a RIFF prefix, or fails while failing is set.
type switchableConverter struct {
	mu      sync.Mutex
	failing bool
	calls   int
}

func (c *switchableConverter) setFailing(v bool) {
	c.mu.Lock()
	c.failing = v
	c.mu.Unlock()
}

func (c *switchableConverter) Convert(_ context.Context, src, dst string) error {
	c.mu.Lock()
	c.calls++
	failing := c.failing
	c.mu.Unlock()
	if failing {
		return errors.New("invalid data found when processing input")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, append([]byte("RIFF"), data...), 0o644)
}

type fixedQuestions []string

func (f fixedQuestions) Generate(context.Context, string, string, int) ([]string, error) {
	if len(f) == 0 {
		return nil, errors.New("generation failed")
	}
	return f, nil
}

type failingIndexer struct{ calls int }

func (f *failingIndexer) Build(context.Context, string, string, string) (*retrieval.Index, error) {
	f.calls++
	return nil, errors.New("embedding quota exceeded")
}

type harness struct {
	svc         *Service
	store       *db.SQLiteDB
	sessions    *Sessions
	converter   *switchableConverter
	transcriber *scriptedTranscriber
	modelCalls  *int
}

type harnessOpts struct {
	questions   []string
	model       llm.Generator
	resumeScore *float64
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()

	store, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "screener.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	conv := &switchableConverter{}
	tr := &scriptedTranscriber{}
	sessions := NewSessions(DefaultSessionTTL)

	calls := 0
	model := opts.model
	if model == nil {
		model = llm.GeneratorFunc(func(context.Context, string) (string, error) {
			calls++
			return "", errors.New("model unavailable")
		})
	}

	svc, err := NewService(Deps{
		Store:       store,
		Sessions:    sessions,
		Questions:   fixedQuestions(opts.questions),
		Ingestor:    audio.NewIngestor(t.TempDir(), conv, nil),
		Transcriber: transcribe.NewResilient(tr, 0, nil),
		Scorer:      &scoring.Scorer{Model: model, Retries: 1},
		Archiver:    audio.DiscardArchiver{},
		ResumeScore: opts.resumeScore,
	})
	require.NoError(t, err)

	return &harness{svc: svc, store: store, sessions: sessions, converter: conv, transcriber: tr, modelCalls: &calls}
}

func (h *harness) start(t *testing.T) string {
	t.Helper()
	started, err := h.svc.Start(context.Background(), StartInput{Email: "cand@example.com", ResumeText: "Go engineer"})
	require.NoError(t, err)
	return started.CandidateID
}

func (h *harness) submit(t *testing.T, id, spoken string) (*Outcome, error) {
	t.Helper()
	return h.svc.SubmitAnswer(context.Background(), id, strings.NewReader("audio:"+spoken), "answer.webm")
}

func (h *harness) answerCount(t *testing.T, id string) int {
	t.Helper()
	n, err := h.store.CountAnswers(context.Background(), id)
	require.NoError(t, err)
	return n
}
