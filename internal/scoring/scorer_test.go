package scoring

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingModel struct {
	calls   atomic.Int32
	replies []string
	err     error
	prompts []string
}

func (m *countingModel) Generate(_ context.Context, prompt string) (string, error) {
	n := int(m.calls.Add(1))
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	return m.replies[min(n-1, len(m.replies)-1)], nil
}

type fakeRetriever struct {
	calls  int
	role   string
	prompt string
	answer string
	err    error
}

func (r *fakeRetriever) Query(_ context.Context, _, role, prompt string) (string, error) {
	r.calls++
	r.role, r.prompt = role, prompt
	return r.answer, r.err
}

const question = "How would you design a rate limiter?"

func TestScore_EmptyTranscriptMakesNoCalls(t *testing.T) {
	model := &countingModel{replies: []string{"9"}}
	rag := &fakeRetriever{}
	s := &Scorer{Model: model, Retriever: rag}

	for _, transcript := range []string{"", "   ", "\n\t"} {
		res := s.Score(context.Background(), "c-1", question, transcript)
		assert.Equal(t, 0.0, res.Score)
		assert.Equal(t, NoAnswerExplanation, res.Explanation)
		assert.Equal(t, PathEmpty, res.Path)
	}
	assert.Zero(t, model.calls.Load())
	assert.Zero(t, rag.calls)
}

func TestScore_ExplainTriggerSkipsScoringModel(t *testing.T) {
	model := &countingModel{replies: []string{"9"}}
	rag := &fakeRetriever{answer: "It asks how to cap request rates."}
	s := &Scorer{Model: model, Retriever: rag}

	for _, transcript := range []string{"idk", "IDK", "Idk"} {
		res := s.Score(context.Background(), "c-1", question, transcript)
		assert.Equal(t, 0.0, res.Score)
		assert.Equal(t, PathExplain, res.Path)
		assert.Equal(t, "It asks how to cap request rates.", res.Explanation)
	}
	assert.Zero(t, model.calls.Load())
	assert.Equal(t, DefaultRole, rag.role)
	assert.Contains(t, rag.prompt, question)
	assert.Contains(t, rag.prompt, "simple terms")
}

func TestScore_ExplainPathDistinctInLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := &Scorer{
		Retriever: &fakeRetriever{answer: "restated"},
		Logger:    zap.New(core),
	}
	s.Score(context.Background(), "c-1", question, "no idea")
	s.Score(context.Background(), "c-1", question, "")

	entries := logs.FilterMessage("answer scored").All()
	require.Len(t, entries, 2)
	assert.Equal(t, string(PathExplain), entries[0].ContextMap()["score_path"])
	assert.Equal(t, string(PathEmpty), entries[1].ContextMap()["score_path"])
	assert.Equal(t, "c-1", entries[0].ContextMap()["candidate_id"])
}

func TestScore_ModelPath(t *testing.T) {
	model := &countingModel{replies: []string{"Score: 7.456"}}
	rag := &fakeRetriever{}
	s := &Scorer{Model: model, Retriever: rag, Retries: 1}

	res := s.Score(context.Background(), "c-1", question, "Token bucket per client key")
	assert.Equal(t, 7.46, res.Score)
	assert.Equal(t, PathModel, res.Path)
	assert.Empty(t, res.Explanation)
	assert.Equal(t, int32(1), model.calls.Load())
	assert.Zero(t, rag.calls)
	assert.Contains(t, model.prompts[0], "Answer: Token bucket per client key")
}

func TestScore_RetryThenSucceed(t *testing.T) {
	model := &countingModel{replies: []string{"I'd rate it highly", "6"}}
	s := &Scorer{Model: model, Retries: 1}

	res := s.Score(context.Background(), "c-1", question, "Token bucket")
	assert.Equal(t, 6.0, res.Score)
	assert.Equal(t, PathModel, res.Path)
	assert.Equal(t, int32(2), model.calls.Load())
}

func TestScore_MalformedOutputFallsBackToHeuristic(t *testing.T) {
	for _, reply := range []string{"excellent", "2024", "", "score is high"} {
		model := &countingModel{replies: []string{reply}}
		s := &Scorer{Model: model, Retries: 1}

		answer := "A sliding window counter in Redis"
		res := s.Score(context.Background(), "c-1", question, answer)
		assert.Equal(t, PathHeuristic, res.Path, reply)
		assert.Equal(t, Heuristic(answer), res.Score)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 10.0)
		assert.Equal(t, int32(2), model.calls.Load())
	}
}

func TestScore_ModelUnavailableUsesHeuristic(t *testing.T) {
	model := &countingModel{err: errors.New("503 service unavailable")}
	s := &Scorer{Model: model, Retries: 1}

	answer := "Because the architecture needed to scale quickly, I redesigned the whole caching tradeoff layer"
	res := s.Score(context.Background(), "c-1", question, answer)
	assert.Equal(t, 6.70, res.Score)
	assert.Equal(t, PathHeuristic, res.Path)
	assert.Empty(t, res.Explanation)
}

func TestScore_LowScoreRemediation(t *testing.T) {
	model := &countingModel{replies: []string{"2"}}
	rag := &fakeRetriever{answer: "Mention token buckets and per-key limits."}
	s := &Scorer{Model: model, Retriever: rag, Role: "backend"}

	res := s.Score(context.Background(), "c-1", question, "I would just block people")
	assert.Equal(t, 2.0, res.Score)
	assert.Equal(t, PathModel, res.Path)
	assert.Equal(t, "Mention token buckets and per-key limits.", res.Explanation)
	assert.Equal(t, 1, rag.calls)
	assert.Equal(t, "backend", rag.role)
	assert.Contains(t, rag.prompt, "I would just block people")
}

func TestScore_RemediationWithoutRetrieverUsesModel(t *testing.T) {
	model := &countingModel{replies: []string{"3", "  Cover burst handling.  "}}
	s := &Scorer{Model: model}

	res := s.Score(context.Background(), "c-1", question, "Use a counter")
	assert.Equal(t, 3.0, res.Score)
	assert.Equal(t, "Cover burst handling.", res.Explanation)
}

func TestScore_RetrievalFailureDegrades(t *testing.T) {
	model := &countingModel{replies: []string{"1"}}
	rag := &fakeRetriever{err: errors.New("retrieval index not found")}
	s := &Scorer{Model: model, Retriever: rag}

	res := s.Score(context.Background(), "c-1", question, "dunno really")
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, PathFailure, res.Path)
	assert.True(t, strings.HasPrefix(res.Explanation, "Scoring failed:"))
	assert.Contains(t, res.Explanation, "retrieval index not found")

	res = s.Score(context.Background(), "c-1", question, "idk")
	assert.Equal(t, PathFailure, res.Path)
	assert.Equal(t, 0.0, res.Score)
}

type panickingModel struct{}

func (panickingModel) Generate(context.Context, string) (string, error) { panic("tokenizer missing") }

func TestScore_PanicDegrades(t *testing.T) {
	s := &Scorer{Model: panickingModel{}}
	var res Result
	require.NotPanics(t, func() {
		res = s.Score(context.Background(), "c-1", question, "some answer")
	})
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, PathFailure, res.Path)
	assert.Contains(t, res.Explanation, "tokenizer missing")
}

type slowModel struct{}

func (slowModel) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestScore_TimeoutFallsBackToHeuristic(t *testing.T) {
	s := &Scorer{Model: slowModel{}, Timeout: 10 * time.Millisecond}

	res := s.Score(context.Background(), "c-1", question, "A token bucket")
	assert.Equal(t, PathHeuristic, res.Path)
	assert.Equal(t, Heuristic("A token bucket"), res.Score)
}

func TestScore_NoModelNoRetrieverExplainFails(t *testing.T) {
	res := (&Scorer{}).Score(context.Background(), "c-1", question, "explain")
	assert.Equal(t, PathFailure, res.Path)
	assert.Equal(t, 0.0, res.Score)
}
