// Package scoring turns a transcribed answer into a score and, when the answer
// is weak or a clarification request, an explanation.
package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/jonathan/interview-screener/internal/prompts"
)

// Path names the branch that produced a score.
type Path string

const (
	PathEmpty     Path = "empty"
	PathExplain   Path = "explain"
	PathModel     Path = "model"
	PathHeuristic Path = "heuristic"
	PathFailure   Path = "failure"
)

// NoAnswerExplanation accompanies the score of an empty transcript.
const NoAnswerExplanation = "No answer detected."

// RemediationThreshold is the score below which coaching is generated.
const RemediationThreshold = 4.0

// DefaultRole is the retrieval role used for candidate resumes.
const DefaultRole = "candidate"

// Retriever answers a prompt grounded on a candidate's resume.
type Retriever interface {
	Query(ctx context.Context, candidateID, role, prompt string) (string, error)
}

// Result is the outcome of scoring one answer.
type Result struct {
	Score       float64
	Explanation string
	Path        Path
}

// Scorer evaluates answers. Model may be nil, in which case the heuristic
// is used. Retriever may be nil, in which case explanations come from Model
// without resume grounding.
type Scorer struct {
	Model     llm.Generator
	Retriever Retriever
	Role      string
	Retries   int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Score never fails: model, retrieval and panic failures all degrade to a
// defined result.
func (s *Scorer) Score(ctx context.Context, candidateID, question, transcript string) (res Result) {
	logger := observability.WithFields(s.Logger, observability.CandidateFields(candidateID)...)
	defer func() {
		if p := recover(); p != nil {
			res = Result{Score: 0, Explanation: fmt.Sprintf("Scoring failed: %v", p), Path: PathFailure}
		}
		logger.Info("answer scored",
			zap.String(observability.FieldScorePath, string(res.Path)),
			zap.Float64("score", res.Score),
			zap.Bool("explained", res.Explanation != ""),
		)
	}()

	answer := strings.TrimSpace(transcript)
	if answer == "" {
		return Result{Score: 0, Explanation: NoAnswerExplanation, Path: PathEmpty}
	}

	if IsExplainTrigger(answer) {
		prompt, err := prompts.Render(prompts.ScoringFile, prompts.KeyExplainQuestion, map[string]string{
			"Question": question,
		})
		if err != nil {
			return failure(err)
		}
		explanation, err := s.explain(ctx, candidateID, prompt)
		if err != nil {
			logger.Warn("explanation failed", zap.Error(err))
			return failure(err)
		}
		return Result{Score: 0, Explanation: explanation, Path: PathExplain}
	}

	score, path := s.modelScore(ctx, logger, question, answer)
	res = Result{Score: score, Path: path}

	if score < RemediationThreshold {
		prompt, err := prompts.Render(prompts.ScoringFile, prompts.KeyRemediation, map[string]string{
			"Question": question,
			"Answer":   answer,
		})
		if err != nil {
			return failure(err)
		}
		explanation, err := s.explain(ctx, candidateID, prompt)
		if err != nil {
			logger.Warn("remediation failed", zap.Error(err))
			return failure(err)
		}
		res.Explanation = explanation
	}
	return res
}

func failure(err error) Result {
	return Result{Score: 0, Explanation: fmt.Sprintf("Scoring failed: %v", err), Path: PathFailure}
}

// modelScore asks the model for a number, retrying on unusable output, and
// falls back to Heuristic when none is obtained.
func (s *Scorer) modelScore(ctx context.Context, logger *zap.Logger, question, answer string) (float64, Path) {
	if s.Model == nil {
		return Heuristic(answer), PathHeuristic
	}

	prompt, err := prompts.Render(prompts.ScoringFile, prompts.KeyScoreAnswer, map[string]string{
		"Question": question,
		"Answer":   answer,
	})
	if err != nil {
		logger.Warn("score prompt unavailable", zap.Error(err))
		return Heuristic(answer), PathHeuristic
	}

	retries := max(s.Retries, 0)
	for attempt := 0; attempt <= retries; attempt++ {
		text, err := s.generate(ctx, prompt)
		if err != nil {
			logger.Warn("scoring model call failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		if v, ok := ExtractScore(text); ok {
			return Round2(v), PathModel
		}
		logger.Debug("no score in model output",
			zap.Int("attempt", attempt+1),
			zap.String("output", observability.TruncateForLog(text, 80)),
		)
	}
	return Heuristic(answer), PathHeuristic
}

func (s *Scorer) generate(ctx context.Context, prompt string) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return s.Model.Generate(ctx, prompt)
}

func (s *Scorer) explain(ctx context.Context, candidateID, prompt string) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	if s.Retriever != nil {
		role := s.Role
		if role == "" {
			role = DefaultRole
		}
		return s.Retriever.Query(ctx, candidateID, role, prompt)
	}
	if s.Model != nil {
		text, err := s.Model.Generate(ctx, prompt)
		return strings.TrimSpace(text), err
	}
	return "", fmt.Errorf("no retriever or model configured for explanations")
}
