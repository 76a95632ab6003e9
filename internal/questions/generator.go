// Package questions supplies the interview question set for a candidate.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/jonathan/interview-screener/internal/prompts"
)

// MaxResumeChars bounds the resume text sent to the model.
const MaxResumeChars = 4000

// ErrNoQuestions is returned when the model output contains no usable question.
var ErrNoQuestions = errors.New("model returned no usable questions")

// Source produces questions for a candidate.
type Source interface {
	Generate(ctx context.Context, candidateID, resumeText string, count int) ([]string, error)
}

// Generator asks a language model for resume-grounded questions.
type Generator struct {
	Model  llm.Generator
	Logger *zap.Logger
}

// Generate returns up to count questions.
func (g *Generator) Generate(ctx context.Context, candidateID, resumeText string, count int) ([]string, error) {
	if g.Model == nil {
		return nil, fmt.Errorf("question model is not configured")
	}
	if count < 1 {
		return nil, fmt.Errorf("question count must be at least 1, got %d", count)
	}

	snippet := resumeText
	if r := []rune(snippet); len(r) > MaxResumeChars {
		snippet = string(r[:MaxResumeChars])
	}

	prompt, err := prompts.Render(prompts.QuestionsFile, prompts.KeyGenerateQuestions, map[string]string{
		"Resume": snippet,
		"Count":  strconv.Itoa(count),
	})
	if err != nil {
		return nil, err
	}

	raw, err := g.Model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	qs := ParseQuestions(llm.CleanText(raw), count)
	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}

	observability.WithFields(g.Logger, observability.CandidateFields(candidateID)...).
		Info("questions generated", zap.Int("count", len(qs)))
	return qs, nil
}

// WithFallback returns generated questions, or Fallback(count) when src fails.
func WithFallback(ctx context.Context, src Source, logger *zap.Logger, candidateID, resumeText string, count int) []string {
	if src != nil {
		qs, err := src.Generate(ctx, candidateID, resumeText, count)
		if err == nil && len(qs) > 0 {
			return qs
		}
		observability.WithFields(logger, observability.CandidateFields(candidateID)...).
			Warn("using fallback questions", zap.Error(err))
	}
	return Fallback(count)
}
