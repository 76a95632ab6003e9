// Package transcribe turns normalized answer recordings into text.
package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Transcriber converts a 16 kHz mono WAV file into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Func adapts a function to Transcriber.
type Func func(ctx context.Context, wavPath string) (string, error)

// Transcribe calls f.
func (f Func) Transcribe(ctx context.Context, wavPath string) (string, error) {
	return f(ctx, wavPath)
}

// Nop always returns an empty transcript.
type Nop struct{}

// Transcribe returns "".
func (Nop) Transcribe(context.Context, string) (string, error) { return "", nil }

// Resilient wraps a Transcriber so that it never fails: errors, panics and
// timeouts all become an empty transcript.
type Resilient struct {
	Inner   Transcriber
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewResilient wraps inner with the given timeout.
func NewResilient(inner Transcriber, timeout time.Duration, logger *zap.Logger) *Resilient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resilient{Inner: inner, Timeout: timeout, Logger: logger}
}

// Transcribe returns the trimmed transcript, or "" when the inner call fails.
// The returned error is always nil.
func (r *Resilient) Transcribe(ctx context.Context, wavPath string) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if r.Inner == nil {
		return "", nil
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("transcriber panicked: %v", p)}
			}
		}()
		text, err := r.Inner.Transcribe(ctx, wavPath)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			logger.Warn("transcription failed, treating as silence",
				zap.String("wav", wavPath), zap.Error(res.err))
			return "", nil
		}
		return strings.TrimSpace(res.text), nil
	case <-ctx.Done():
		logger.Warn("transcription timed out, treating as silence",
			zap.String("wav", wavPath), zap.Error(ctx.Err()))
		return "", nil
	}
}
