package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEmptyUpload is returned when the uploaded recording has no bytes.
var ErrEmptyUpload = errors.New("audio upload is empty")

// ConversionError reports that a recording could not be normalized.
// No answer is recorded for it, so the same upload can be retried.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("audio conversion failed: %v. Ensure ffmpeg is installed and on PATH", e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Ingestor writes uploads under Dir/{candidate}/ and converts them.
type Ingestor struct {
	Dir       string
	Converter Converter
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewIngestor creates an Ingestor rooted at dir.
func NewIngestor(dir string, converter Converter, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{Dir: dir, Converter: converter, Logger: logger, Now: time.Now}
}

func rawExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 6 || strings.ContainsAny(ext, `/\`) {
		return ".webm"
	}
	return ext
}

// Ingest stores r as a raw file, converts it to a normalized WAV and returns
// the WAV path. The raw file is removed whether or not conversion succeeds.
func (in *Ingestor) Ingest(ctx context.Context, candidateID string, r io.Reader, filename string) (string, error) {
	if candidateID == "" || candidateID != filepath.Base(candidateID) || candidateID == ".." {
		return "", fmt.Errorf("invalid candidate id %q", candidateID)
	}

	dir := filepath.Join(in.Dir, candidateID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio dir: %w", err)
	}

	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	ts := now().UnixMilli()
	rawPath := filepath.Join(dir, fmt.Sprintf("answer_raw_%d%s", ts, rawExtension(filename)))
	wavPath := filepath.Join(dir, fmt.Sprintf("answer_%d.wav", ts))

	defer func() {
		if err := os.Remove(rawPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			in.Logger.Warn("failed to remove raw audio", zap.String("path", rawPath), zap.Error(err))
		}
	}()

	n, err := writeFile(rawPath, r)
	if err != nil {
		return "", fmt.Errorf("failed to save audio: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyUpload
	}

	if err := in.Converter.Convert(ctx, rawPath, wavPath); err != nil {
		_ = os.Remove(wavPath)
		return "", &ConversionError{Err: err}
	}

	in.Logger.Debug("audio converted",
		zap.String("candidate_id", candidateID),
		zap.String("wav", wavPath),
		zap.Int64("raw_bytes", n),
	)
	return wavPath, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
