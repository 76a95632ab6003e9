// Package resume turns uploaded resumes and resume URLs into plain text.
package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/interview-screener/internal/fetch"
	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/jonathan/interview-screener/internal/prompts"
)

var (
	// ErrUnsupportedType is returned for files that are not PDF, TXT or MD.
	ErrUnsupportedType = errors.New("unsupported resume file type")
	// ErrEmptyResume is returned when no text could be extracted.
	ErrEmptyResume = errors.New("resume contains no readable text")
)

var pdfMagic = []byte("%PDF-")

// BlobGenerator is the part of llm.Client used to read PDFs.
type BlobGenerator interface {
	GenerateFromBlob(ctx context.Context, prompt, mimeType string, data []byte, tier llm.ModelTier) (string, error)
}

// PageFetcher downloads a resume link.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Extractor reads resumes. Model is needed for PDFs, Pages for URLs.
type Extractor struct {
	Model BlobGenerator
	Pages PageFetcher
}

// IsSupported reports whether filename has an accepted extension.
func IsSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// Extract returns the cleaned text of an uploaded resume file.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	switch {
	case ext == ".pdf":
		if !bytes.HasPrefix(data, pdfMagic) {
			return "", fmt.Errorf("%w: %s is not a PDF document", ErrUnsupportedType, filename)
		}
		t, err := e.extractPDF(ctx, data)
		if err != nil {
			return "", err
		}
		text = t
	case ext == ".txt" || ext == ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not UTF-8 text", ErrUnsupportedType, filename)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	text = CleanText(text)
	if text == "" {
		return "", ErrEmptyResume
	}
	return text, nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	if e.Model == nil {
		return "", fmt.Errorf("pdf extraction requires an llm client")
	}
	prompt, err := prompts.Get(prompts.ResumeFile, prompts.KeyExtractResume)
	if err != nil {
		return "", err
	}
	out, err := e.Model.GenerateFromBlob(ctx, prompt, "application/pdf", data, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("pdf extraction failed: %w", err)
	}
	return llm.CleanText(out), nil
}

// ExtractURL fetches a resume link and returns its cleaned text. Linked PDFs
// go through the same extraction as uploaded ones.
func (e *Extractor) ExtractURL(ctx context.Context, url string) (string, error) {
	if e.Pages == nil {
		return "", fmt.Errorf("resume url fetching is not configured")
	}
	page, err := e.Pages.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if page.PDF != nil {
		return e.Extract(ctx, "linked.pdf", page.PDF)
	}
	text := CleanText(page.Text)
	if text == "" {
		return "", ErrEmptyResume
	}
	return text, nil
}
