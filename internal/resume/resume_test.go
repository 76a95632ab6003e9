package resume

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/interview-screener/internal/fetch"
	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blobFunc func(ctx context.Context, prompt, mimeType string, data []byte, tier llm.ModelTier) (string, error)

func (f blobFunc) GenerateFromBlob(ctx context.Context, prompt, mimeType string, data []byte, tier llm.ModelTier) (string, error) {
	return f(ctx, prompt, mimeType, data, tier)
}

type pageFunc func(ctx context.Context, url string) (*fetch.Page, error)

func (f pageFunc) Fetch(ctx context.Context, url string) (*fetch.Page, error) { return f(ctx, url) }

func TestCleanText(t *testing.T) {
	in := "# Jane   Doe\r\n\r\n\r\n\r\nBackend    engineer   \n  - Built   queues\n    indented   line\n"
	assert.Equal(t, "# Jane   Doe\n\nBackend engineer\n  - Built   queues\n    indented line", CleanText(in))
	assert.Equal(t, "", CleanText(" \n\t "))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("cv.PDF"))
	assert.True(t, IsSupported("cv.md"))
	assert.False(t, IsSupported("cv.docx"))
	assert.False(t, IsSupported("cv"))
}

func TestExtract_PDF(t *testing.T) {
	var mime string
	e := &Extractor{Model: blobFunc(func(_ context.Context, prompt, mimeType string, data []byte, tier llm.ModelTier) (string, error) {
		mime = mimeType
		assert.Equal(t, llm.TierLite, tier)
		assert.Contains(t, prompt, "resume")
		return "```text\nJane Doe\nGo, Postgres\n```", nil
	})}

	text, err := e.Extract(context.Background(), "cv.pdf", []byte("%PDF-1.7 ..."))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo, Postgres", text)
	assert.Equal(t, "application/pdf", mime)
}

func TestExtract_Text(t *testing.T) {
	text, err := (&Extractor{}).Extract(context.Background(), "cv.txt", []byte("Jane  Doe\n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", text)
}

func TestExtract_Rejections(t *testing.T) {
	e := &Extractor{}
	ctx := context.Background()

	_, err := e.Extract(ctx, "cv.docx", []byte("PK.."))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = e.Extract(ctx, "cv.pdf", []byte("not a pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = e.Extract(ctx, "cv.txt", []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = e.Extract(ctx, "cv.txt", []byte("   "))
	assert.ErrorIs(t, err, ErrEmptyResume)

	_, err = e.Extract(ctx, "cv.pdf", []byte("%PDF-1.4"))
	assert.ErrorContains(t, err, "llm client")
}

func TestExtract_PDFModelError(t *testing.T) {
	e := &Extractor{Model: blobFunc(func(context.Context, string, string, []byte, llm.ModelTier) (string, error) {
		return "", errors.New("file too large")
	})}
	_, err := e.Extract(context.Background(), "cv.pdf", []byte("%PDF-1.4"))
	assert.ErrorContains(t, err, "file too large")
}

func TestExtractURL(t *testing.T) {
	e := &Extractor{Pages: pageFunc(func(_ context.Context, url string) (*fetch.Page, error) {
		assert.Equal(t, "https://example.com/cv", url)
		return &fetch.Page{URL: url, Text: "Jane   Doe"}, nil
	})}
	text, err := e.ExtractURL(context.Background(), "https://example.com/cv")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", text)

	_, err = (&Extractor{}).ExtractURL(context.Background(), "https://example.com/cv")
	assert.Error(t, err)
}

func TestExtractURL_LinkedPDF(t *testing.T) {
	e := &Extractor{
		Model: blobFunc(func(_ context.Context, _, mimeType string, data []byte, _ llm.ModelTier) (string, error) {
			assert.Equal(t, "application/pdf", mimeType)
			assert.Equal(t, []byte("%PDF-1.4 cv"), data)
			return "Jane Doe", nil
		}),
		Pages: pageFunc(func(_ context.Context, url string) (*fetch.Page, error) {
			return &fetch.Page{URL: url, PDF: []byte("%PDF-1.4 cv")}, nil
		}),
	}

	text, err := e.ExtractURL(context.Background(), "https://example.com/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", text)
}

func TestExtractURL_FetchError(t *testing.T) {
	e := &Extractor{Pages: pageFunc(func(_ context.Context, url string) (*fetch.Page, error) {
		return nil, &fetch.Error{URL: url, Message: "HTTP status 404"}
	})}

	_, err := e.ExtractURL(context.Background(), "https://example.com/cv")
	var fetchErr *fetch.Error
	assert.ErrorAs(t, err, &fetchErr)
}
