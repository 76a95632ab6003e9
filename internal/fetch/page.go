package fetch

import (
	"context"

	"go.uber.org/zap"
)

// Page is a fetched resume. Exactly one of Text and PDF is set.
type Page struct {
	URL  string
	Text string
	PDF  []byte
}

// Fetcher reads resume links, optionally re-rendering script-heavy pages in a browser.
type Fetcher struct {
	Options    *Options
	UseBrowser bool
	Browser    Renderer
	Logger     *zap.Logger
}

// Fetch downloads urlStr. PDFs are returned as bytes for the caller to
// extract; HTML and plain text are reduced to their main text.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Page, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	platform := DetectPlatform(urlStr)
	target := NormalizeURL(urlStr)

	resp, err := Get(ctx, target, f.Options)
	if err != nil {
		return nil, err
	}
	logger.Debug("fetched resume link",
		zap.String("url", target),
		zap.String("platform", string(platform)),
		zap.String("content_type", resp.ContentType),
		zap.Int("bytes", len(resp.Body)),
	)

	if resp.IsPDF() {
		return &Page{URL: target, PDF: resp.Body}, nil
	}

	var text string
	if resp.IsPlainText() {
		text = collapseLines(string(resp.Body))
	} else {
		sel := SelectorsFor(platform)
		text, err = MainText(string(resp.Body), sel)
		if err != nil {
			return nil, &Error{URL: urlStr, Message: "content extraction failed", Cause: err}
		}
		if f.UseBrowser && f.Browser != nil && IsSparse(text) {
			text = f.render(ctx, logger, target, sel, text)
		}
	}

	if text == "" {
		return nil, &Error{URL: urlStr, Message: "page has no text content"}
	}
	return &Page{URL: target, Text: text}, nil
}

// render returns the browser-rendered text, or fallback when rendering fails.
func (f *Fetcher) render(ctx context.Context, logger *zap.Logger, target string, sel Selectors, fallback string) string {
	logger.Debug("content too short, rendering in browser",
		zap.Int("chars", len(fallback)), zap.Int("min", SparseTextChars))

	html, err := f.Browser.Render(ctx, target)
	if err != nil {
		logger.Warn("browser rendering failed, using HTTP content", zap.Error(err))
		return fallback
	}
	rendered, err := MainText(html, sel)
	if err != nil || rendered == "" {
		return fallback
	}
	return rendered
}
