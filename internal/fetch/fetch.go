// Package fetch retrieves resume pages by URL and reduces them to text.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultTimeout bounds one HTTP request.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies the screener to resume hosts.
	DefaultUserAgent = "Mozilla/5.0 (compatible; InterviewScreener/1.0)"
	// MaxBodyBytes is the largest document accepted.
	MaxBodyBytes = 5 << 20
)

// Error describes a resume link that could not be read.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Response is a downloaded document.
type Response struct {
	URL         string
	Body        []byte
	ContentType string
}

func (r *Response) mediaType() string {
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(r.ContentType))
	}
	return mt
}

// IsPDF reports whether the body is a PDF, by header or by magic bytes.
func (r *Response) IsPDF() bool {
	return r.mediaType() == "application/pdf" || bytes.HasPrefix(r.Body, []byte("%PDF-"))
}

// IsPlainText reports whether the body is served as text/plain.
func (r *Response) IsPlainText() bool {
	return r.mediaType() == "text/plain"
}

// Get downloads urlStr. Only http and https links are followed. Bodies over
// MaxBodyBytes are rejected instead of truncated.
func Get(ctx context.Context, urlStr string, opts *Options) (*Response, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	u, err := url.Parse(urlStr)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &Error{URL: urlStr, Message: "resume link must be an http or https URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html, text/plain, application/pdf;q=0.9, */*;q=0.5")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := (&http.Client{Timeout: opts.Timeout}).Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	if len(body) > MaxBodyBytes {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("document is larger than %d MiB", MaxBodyBytes>>20)}
	}

	return &Response{URL: urlStr, Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

// baseNoise is removed from every page before content is located.
const baseNoise = "nav, footer, header, script, style, noscript, iframe, svg, .ad, .ads, .sidebar, .popup"

// Selectors locate a page's main content. Noise is removed first; the first
// Content selector that matches wins, otherwise the whole body is used.
type Selectors struct {
	Content []string
	Noise   []string
}

// MainText returns the visible text of html as trimmed, non-empty lines.
func MainText(html string, sel Selectors) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(baseNoise).Remove()
	if len(sel.Noise) > 0 {
		doc.Find(strings.Join(sel.Noise, ", ")).Remove()
	}

	root := doc.Find("body")
	for _, s := range sel.Content {
		if found := doc.Find(s); found.Length() > 0 {
			root = found.First()
			break
		}
	}

	// Block elements are separated so their text does not run together.
	root.Find("p, li, h1, h2, h3, h4, h5, h6, div, section, tr, br").Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})
	return collapseLines(root.Text()), nil
}

// collapseLines trims every line and drops blank ones.
func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
