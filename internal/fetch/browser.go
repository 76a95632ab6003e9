package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// SparseTextChars is the extracted length below which a page is treated as
// script-rendered and handed to the browser.
const SparseTextChars = 500

// settleDelay gives portfolio sites time to hydrate after the load event.
const settleDelay = 2 * time.Second

// IsSparse reports whether text is too short to be a rendered resume page.
func IsSparse(text string) bool {
	return len(strings.TrimSpace(text)) < SparseTextChars
}

// Renderer returns the HTML of a page after scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeRenderer renders pages in headless Chrome. Chrome or Chromium must
// be installed on the host.
type ChromeRenderer struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

var chromeFlags = []chromedp.ExecAllocatorOption{
	chromedp.Flag("headless", true),
	chromedp.Flag("disable-gpu", true),
	chromedp.Flag("no-sandbox", true),
	chromedp.Flag("disable-dev-shm-usage", true),
}

func (r *ChromeRenderer) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Render navigates to url and returns the rendered document.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r.log().Debug("rendering resume link in chrome", zap.String("url", url), zap.Duration("timeout", timeout))

	opts := append(append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...), chromeFlags...)
	allocCtx, stopAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer stopAlloc()

	tabCtx, closeTab := chromedp.NewContext(allocCtx)
	defer closeTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var doc string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &doc),
	); err != nil {
		return "", &Error{URL: url, Message: "browser render failed", Cause: err}
	}

	r.log().Debug("rendered resume link", zap.String("url", url), zap.Int("bytes", len(doc)))
	return doc, nil
}

