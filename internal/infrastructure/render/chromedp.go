package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"LinkSentry/internal/ports"
)

const settleDelay = 2 * time.Second

// ChromeRenderer loads pages in headless Chrome so JS-hydrated and
// bot-challenged content can still be analyzed.
type ChromeRenderer struct {
	execPath  string
	userAgent string
	logger    *slog.Logger
}

var _ ports.Renderer = (*ChromeRenderer)(nil)

// NewChromeRenderer builds a renderer. execPath may be empty to use the
// Chrome found on PATH; set it in container deployments.
func NewChromeRenderer(execPath, userAgent string, logger *slog.Logger) *ChromeRenderer {
	return &ChromeRenderer{execPath: execPath, userAgent: userAgent, logger: logger}
}

// Render navigates to the URL and returns the page HTML after scripts have
// had a chance to run. The caller bounds the call with its own timeout
// context; browser teardown is tied to that same context.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
	)
	if r.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.userAgent))
	}
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	if r.logger != nil {
		r.logger.Debug("rendered page", "url", url, "bytes", len(html))
	}
	return html, nil
}
