package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"LinkSentry/internal/domain"
	"LinkSentry/internal/ports"
)

const (
	defaultFetchTimeout  = 10 * time.Second
	defaultRenderTimeout = 15 * time.Second
	maxRedirects         = 10
	maxBodyBytes         = 2 << 20 // 2 MB

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9"

	// Bodies shorter than this after trimming are treated as insufficient
	// and routed through the render fallback.
	minBodyLength = 50
)

// challengeMarkers flag bot-challenge interstitials that require a real
// browser to pass.
var challengeMarkers = []string{"cloudflare", "attention required"}

// Fetcher retrieves page content with a direct HTTP fetch and falls back to a
// browser render when the direct result looks insufficient. It never returns
// an error: every failure mode degrades into the result fields so downstream
// analysis always has something to work with.
type Fetcher struct {
	transport     http.RoundTripper
	renderer      ports.Renderer
	limiter       *rate.Limiter
	logger        *slog.Logger
	fetchTimeout  time.Duration
	renderTimeout time.Duration
}

var _ ports.ContentFetcher = (*Fetcher)(nil)

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithTransport overrides the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) { f.transport = rt }
}

// WithRateLimit bounds outbound request rate across all concurrent runs.
// Zero or negative rps disables limiting.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeouts overrides the direct-fetch and render timeouts.
func WithTimeouts(fetch, render time.Duration) Option {
	return func(f *Fetcher) {
		if fetch > 0 {
			f.fetchTimeout = fetch
		}
		if render > 0 {
			f.renderTimeout = render
		}
	}
}

// WithLogger attaches a logger for degraded-mode events.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New builds a Fetcher. The renderer may be nil, in which case the fallback
// step is skipped and the direct result is used as-is.
func New(renderer ports.Renderer, opts ...Option) *Fetcher {
	f := &Fetcher{
		transport:     http.DefaultTransport,
		renderer:      renderer,
		fetchTimeout:  defaultFetchTimeout,
		renderTimeout: defaultRenderTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the URL's content. The fallback decision is evaluated
// exactly once; rendered output is never re-examined for sufficiency.
func (f *Fetcher) Fetch(ctx context.Context, url string) domain.FetchResult {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return domain.FetchResult{}
		}
	}

	result := f.direct(ctx, url)

	if !renderRequired(result) {
		return result
	}

	result.Rendered = true
	if f.renderer == nil {
		return result
	}

	rctx, cancel := context.WithTimeout(ctx, f.renderTimeout)
	defer cancel()

	html, err := f.renderer.Render(rctx, url)
	if err != nil {
		f.warn("render fallback failed", "url", url, "error", err)
		// Degraded mode: downstream analysis sees the error text instead of
		// the run aborting.
		result.HTML = fmt.Sprintf("[render error: %v]", err)
		return result
	}

	result.HTML = html
	return result
}

// direct performs the fast-path HTTP fetch with browser-like headers.
// Complete failure collapses to a zero result rather than an error.
func (f *Fetcher) direct(ctx context.Context, url string) domain.FetchResult {
	redirects := 0
	client := &http.Client{
		Transport: f.transport,
		Timeout:   f.fetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			redirects = len(via)
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.FetchResult{}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := client.Do(req)
	if err != nil {
		f.warn("direct fetch failed", "url", url, "error", err)
		return domain.FetchResult{}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.warn("read body failed", "url", url, "error", err)
		body = nil
	}

	return domain.FetchResult{
		HTML:       string(body),
		StatusCode: resp.StatusCode,
		Redirects:  redirects,
	}
}

// renderRequired decides whether the direct result is insufficient: blocking
// status codes, bot-challenge markers, or a near-empty body.
func renderRequired(result domain.FetchResult) bool {
	if result.StatusCode == http.StatusForbidden || result.StatusCode == http.StatusServiceUnavailable {
		return true
	}

	lower := strings.ToLower(result.HTML)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return len(strings.TrimSpace(result.HTML)) < minBodyLength
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
