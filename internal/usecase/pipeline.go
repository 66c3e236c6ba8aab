package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"LinkSentry/internal/domain"
	"LinkSentry/internal/ports"
)

const (
	noteKnownDomain      = "known domain"
	noteNoClassifier     = "classifier unavailable, cannot verify unknown domain"
	noteClassifierFailed = "classifier error: %v"
)

// PipelineDeps wires all collaborators into the trust-decision pipeline.
type PipelineDeps struct {
	Reputation ports.ReputationStore
	Fetcher    ports.ContentFetcher
	Analyzer   ports.ContentAnalyzer
	Classifier ports.Classifier
	Reviews    ports.ReviewLog
	Metrics    ports.MetricsSink
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Pipeline implements the URL trust decision: reputation short-circuit for
// known domains, otherwise fetch, analyze, classify, persist, and queue
// unsafe results for review. Collaborator failures degrade the result; they
// never surface to the caller.
type Pipeline struct {
	reputation ports.ReputationStore
	fetcher    ports.ContentFetcher
	analyzer   ports.ContentAnalyzer
	classifier ports.Classifier
	reviews    ports.ReviewLog
	metrics    ports.MetricsSink
	notifier   ports.Notifier
	logger     *slog.Logger

	// Concurrent checks of the same unknown domain collapse into one
	// fetch/classify round trip.
	group singleflight.Group
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		reputation: deps.Reputation,
		fetcher:    deps.Fetcher,
		analyzer:   deps.Analyzer,
		classifier: deps.Classifier,
		reviews:    deps.Reviews,
		metrics:    deps.Metrics,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// CheckURL decides whether rawURL is safe to visit. It always returns a
// well-formed result; every failure mode maps to a verdict plus a note.
func (p *Pipeline) CheckURL(ctx context.Context, rawURL string) domain.CheckResult {
	key := domain.Normalize(rawURL)

	if p.reputation != nil && key != "" {
		if verdict := p.reputation.Lookup(ctx, key); verdict.Known() {
			return domain.CheckResult{
				RawURL:  rawURL,
				Verdict: verdict,
				Note:    noteKnownDomain,
			}
		}
	}

	flightKey := key
	if flightKey == "" {
		flightKey = rawURL
	}

	shared, _, _ := p.group.Do(flightKey, func() (any, error) {
		return p.resolveUnknown(ctx, rawURL, key), nil
	})

	result := shared.(domain.CheckResult)
	result.RawURL = rawURL
	return result
}

// resolveUnknown runs the full pipeline for a domain the reputation store
// does not know: fetch, analyze, classify, persist, and log for review.
func (p *Pipeline) resolveUnknown(ctx context.Context, rawURL, key string) domain.CheckResult {
	url := domain.NormalizeURL(rawURL)

	var fetched domain.FetchResult
	if p.fetcher != nil {
		fetched = p.fetcher.Fetch(ctx, url)
	}

	analysis := domain.Analysis{URL: url}
	if p.analyzer != nil {
		analysis = p.analyzer.Analyze(url, fetched)
	}

	if p.classifier == nil {
		// Fail closed: an unknown domain that cannot be verified is unsafe.
		// The verdict is a precaution, not a classification, so it is not
		// persisted and no review is queued.
		return domain.CheckResult{
			RawURL:   rawURL,
			Verdict:  domain.VerdictUnsafe,
			Analysis: &analysis,
			Note:     noteNoClassifier,
		}
	}

	p.count("classifier_call", 1)
	verdict, llmOutput, err := p.classifier.Classify(ctx, analysis)
	if err != nil {
		p.warn("classifier failed", "url", rawURL, "error", err)
		return domain.CheckResult{
			RawURL:   rawURL,
			Verdict:  domain.VerdictUnsafe,
			Analysis: &analysis,
			Note:     fmt.Sprintf(noteClassifierFailed, err),
		}
	}

	if p.reputation != nil && key != "" {
		p.reputation.Record(ctx, key, verdict)
	}

	if verdict == domain.VerdictUnsafe {
		p.logForReview(ctx, rawURL, key, analysis, llmOutput)
	}

	return domain.CheckResult{
		RawURL:   rawURL,
		Verdict:  verdict,
		Analysis: &analysis,
	}
}

// logForReview queues the unsafe result for human review and raises a
// best-effort alert. Neither step can fail the run.
func (p *Pipeline) logForReview(ctx context.Context, rawURL, key string, analysis domain.Analysis, llmOutput string) {
	if p.reviews != nil {
		record := domain.ReviewRecord{
			RawURL:    rawURL,
			Domain:    key,
			Analysis:  analysis,
			LLMOutput: llmOutput,
			Timestamp: time.Now().UTC(),
			Reviewed:  false,
		}
		if err := p.reviews.Append(ctx, record); err != nil {
			p.warn("review log append failed", "url", rawURL, "error", err)
		}
	}

	if p.notifier != nil {
		message := fmt.Sprintf("Unsafe verdict for %s (score %d, %d malicious hits) - queued for review",
			rawURL, analysis.Score, analysis.MaliciousHits)
		if err := p.notifier.Alert(ctx, message); err != nil {
			p.warn("unsafe alert failed", "url", rawURL, "error", err)
		}
	}
}

// ApplyReview applies a human verdict back into the reputation store and
// resolves the matching review records. Safe to call repeatedly.
func (p *Pipeline) ApplyReview(ctx context.Context, rawURL string, verdict domain.Verdict) error {
	if !verdict.Known() {
		return fmt.Errorf("verdict %d is not a valid review outcome", int(verdict))
	}

	key := domain.Normalize(rawURL)
	if p.reputation != nil && key != "" {
		p.reputation.Record(ctx, key, verdict)
	}

	if p.reviews != nil {
		if err := p.reviews.MarkReviewed(ctx, rawURL); err != nil {
			return fmt.Errorf("mark reviewed: %w", err)
		}
	}

	p.count("human_reviewed", 1)
	return nil
}

func (p *Pipeline) count(metric string, delta int64) {
	if p.metrics != nil {
		p.metrics.Increment(metric, delta)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
