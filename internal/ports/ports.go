package ports

import (
	"context"
	"time"

	"LinkSentry/internal/domain"
)

// DomainStore is the persistent domain→verdict map behind the reputation
// store. Unavailability must be treated by callers as "absent", never as a
// verdict.
type DomainStore interface {
	Get(ctx context.Context, domainKey string) (domain.Verdict, bool, error)
	Upsert(ctx context.Context, domainKey string, verdict domain.Verdict) error
}

// ReputationStore is the two-tier lookup the pipeline consults before doing
// any network work. Lookup returns VerdictUnknown on any kind of miss.
type ReputationStore interface {
	Lookup(ctx context.Context, domainKey string) domain.Verdict
	Record(ctx context.Context, domainKey string, verdict domain.Verdict)
}

// ContentFetcher retrieves a URL's content, falling back to a browser render
// when the direct fetch is judged insufficient. It never returns an error;
// failures degrade into the result fields.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) domain.FetchResult
}

// ContentAnalyzer scores fetched content and extracts its readable text.
type ContentAnalyzer interface {
	Analyze(url string, fetched domain.FetchResult) domain.Analysis
}

// Renderer loads a URL in a full browser engine and returns the rendered HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Classifier turns an analysis snapshot into a binary verdict. The second
// return value is the raw model output, kept for the review queue.
type Classifier interface {
	Classify(ctx context.Context, analysis domain.Analysis) (domain.Verdict, string, error)
}

// ReviewLog stores unsafe verdicts pending human review.
type ReviewLog interface {
	Append(ctx context.Context, record domain.ReviewRecord) error
	MarkReviewed(ctx context.Context, rawURL string) error
	Pending(ctx context.Context, limit int) ([]domain.ReviewRecord, error)
}

// MetricsSink receives fire-and-forget counter increments. Implementations
// must never block or fail loudly.
type MetricsSink interface {
	Increment(metric string, delta int64)
}

// Notifier pushes operational alerts (unsafe verdicts, review backlog) to an
// out-of-band channel such as Telegram.
type Notifier interface {
	Alert(ctx context.Context, message string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
