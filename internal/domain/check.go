package domain

import "time"

// FetchResult is the raw outcome of retrieving a URL's content, including the
// render fallback if the direct fetch looked insufficient.
type FetchResult struct {
	HTML       string
	StatusCode int
	Redirects  int
	Rendered   bool
}

// Analysis is the immutable heuristic snapshot produced once per pipeline run
// for an unknown domain. Field names mirror the persisted record shape.
type Analysis struct {
	URL           string `json:"url"`
	StatusCode    int    `json:"status_code"`
	Redirects     int    `json:"redirects"`
	AffiliateHits int    `json:"affiliated_links"`
	MaliciousHits int    `json:"malicious_hits"`
	Score         int    `json:"suspicious_score"`
	Rendered      bool   `json:"require_js_render"`
	Text          string `json:"text_only"`
}

// ReviewRecord is queued for human review when a pipeline run concludes
// unsafe on a previously unknown domain. Reviewed flips to true exactly once,
// when feedback is applied.
type ReviewRecord struct {
	RawURL    string    `json:"raw_url"`
	Domain    string    `json:"domain"`
	Analysis  Analysis  `json:"analysis"`
	LLMOutput string    `json:"llm_output"`
	Timestamp time.Time `json:"timestamp"`
	Reviewed  bool      `json:"reviewed"`
}

// CheckResult is the terminal outcome returned to the caller for every check.
// Analysis is present when a full pipeline run happened; Note carries the
// short-circuit or degraded-mode annotation otherwise.
type CheckResult struct {
	RawURL   string    `json:"raw_url"`
	Verdict  Verdict   `json:"safe"`
	Analysis *Analysis `json:"analysis,omitempty"`
	Note     string    `json:"note,omitempty"`
}
