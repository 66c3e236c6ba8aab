package analyzer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"LinkSentry/internal/domain"
	"LinkSentry/internal/ports"
)

const textLimit = 500

// Category labels a detection pattern.
type Category string

const (
	CategoryAffiliate Category = "affiliate"
	CategoryMalicious Category = "malicious"
)

// Pattern pairs a compiled expression with its category. The table is static
// so detection behavior is testable and extension is a one-line change.
type Pattern struct {
	Category Category
	Expr     *regexp.Regexp
}

// Patterns is the fixed detection table. Affiliate expressions target known
// marketplace domains and affiliate query markers; malicious expressions
// target obfuscated script indicators, suspicious redirects, and literal
// phishing/malware mentions. Malicious patterns also match across lines.
var Patterns = []Pattern{
	{CategoryAffiliate, regexp.MustCompile(`(?i)amazon\.in`)},
	{CategoryAffiliate, regexp.MustCompile(`(?i)amazon\.[a-z]+`)},
	{CategoryAffiliate, regexp.MustCompile(`(?i)amzn\.to`)},
	{CategoryAffiliate, regexp.MustCompile(`(?i)flipkart\.com`)},
	{CategoryAffiliate, regexp.MustCompile(`(?i)affiliate`)},
	{CategoryAffiliate, regexp.MustCompile(`(?i)ref=`)},
	{CategoryAffiliate, regexp.MustCompile(`(?i)utm_source=affiliate`)},

	{CategoryMalicious, regexp.MustCompile(`(?is)<script[^>]*>.*eval`)},
	{CategoryMalicious, regexp.MustCompile(`(?is)obfuscate`)},
	{CategoryMalicious, regexp.MustCompile(`(?is)base64_decode`)},
	{CategoryMalicious, regexp.MustCompile(`(?is)document\.location`)},
	{CategoryMalicious, regexp.MustCompile(`(?is)malware`)},
	{CategoryMalicious, regexp.MustCompile(`(?is)phishing`)},
	{CategoryMalicious, regexp.MustCompile(`(?is)onclick="window\.open`)},
	{CategoryMalicious, regexp.MustCompile(`(?is)redirect`)},
}

// botChallengeMarkers identify anti-bot interstitials in page bodies.
var botChallengeMarkers = []string{"cloudflare", "attention required"}

var tagExpr = regexp.MustCompile(`<[^>]+>`)

// Analyzer scores fetched content. It is stateless with respect to each run.
type Analyzer struct{}

var _ ports.ContentAnalyzer = (*Analyzer)(nil)

// New returns a content analyzer over the static pattern table.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze produces the immutable analysis record for one fetched page. Every
// step tolerates arbitrary or malformed HTML; zero matches is a valid and
// common result.
func (a *Analyzer) Analyze(url string, fetched domain.FetchResult) domain.Analysis {
	affiliates := CountMatches(fetched.HTML, CategoryAffiliate)
	malicious := CountMatches(fetched.HTML, CategoryMalicious)

	return domain.Analysis{
		URL:           url,
		StatusCode:    fetched.StatusCode,
		Redirects:     fetched.Redirects,
		AffiliateHits: affiliates,
		MaliciousHits: malicious,
		Score:         Score(malicious, fetched.Redirects, fetched.HTML),
		Rendered:      fetched.Rendered,
		Text:          ExtractText(fetched.HTML),
	}
}

// CountMatches sums match counts across all patterns of one category.
// Overlapping hits from different patterns are deliberately not deduplicated.
func CountMatches(html string, category Category) int {
	total := 0
	for _, p := range Patterns {
		if p.Category != category {
			continue
		}
		total += len(p.Expr.FindAllStringIndex(html, -1))
	}
	return total
}

// Score computes the monotonic suspicion heuristic. It is surfaced to the
// classifier as context, not used alone to decide safety.
func Score(maliciousHits, redirects int, html string) int {
	score := maliciousHits*2 + redirects
	if HasBotChallenge(html) {
		score++
	}
	return score
}

// HasBotChallenge reports whether the body carries an anti-bot interstitial
// marker, case-insensitively.
func HasBotChallenge(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range botChallengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ExtractText strips script and style blocks plus remaining markup, collapses
// whitespace, and truncates to the first 500 characters for transport.
func ExtractText(html string) string {
	text := ""
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("script, style").Remove()
		text = doc.Text()
	} else {
		// goquery's parser is extremely forgiving, but keep a plain strip as
		// a floor so the pipeline never loses the page text entirely.
		text = tagExpr.ReplaceAllString(html, " ")
	}

	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > textLimit {
		return string(runes[:textLimit])
	}
	return text
}
