package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"LinkSentry/internal/domain"
)

func TestCountMatches_Affiliate(t *testing.T) {
	t.Parallel()

	// amazon.in is counted by both the amazon\.in and the amazon\.[a-z]+
	// patterns; overlapping hits from different patterns all count.
	assert.Equal(t, 2, CountMatches("visit AMAZON.IN today", CategoryAffiliate))

	assert.Equal(t, 1, CountMatches("visit amzn.to now", CategoryAffiliate))

	// ref= once, the bare word affiliate once, utm_source=affiliate once.
	assert.Equal(t, 3, CountMatches("ref=x plus utm_source=affiliate", CategoryAffiliate))
}

func TestCountMatches_MaliciousSpansLines(t *testing.T) {
	t.Parallel()

	html := "<script type=\"text/javascript\">\nvar p =\neval(atob(x));</script>"
	assert.Equal(t, 1, CountMatches(html, CategoryMalicious))
}

func TestCountMatches_PhishingMention(t *testing.T) {
	t.Parallel()

	html := "<p>This is a PHISHING site</p>"
	assert.GreaterOrEqual(t, CountMatches(html, CategoryMalicious), 1)
}

func TestCountMatches_CleanHTML(t *testing.T) {
	t.Parallel()

	assert.Zero(t, CountMatches("<html><body><h1>Hello</h1></body></html>", CategoryMalicious))
	assert.Zero(t, CountMatches("", CategoryAffiliate))
}

func TestScore_NoMatchesEqualsRedirects(t *testing.T) {
	t.Parallel()

	html := "<html><body>plain content with nothing suspicious</body></html>"
	assert.Equal(t, 3, Score(0, 3, html))
	assert.Equal(t, 0, Score(0, 0, html))
}

func TestScore_Weighting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2*2+1, Score(2, 1, "clean body"))
	assert.Equal(t, 2*2+1+1, Score(2, 1, "checking your browser - Cloudflare"))
}

func TestHasBotChallenge(t *testing.T) {
	t.Parallel()

	assert.True(t, HasBotChallenge("Attention Required! | Cloudflare"))
	assert.True(t, HasBotChallenge("ATTENTION REQUIRED"))
	assert.False(t, HasBotChallenge("welcome to our shop"))
}

func TestExtractText_StripsScriptAndStyle(t *testing.T) {
	t.Parallel()

	html := `<html><head><style>body { color: red }</style>
	<script>var secret = "hidden";</script></head>
	<body><h1>Title</h1>
	<p>Some   spaced    text.</p></body></html>`

	text := ExtractText(html)
	assert.Equal(t, "Title Some spaced text.", text)
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "color")
}

func TestExtractText_Truncates(t *testing.T) {
	t.Parallel()

	html := "<p>" + strings.Repeat("word ", 200) + "</p>"
	text := ExtractText(html)
	assert.Len(t, []rune(text), 500)
}

func TestExtractText_MalformedHTML(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		ExtractText("<div><<<>>>><p unclosed")
		ExtractText("")
	})
}

func TestAnalyze_AssemblesRecord(t *testing.T) {
	t.Parallel()

	fetched := domain.FetchResult{
		HTML:       "<body><p>a phishing page</p></body>",
		StatusCode: 200,
		Redirects:  2,
		Rendered:   true,
	}

	got := New().Analyze("https://example.com", fetched)

	assert.Equal(t, "https://example.com", got.URL)
	assert.Equal(t, 200, got.StatusCode)
	assert.Equal(t, 2, got.Redirects)
	assert.Equal(t, 1, got.MaliciousHits)
	assert.Equal(t, 1*2+2, got.Score)
	assert.True(t, got.Rendered)
	assert.Equal(t, "a phishing page", got.Text)
}
