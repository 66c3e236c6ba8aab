package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"LinkSentry/internal/config"
	"LinkSentry/internal/domain"
	"LinkSentry/internal/ports"
)

const defaultSystemPrompt = "You are an expert security and content analyst. " +
	"After analyzing the INPUT CONTENT decide whether it is safe to visit. " +
	"If the content is SAFE -> 1, otherwise SAFE -> 0. Return THIS YAML FORMAT:\n" +
	"RAW_URL: <url>\nSAFE: <int>"

// Classifier implements ports.Classifier against an OpenAI-compatible chat
// completions endpoint. Requests rotate through the configured API keys
// round-robin so no single key absorbs the whole call volume.
type Classifier struct {
	endpoint     string
	model        string
	keys         []string
	next         atomic.Uint64
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier builds a classifier from configuration. Returns nil when no
// API key is configured; the pipeline treats a nil classifier as unavailable
// and fails closed.
func NewClassifier(cfg config.ClassifierConfig) *Classifier {
	if len(cfg.Keys()) == 0 || cfg.Endpoint == "" || cfg.Model == "" {
		return nil
	}

	prompt := strings.TrimSpace(cfg.SystemPrompt)
	if prompt == "" {
		prompt = defaultSystemPrompt
	}

	return &Classifier{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		keys:         cfg.Keys(),
		systemPrompt: prompt,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify posts the analysis record as structured context and parses the
// model's SAFE marker. The raw model output is returned alongside the verdict
// for the review queue.
func (c *Classifier) Classify(ctx context.Context, analysis domain.Analysis) (domain.Verdict, string, error) {
	contextJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return domain.VerdictUnknown, "", fmt.Errorf("marshal analysis: %w", err)
	}

	userPrompt := fmt.Sprintf(
		"Analyze the following data extracted from a URL:\n\n%s\n\nProvide the final format:\nRAW_URL: %s\nSAFE: <1 for safe, 0 for not safe>",
		contextJSON, analysis.URL,
	)

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": c.systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	})
	if err != nil {
		return domain.VerdictUnknown, "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.VerdictUnknown, "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.nextKey())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.VerdictUnknown, "", fmt.Errorf("classifier call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.VerdictUnknown, "", fmt.Errorf("classifier error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.VerdictUnknown, "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return domain.VerdictUnknown, "", fmt.Errorf("classifier returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	return ParseVerdict(content), content, nil
}

// ParseVerdict extracts the SAFE marker from model output. Anything that is
// not an explicit SAFE: 0 counts as safe, matching the upstream contract.
func ParseVerdict(content string) domain.Verdict {
	if strings.Contains(content, "SAFE: 0") || strings.Contains(content, "SAFE:0") {
		return domain.VerdictUnsafe
	}
	return domain.VerdictSafe
}

// nextKey returns the next API key in round-robin order.
func (c *Classifier) nextKey() string {
	n := c.next.Add(1) - 1
	return c.keys[n%uint64(len(c.keys))]
}
