package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/ports"
)

const (
	// Bodies under this many words are not worth a model round-trip.
	minSummarizableWords = 50

	fallbackTruncateLen = 500
)

// Sources carrying these markers republish verbatim, never summarized.
var excludedSources = []string{"twitter", "tweet"}

// Summarizer shortens article bodies through an OpenAI-compatible chat
// completions endpoint. Any failure falls back to truncating the original
// body, so the pipeline always gets something publishable.
type Summarizer struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	http         *http.Client
	logger       *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a reusable client for the configured endpoint.
func NewSummarizer(endpoint, model, apiKey, systemPrompt string, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		endpoint:     endpoint,
		model:        model,
		apiKey:       apiKey,
		systemPrompt: systemPrompt,
		http:         &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}
}

// ShouldSummarize reports whether a source's content goes through the
// summarizer. Social reposts keep their original text.
func (s *Summarizer) ShouldSummarize(source string) bool {
	lower := strings.ToLower(source)
	for _, excluded := range excludedSources {
		if strings.Contains(lower, excluded) {
			return false
		}
	}
	for _, word := range strings.Fields(lower) {
		if word == "x" {
			return false
		}
	}
	return true
}

// Summarize produces a three-paragraph summary of the article. Short bodies
// and any model failure return the truncated original instead of an error.
func (s *Summarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	if len(strings.Fields(content)) < minSummarizableWords {
		s.info("content too short to summarize, returning original", "title", title)
		return truncate(content), nil
	}

	summary, err := s.complete(ctx, title, content)
	if err != nil {
		s.warn("summarization failed, using truncated original", "title", title, "error", err)
		return truncate(content), nil
	}

	formatted := formatParagraphs(summary)
	s.info("summary generated", "title", title, "chars", len(formatted))
	return formatted, nil
}

func (s *Summarizer) complete(ctx context.Context, title, content string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("llm api key is not configured")
	}

	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": s.systemPrompt},
			{"role": "user", "content": fmt.Sprintf("%s. %s", title, content)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}

	summary := strings.TrimSpace(result.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("blank completion")
	}
	return summary, nil
}

// formatParagraphs reflows the summary into three paragraphs by distributing
// sentences evenly, earlier paragraphs taking the remainder.
func formatParagraphs(summary string) string {
	var sentences []string
	for _, part := range strings.Split(summary, ".") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}

	if len(sentences) == 0 {
		return summary
	}
	if len(sentences) <= 3 {
		return strings.Join(sentences, ".\n\n") + "."
	}

	perParagraph := len(sentences) / 3
	remainder := len(sentences) % 3

	var paragraphs []string
	start := 0
	for i := 0; i < 3; i++ {
		end := start + perParagraph
		if i < remainder {
			end++
		}
		paragraphs = append(paragraphs, strings.Join(sentences[start:end], ". ")+".")
		start = end
	}

	return strings.Join(paragraphs, "\n\n")
}

func truncate(content string) string {
	trimmed := domain.Truncate(content, fallbackTruncateLen)
	if len(trimmed) < len(content) {
		return trimmed + "..."
	}
	return content
}

func (s *Summarizer) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Summarizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
