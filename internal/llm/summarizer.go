package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	maxSummaryRetries   = 3
	retryBackoff        = 2 * time.Second
	summaryTemperature  = 0.2
	summaryMaxTokens    = 200
	summarySystemPrompt = "You are a concise changelog assistant. Summarize code diffs into a short, clear note."
	summaryUserPrompt   = "Summarize the following git diff. Be brief and concrete. Mention key files or functions touched.\n\n"
)

// Summarizer turns a unified diff into a short changelog note. It
// never fails the caller: with no provider configured it returns a
// fixed skip message, and exhausted retries yield a fallback note
// carrying the last error.
type Summarizer struct {
	provider Provider
	backoff  time.Duration
}

// NewSummarizer wraps provider, which may be nil when no API key or
// backend is configured.
func NewSummarizer(provider Provider) *Summarizer {
	return &Summarizer{provider: provider, backoff: retryBackoff}
}

func (s *Summarizer) Summarize(ctx context.Context, diff string) string {
	if s.provider == nil {
		return "No OPENAI_API_KEY set; skipping summary."
	}

	messages := []Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: summaryUserPrompt + diff},
	}
	opts := ChatOptions{Temperature: summaryTemperature, MaxTokens: summaryMaxTokens}

	var lastErr error
	for attempt := 1; attempt <= maxSummaryRetries; attempt++ {
		summary, err := s.provider.Chat(ctx, messages, opts)
		if err == nil {
			return strings.TrimSpace(summary)
		}
		lastErr = err
		if attempt < maxSummaryRetries {
			select {
			case <-ctx.Done():
				return fmt.Sprintf("Summary unavailable (error: %v)", ctx.Err())
			case <-time.After(s.backoff * time.Duration(attempt)):
			}
		}
	}
	return fmt.Sprintf("Summary unavailable (error: %v)", lastErr)
}
