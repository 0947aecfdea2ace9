package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filmdecks-backend/internal/shared/metrics"
	"filmdecks-backend/internal/shared/telemetry"
)

// Chain tries providers in rank order and returns the first success.
type Chain struct {
	providers  []Provider
	timeout    time.Duration
	retryDelay time.Duration
}

// NewChain builds a chain. timeout bounds each provider attempt; zero means no bound.
func NewChain(timeout time.Duration, providers ...Provider) *Chain {
	ranked := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ranked = append(ranked, p)
		}
	}
	return &Chain{providers: ranked, timeout: timeout, retryDelay: retryBaseDelay}
}

// Name identifies the chain in logs.
func (c *Chain) Name() string { return "chain" }

// Names lists the configured providers in rank order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// AnalyzeStory sanitizes the input once and walks the ranked providers.
func (c *Chain) AnalyzeStory(ctx context.Context, input StoryInput) (StoryResult, error) {
	if len(c.providers) == 0 {
		return StoryResult{}, fmt.Errorf("%w: no providers configured", ErrAllProvidersFailed)
	}

	clean, suspicious := SanitizeInput(input)
	if len(suspicious) > 0 {
		telemetry.Warn("ai.suspicious_input", map[string]any{
			"request_id": RequestIDFromContext(ctx),
			"fields":     suspicious,
			"preview":    preview(input.Logline, 200),
		})
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		res, err := analyzeWithRetry(ctx, p, clean, c.timeout, c.retryDelay)
		metrics.ObserveProviderDurationMs(float64(time.Since(start).Milliseconds()))
		if err == nil {
			telemetry.Info("ai.provider_succeeded", map[string]any{
				"request_id":    RequestIDFromContext(ctx),
				"provider":      p.Name(),
				"overall_score": res.OverallScore,
			})
			return res, nil
		}
		metrics.IncProviderFailed(p.Name())
		telemetry.Warn("ai.provider_failed", map[string]any{
			"request_id": RequestIDFromContext(ctx),
			"provider":   p.Name(),
			"error":      err,
		})
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return StoryResult{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
