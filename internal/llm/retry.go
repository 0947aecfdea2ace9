package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"filmdecks-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// analyzeWithRetry gives p one extra attempt after a transient failure.
func analyzeWithRetry(ctx context.Context, p Provider, input StoryInput, timeout time.Duration, delay time.Duration) (StoryResult, error) {
	res, err := analyzeOnce(ctx, p, input, timeout)
	if err == nil || !shouldRetry(ctx, err) {
		return res, err
	}

	fields := map[string]any{
		"provider": p.Name(),
		"attempt":  1,
		"error":    err,
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	telemetry.Warn("ai.provider_retry", fields)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return StoryResult{}, ctx.Err()
	}
	return analyzeOnce(ctx, p, input, timeout)
}

func analyzeOnce(ctx context.Context, p Provider, input StoryInput, timeout time.Duration) (StoryResult, error) {
	if timeout <= 0 {
		return p.AnalyzeStory(ctx, input)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.AnalyzeStory(attemptCtx, input)
}

func shouldRetry(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof")
}

type requestIDKey struct{}

// WithRequestID attaches a request ID so provider logs can be correlated.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
