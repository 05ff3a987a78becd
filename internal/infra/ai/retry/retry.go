// Package retry repeats LLM calls that failed for transient reasons.
package retry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/domain/ai"
)

const (
	DefaultAttempts = 3
	DefaultBackoff  = time.Second
)

// Client wraps another ai.Client. Refusals and schema problems pass through
// untouched; only timeouts, 429s and 5xx responses are repeated.
type Client struct {
	next     ai.Client
	attempts int
	backoff  time.Duration
	log      *zap.Logger
}

// Wrap returns next with retries. backoff doubles after each failed attempt.
func Wrap(next ai.Client, attempts int, backoff time.Duration, log *zap.Logger) *Client {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if backoff < 0 {
		backoff = DefaultBackoff
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{next: next, attempts: attempts, backoff: backoff, log: log}
}

func (c *Client) Generate(ctx context.Context, req ai.Request) (json.RawMessage, error) {
	wait := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		var raw json.RawMessage
		raw, err = c.next.Generate(ctx, req)
		if err == nil {
			return raw, nil
		}
		if !Transient(err) || attempt == c.attempts || ctx.Err() != nil {
			return nil, err
		}
		c.log.Warn("llm call failed, retrying",
			zap.String("schema", req.Name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, err
}

// Transient reports whether err is worth another attempt.
func Transient(err error) bool {
	if errors.Is(err, ai.ErrRefused) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *ai.ProviderError
	if errors.As(err, &pe) && pe.Transient() {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
