package access

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
)

// tokenBytes of entropy, rendered as 43 base64url characters.
const tokenBytes = 32

// Token grants read access to one analysis report until ExpiresAt.
type Token struct {
	Token      string      `json:"token"`
	Email      string      `json:"email"`
	AnalysisID analysis.ID `json:"analysis_id"`
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// ValidAt reports whether the token can still be used at now.
// A token is already expired at the exact ExpiresAt instant.
func (t Token) ValidAt(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// NewToken draws a fresh opaque token from r (crypto/rand when nil).
func NewToken(r io.Reader, email string, id analysis.ID, now time.Time, ttl time.Duration) (*Token, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Token{
		Token:      base64.RawURLEncoding.EncodeToString(buf),
		Email:      email,
		AnalysisID: id,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

// Repository port
type Repository interface {
	Save(ctx context.Context, t *Token) error
	Get(ctx context.Context, token string) (*Token, error)
}
