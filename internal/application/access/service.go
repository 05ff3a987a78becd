package access

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/application"
	domain "github.com/bryanwahyu/launchlab/internal/domain/access"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/notify"
)

const DefaultTTL = 7 * 24 * time.Hour

// Service hands out and checks report access tokens.
type Service struct {
	Analyses analysis.Repository
	Tokens   domain.Repository
	Clock    application.Clock
	TTL      time.Duration
	// Rand is the entropy source; crypto/rand when nil.
	Rand io.Reader
	Log  *zap.Logger
}

func NewService(analyses analysis.Repository, tokens domain.Repository, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{Analyses: analyses, Tokens: tokens, Clock: application.SystemClock{}, TTL: ttl, Log: log}
}

// Issue creates a token for an analysis whose report is ready.
func (s *Service) Issue(ctx context.Context, analysisID analysis.ID, email string) (*domain.Token, error) {
	email = strings.TrimSpace(email)
	verr := &apperr.ValidationError{}
	if strings.TrimSpace(string(analysisID)) == "" {
		verr.Add("analysisId", "is required")
	}
	if !notify.ValidEmail(email) {
		verr.Add("email", "must be a valid email address")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	a, err := s.Analyses.Get(ctx, analysisID)
	if err != nil {
		return nil, apperr.Persistence("get analysis", err)
	}
	if !a.ReportGenerated {
		return nil, apperr.ErrNotReady
	}

	t, err := domain.NewToken(s.Rand, email, analysisID, s.Clock.Now(), s.TTL)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.Save(ctx, t); err != nil {
		return nil, apperr.Persistence("save token", err)
	}
	s.Log.Info("access token issued",
		zap.String("analysis_id", string(analysisID)),
		zap.Time("expires_at", t.ExpiresAt))
	return t, nil
}

// Resolve returns the report behind a token. Expiry is checked on every call.
func (s *Service) Resolve(ctx context.Context, token string) (json.RawMessage, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Invalid("token", "is required")
	}
	t, err := s.Tokens.Get(ctx, token)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInvalidToken
	}
	if err != nil {
		return nil, apperr.Persistence("get token", err)
	}
	if !t.ValidAt(s.Clock.Now()) {
		return nil, apperr.ErrExpired
	}

	a, err := s.Analyses.Get(ctx, t.AnalysisID)
	if err != nil {
		return nil, apperr.Persistence("get analysis", err)
	}
	if !a.ReportGenerated || len(a.ReportData) == 0 {
		return nil, apperr.NotFound("report", string(t.AnalysisID))
	}
	return a.ReportData, nil
}
