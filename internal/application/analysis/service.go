package analysis

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/application"
	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	domain "github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/idea"
	"github.com/bryanwahyu/launchlab/internal/infra/ai/prompt"
)

const (
	temperature       = 0.7
	defaultRetryDelay = 500 * time.Millisecond
	persistTimeout    = 15 * time.Second
)

// Service scores ideas and stores the result.
// Safe for concurrent use.
type Service struct {
	Repo  domain.Repository
	LLM   ai.Client
	Clock application.Clock
	Log   *zap.Logger
	// PersistRetryDelay is the pause before the single persist retry.
	PersistRetryDelay time.Duration
}

func NewService(repo domain.Repository, llm ai.Client, log *zap.Logger) *Service {
	return &Service{
		Repo:              repo,
		LLM:               llm,
		Clock:             application.SystemClock{},
		Log:               log,
		PersistRetryDelay: defaultRetryDelay,
	}
}

// Analyze validates the idea, asks the model for a scored breakdown and stores
// it under a fresh id. Every call creates a new analysis.
func (s *Service) Analyze(ctx context.Context, in idea.Idea) (domain.ID, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	in = in.Normalize()

	var result domain.Result
	req := ai.Request{
		Name:        domain.SchemaName,
		Description: "Scored analysis of a startup idea",
		System:      prompt.AnalysisSystemPrompt(),
		User:        prompt.AnalysisUserPrompt(in),
		Schema:      domain.Schema(),
		Temperature: temperature,
	}
	if err := application.GenerateStructured(ctx, s.LLM, s.Log, req, &result); err != nil {
		return "", err
	}

	a := domain.New(domain.ID(uuid.NewString()), in, result, s.Clock.Now())
	if int(math.Round(result.TotalScore)) != a.TotalScore {
		s.Log.Debug("model total differs from weighted total",
			zap.Float64("model_total", result.TotalScore),
			zap.Int("total", a.TotalScore))
	}
	if err := s.persist(ctx, a); err != nil {
		return "", err
	}
	s.Log.Info("analysis stored",
		zap.String("id", string(a.ID)),
		zap.Int("total_score", a.TotalScore),
		zap.String("status", string(a.ValidationStatus)))
	return a.ID, nil
}

// persist saves a once more after a short pause. The model call is already
// paid for, so the save is detached from the caller's cancellation.
func (s *Service) persist(ctx context.Context, a *domain.Analysis) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	err := s.Repo.Save(ctx, a)
	if err == nil {
		return nil
	}
	s.Log.Warn("save analysis failed, retrying once", zap.String("id", string(a.ID)), zap.Error(err))
	select {
	case <-ctx.Done():
	case <-time.After(s.PersistRetryDelay):
	}
	if err = s.Repo.Save(ctx, a); err == nil {
		return nil
	}
	payload, _ := json.Marshal(a)
	s.Log.Error("analysis lost after persist retry",
		zap.String("id", string(a.ID)),
		zap.ByteString("analysis", payload),
		zap.Error(err))
	return apperr.Persistence("save analysis", err)
}

// Get loads a stored analysis.
func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Analysis, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, apperr.Invalid("id", "is required")
	}
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get analysis", err)
	}
	return a, nil
}
