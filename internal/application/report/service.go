package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/application"
	"github.com/bryanwahyu/launchlab/internal/domain/access"
	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
	"github.com/bryanwahyu/launchlab/internal/domain/notify"
	domain "github.com/bryanwahyu/launchlab/internal/domain/report"
	"github.com/bryanwahyu/launchlab/internal/infra/ai/prompt"
)

const temperature = 0.7

// TokenIssuer grants report access; implemented by the access service.
type TokenIssuer interface {
	Issue(ctx context.Context, id analysis.ID, email string) (*access.Token, error)
}

// Service generates validation roadmaps and schedules their delivery.
type Service struct {
	Analyses analysis.Repository
	LLM      ai.Client
	Queue    jobs.Queue
	Tokens   TokenIssuer
	Mailer   notify.Mailer
	// Archive is optional.
	Archive   domain.Archive
	PublicURL string
	Clock     application.Clock
	Log       *zap.Logger
}

func NewService(analyses analysis.Repository, llm ai.Client, q jobs.Queue, tokens TokenIssuer, mailer notify.Mailer, publicURL string, log *zap.Logger) *Service {
	return &Service{
		Analyses:  analyses,
		LLM:       llm,
		Queue:     q,
		Tokens:    tokens,
		Mailer:    mailer,
		PublicURL: publicURL,
		Clock:     application.SystemClock{},
		Log:       log,
	}
}

// TriggerCommand asks for a report to be generated in the background.
type TriggerCommand struct {
	AnalysisID string `json:"analysisId"`
	Email      string `json:"email"`
}

// Generate builds the roadmap for an analysis and stores it on the analysis
// row, replacing any earlier report.
func (s *Service) Generate(ctx context.Context, id analysis.ID) (*domain.Report, error) {
	a, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get analysis", err)
	}

	var r domain.Report
	req := ai.Request{
		Name:        domain.SchemaName,
		Description: "Validation roadmap for a previously analysed startup idea",
		System:      prompt.ReportSystemPrompt(),
		User:        prompt.ReportUserPrompt(a),
		Schema:      domain.Schema(),
		Temperature: temperature,
	}
	if err := application.GenerateStructured(ctx, s.LLM, s.Log, req, &r); err != nil {
		return nil, err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	if err := s.Analyses.SaveReport(ctx, id, data, now); err != nil {
		return nil, apperr.Persistence("save report", err)
	}
	s.Log.Info("report stored", zap.String("analysis_id", string(id)))

	if s.Archive != nil {
		if key, err := s.Archive.Put(ctx, id, data, now); err != nil {
			s.Log.Warn("archive report failed", zap.String("analysis_id", string(id)), zap.Error(err))
		} else {
			s.Log.Debug("report archived", zap.String("key", key))
		}
	}
	return &r, nil
}

// Trigger validates the request shape and queues generation. It does not
// check that the analysis exists; the worker reports that on the task.
func (s *Service) Trigger(ctx context.Context, cmd TriggerCommand) (*jobs.Task, error) {
	cmd.AnalysisID = strings.TrimSpace(cmd.AnalysisID)
	cmd.Email = strings.TrimSpace(cmd.Email)
	verr := &apperr.ValidationError{}
	if cmd.AnalysisID == "" {
		verr.Add("analysisId", "is required")
	}
	if cmd.Email != "" && !notify.ValidEmail(cmd.Email) {
		verr.Add("email", "must be a valid email address")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	t, err := s.Queue.Enqueue(ctx, jobs.TypeGenerateReport, jobs.ReportPayload{AnalysisID: cmd.AnalysisID, Email: cmd.Email})
	if err != nil {
		return nil, fmt.Errorf("queue report: %w", err)
	}
	s.Log.Info("report queued", zap.String("analysis_id", cmd.AnalysisID), zap.String("task_id", t.ID))
	return t, nil
}

// ReportURL is the page a recipient opens with their token.
func (s *Service) ReportURL(id analysis.ID, token string) string {
	base := strings.TrimRight(s.PublicURL, "/")
	return base + "/idea/report/" + url.PathEscape(string(id)) + "?token=" + url.QueryEscape(token)
}
