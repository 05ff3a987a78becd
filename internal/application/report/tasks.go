package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/contract"
	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
	"github.com/bryanwahyu/launchlab/internal/domain/notify"
)

// Handlers maps task types to the service's task handlers.
func (s *Service) Handlers() map[string]jobs.Handler {
	return map[string]jobs.Handler{
		jobs.TypeGenerateReport: s.HandleGenerate,
		jobs.TypeDeliverReport:  s.HandleDeliver,
	}
}

// HandleGenerate runs Generate and queues delivery when an email was given.
// Once the report is stored the task never retries; a failed delivery
// enqueue is logged and reported as permanent.
func (s *Service) HandleGenerate(ctx context.Context, t *jobs.Task) error {
	p, err := decodePayload(t)
	if err != nil {
		return err
	}
	if _, err := s.Generate(ctx, analysis.ID(p.AnalysisID)); err != nil {
		return classify(err)
	}
	if p.Email == "" {
		return nil
	}
	if _, err := s.Queue.Enqueue(ctx, jobs.TypeDeliverReport, p); err != nil {
		s.Log.Error("report stored but delivery not queued",
			zap.String("analysis_id", p.AnalysisID), zap.Error(err))
		return jobs.Permanent(fmt.Errorf("queue delivery: %w", err))
	}
	return nil
}

// HandleDeliver issues a token and mails the report link.
func (s *Service) HandleDeliver(ctx context.Context, t *jobs.Task) error {
	p, err := decodePayload(t)
	if err != nil {
		return err
	}
	id := analysis.ID(p.AnalysisID)
	tok, err := s.Tokens.Issue(ctx, id, p.Email)
	if err != nil {
		return classify(err)
	}
	a, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return classify(err)
	}
	link := notify.ReportLink{
		Email:      p.Email,
		IdeaName:   a.Name,
		ReportURL:  s.ReportURL(id, tok.Token),
		TotalScore: a.TotalScore,
	}
	if err := s.Mailer.SendReportLink(ctx, link); err != nil {
		return fmt.Errorf("send report link: %w", err)
	}
	s.Log.Info("report link sent", zap.String("analysis_id", p.AnalysisID))
	return nil
}

func decodePayload(t *jobs.Task) (jobs.ReportPayload, error) {
	var p jobs.ReportPayload
	if err := json.Unmarshal(t.Payload, &p); err != nil {
		return p, jobs.Permanent(fmt.Errorf("decode payload: %w", err))
	}
	if p.AnalysisID == "" {
		return p, jobs.Permanent(errors.New("payload without analysis id"))
	}
	return p, nil
}

// classify marks errors that another attempt cannot fix.
func classify(err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrNotReady),
		errors.Is(err, ai.ErrRefused),
		errors.Is(err, contract.ErrSchemaViolation):
		return jobs.Permanent(err)
	}
	return err
}
