package report

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/launchlab/internal/application"
	accessapp "github.com/bryanwahyu/launchlab/internal/application/access"
	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/contract"
	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
	"github.com/bryanwahyu/launchlab/internal/domain/notify"
	domain "github.com/bryanwahyu/launchlab/internal/domain/report"
	"github.com/bryanwahyu/launchlab/internal/infra/db/dbtest"
	"github.com/bryanwahyu/launchlab/internal/infra/db/memory"
	"github.com/bryanwahyu/launchlab/internal/infra/queue"
)

func roadmap(summary string) string {
	return `{
  "validation_strategy": {"summary": "` + summary + `", "key_objectives": ["Find 10 paying users"], "timeline": "6 weeks"},
  "customer_validation": {"target_segments": [{"segment": "Owners", "characteristics": "Busy", "finding_channels": "Trade fairs"}], "interview_questions": ["How do you reorder today?"], "success_metrics": ["5 of 10 say yes"]},
  "solution_validation": {"mvp_features": [{"feature": "Forecast", "purpose": "Core value", "testing_approach": "Concierge"}], "testing_methods": [{"method": "Smoke test", "description": "Landing page", "expected_outcome": "3% signup"}]},
  "market_validation": {"market_research": [{"area": "Size", "sources": "Census", "metrics": "Shops per city"}], "competitor_analysis": [{"competitor": "Spreadsheets", "strengths": "Free", "weaknesses": "Manual"}]},
  "risks": [{"risk": "Data access", "impact": "High", "mitigation_strategy": "Partnerships"}],
  "validation_status": "NEEDS REFINEMENT",
  "critical_issues": [{"issue": "Thin margins", "impact": "Pricing", "recommendation": "Charge per store"}],
  "next_steps_report": [{"step": "Interview owners", "details": "Ten calls", "priority": "HIGH"}]
}`
}

type scriptedLLM struct {
	mu    sync.Mutex
	raws  []string
	err   error
	calls int
}

func (s *scriptedLLM) Generate(_ context.Context, req ai.Request) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	raw := s.raws[(s.calls-1)%len(s.raws)]
	return json.RawMessage(raw), nil
}

type recordingMailer struct {
	mu    sync.Mutex
	links []notify.ReportLink
	err   error
}

func (m *recordingMailer) SendReportLink(_ context.Context, l notify.ReportLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.links = append(m.links, l)
	return nil
}

func (m *recordingMailer) Subscribe(context.Context, string, int) error { return nil }

type recordingArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *recordingArchive) Put(_ context.Context, id analysis.ID, _ json.RawMessage, _ time.Time) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, string(id))
	return "reports/" + string(id), nil
}

type fixture struct {
	svc      *Service
	llm      *scriptedLLM
	analyses *memory.AnalysisRepository
	tokens   *memory.TokenRepository
	queue    *queue.MemoryQueue
	mailer   *recordingMailer
	archive  *recordingArchive
	stored   *analysis.Analysis
}

func newFixture(t *testing.T, raws ...string) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	f := &fixture{
		llm:      &scriptedLLM{raws: raws},
		analyses: memory.NewAnalysisRepository(),
		tokens:   memory.NewTokenRepository(),
		queue:    queue.NewMemory(),
		mailer:   &recordingMailer{},
		archive:  &recordingArchive{},
	}
	clock := application.FixedClock{T: dbtest.Base}
	tokens := accessapp.NewService(f.analyses, f.tokens, 0, log)
	tokens.Clock = clock
	f.svc = &Service{
		Analyses:  f.analyses,
		LLM:       f.llm,
		Queue:     f.queue,
		Tokens:    tokens,
		Mailer:    f.mailer,
		Archive:   f.archive,
		PublicURL: "https://launchlab.test/",
		Clock:     clock,
		Log:       log,
	}
	f.stored = dbtest.SampleAnalysis()
	if err := f.analyses.Save(context.Background(), f.stored); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestGenerateStoresAndArchives(t *testing.T) {
	f := newFixture(t, roadmap("first"))
	r, err := f.svc.Generate(context.Background(), f.stored.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ValidationStrategy.Summary != "first" || r.NextSteps[0].Priority != domain.PriorityHigh {
		t.Fatalf("unexpected report %+v", r)
	}
	got, _ := f.analyses.Get(context.Background(), f.stored.ID)
	if !got.ReportGenerated || !strings.Contains(string(got.ReportData), `"summary":"first"`) {
		t.Fatalf("report not stored: %s", got.ReportData)
	}
	if len(f.archive.keys) != 1 {
		t.Fatal("report should be archived")
	}
}

func TestGenerateUnknownAnalysisSkipsModel(t *testing.T) {
	f := newFixture(t, roadmap("x"))
	_, err := f.svc.Generate(context.Background(), "nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.llm.calls != 0 {
		t.Fatal("model must not be called")
	}
}

func TestGenerateSchemaViolationLeavesFlagUnset(t *testing.T) {
	f := newFixture(t, strings.Replace(roadmap("x"), `"HIGH"`, `"ASAP"`, 1))
	_, err := f.svc.Generate(context.Background(), f.stored.ID)
	if !errors.Is(err, contract.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	got, _ := f.analyses.Get(context.Background(), f.stored.ID)
	if got.ReportGenerated {
		t.Fatal("flag must stay false")
	}
}

func TestGenerateArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, roadmap("x"))
	f.archive.err = errors.New("bucket gone")
	if _, err := f.svc.Generate(context.Background(), f.stored.ID); err != nil {
		t.Fatalf("archive failure should be logged only, got %v", err)
	}
}

func TestConcurrentGenerationsLastWriteWins(t *testing.T) {
	f := newFixture(t, roadmap("alpha"), roadmap("beta"))
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Generate(context.Background(), f.stored.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("both generations should complete: %v", err)
		}
	}
	got, _ := f.analyses.Get(context.Background(), f.stored.ID)
	var r domain.Report
	if err := json.Unmarshal(got.ReportData, &r); err != nil {
		t.Fatal(err)
	}
	if s := r.ValidationStrategy.Summary; s != "alpha" && s != "beta" {
		t.Fatalf("report must be exactly one of the two, got %q", s)
	}
}

func TestTriggerValidatesShape(t *testing.T) {
	f := newFixture(t, roadmap("x"))
	_, err := f.svc.Trigger(context.Background(), TriggerCommand{AnalysisID: " ", Email: "not-an-email"})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
	page, _ := f.queue.List(context.Background(), "", 1, 10)
	if page.Total != 0 {
		t.Fatal("nothing should be queued")
	}
}

func TestTriggerGenerateDeliverPipeline(t *testing.T) {
	f := newFixture(t, roadmap("pipeline"))
	ctx := context.Background()
	task, err := f.svc.Trigger(ctx, TriggerCommand{AnalysisID: string(f.stored.ID), Email: "founder@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type != jobs.TypeGenerateReport {
		t.Fatalf("unexpected task type %s", task.Type)
	}

	handlers := f.svc.Handlers()
	gen, _ := f.queue.Dequeue(ctx, time.Second)
	if err := handlers[gen.Type](ctx, gen); err != nil {
		t.Fatalf("generate: %v", err)
	}
	deliver, _ := f.queue.Dequeue(ctx, time.Second)
	if deliver == nil || deliver.Type != jobs.TypeDeliverReport {
		t.Fatalf("expected deliver task, got %+v", deliver)
	}
	if err := handlers[deliver.Type](ctx, deliver); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(f.mailer.links) != 1 {
		t.Fatalf("expected one mail, got %d", len(f.mailer.links))
	}
	link := f.mailer.links[0]
	if link.Email != "founder@example.com" || link.TotalScore != 68 || link.IdeaName != "Shelf" {
		t.Fatalf("unexpected link %+v", link)
	}
	prefix := "https://launchlab.test/idea/report/" + string(f.stored.ID) + "?token="
	if !strings.HasPrefix(link.ReportURL, prefix) {
		t.Fatalf("unexpected url %s", link.ReportURL)
	}
	if f.tokens.Len() != 1 {
		t.Fatal("delivery should issue exactly one token")
	}
}

func TestGenerateWithoutEmailQueuesNothing(t *testing.T) {
	f := newFixture(t, roadmap("x"))
	ctx := context.Background()
	if _, err := f.svc.Trigger(ctx, TriggerCommand{AnalysisID: string(f.stored.ID)}); err != nil {
		t.Fatal(err)
	}
	gen, _ := f.queue.Dequeue(ctx, time.Second)
	if err := f.svc.HandleGenerate(ctx, gen); err != nil {
		t.Fatal(err)
	}
	if next, _ := f.queue.Dequeue(ctx, 10*time.Millisecond); next != nil {
		t.Fatalf("no delivery expected, got %+v", next)
	}
}

type deliveryDownQueue struct {
	jobs.Queue
}

func (q deliveryDownQueue) Enqueue(ctx context.Context, taskType string, payload any) (*jobs.Task, error) {
	if taskType == jobs.TypeDeliverReport {
		return nil, errors.New("redis: connection refused")
	}
	return q.Queue.Enqueue(ctx, taskType, payload)
}

func TestGenerateNotRetriedWhenDeliveryEnqueueFails(t *testing.T) {
	f := newFixture(t, roadmap("once"))
	f.svc.Queue = deliveryDownQueue{f.queue}
	ctx := context.Background()
	task := &jobs.Task{Payload: json.RawMessage(`{"analysis_id":"` + string(f.stored.ID) + `","email":"a@b.co"}`)}

	err := f.svc.HandleGenerate(ctx, task)
	if err == nil || !jobs.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	a, _ := f.analyses.Get(ctx, f.stored.ID)
	if !a.ReportGenerated || f.llm.calls != 1 {
		t.Fatalf("report should be stored after one model call, generated=%v calls=%d", a.ReportGenerated, f.llm.calls)
	}
}

func TestHandlerErrorsArePermanentWhenRetryCannotHelp(t *testing.T) {
	f := newFixture(t, roadmap("x"))
	ctx := context.Background()
	missing := &jobs.Task{Payload: json.RawMessage(`{"analysis_id":"missing"}`)}
	if err := f.svc.HandleGenerate(ctx, missing); !jobs.IsPermanent(err) {
		t.Fatalf("missing analysis should be permanent, got %v", err)
	}

	f.llm.err = &ai.ProviderError{Provider: "openai", Status: 503, Err: errors.New("down")}
	ok := &jobs.Task{Payload: json.RawMessage(`{"analysis_id":"` + string(f.stored.ID) + `"}`)}
	if err := f.svc.HandleGenerate(ctx, ok); err == nil || jobs.IsPermanent(err) {
		t.Fatalf("provider outage should be retryable, got %v", err)
	}

	f.mailer.err = errors.New("smtp down")
	// report not generated yet, so token issue fails with NotReady
	if err := f.svc.HandleDeliver(ctx, &jobs.Task{Payload: json.RawMessage(`{"analysis_id":"` + string(f.stored.ID) + `","email":"a@b.co"}`)}); !errors.Is(err, apperr.ErrNotReady) || !jobs.IsPermanent(err) {
		t.Fatalf("expected permanent not-ready, got %v", err)
	}
}
