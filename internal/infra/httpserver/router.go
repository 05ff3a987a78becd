package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appaccess "github.com/bryanwahyu/launchlab/internal/application/access"
	appanalysis "github.com/bryanwahyu/launchlab/internal/application/analysis"
	appreport "github.com/bryanwahyu/launchlab/internal/application/report"
	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/contract"
	"github.com/bryanwahyu/launchlab/internal/domain/idea"
	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
	"github.com/bryanwahyu/launchlab/internal/domain/notify"
	"github.com/bryanwahyu/launchlab/internal/infra/mail"
	"github.com/bryanwahyu/launchlab/internal/middleware"
)

const maxBody = 64 << 10

// Deps is everything the HTTP surface talks to. Limiter, Metrics and Ready
// are optional.
type Deps struct {
	Analyses *appanalysis.Service
	Reports  *appreport.Service
	Access   *appaccess.Service
	Queue    jobs.Queue
	Mailer   notify.Mailer
	// DefaultListID is used when a subscribe request has no listId.
	DefaultListID int

	Health      map[string]middleware.HealthChecker
	Ready       *middleware.Readiness
	Metrics     *middleware.Metrics
	Limiter     *middleware.RateLimiter
	AdminKeys   map[string]string
	CORSOrigins []string
	Log         *zap.Logger
}

type Router struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	r := &Router{Deps: d}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID, chimw.RealIP, middleware.RequestLogger(d.Log), chimw.Recoverer)
	if d.Metrics != nil {
		mux.Use(d.Metrics.Middleware)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(d.Health))
	if d.Ready != nil {
		mux.Get("/readyz", d.Ready.Handler)
	}
	if d.Metrics != nil {
		mux.Get("/metrics", d.Metrics.Handler)
	}

	mux.Get("/analyses/{id}", r.wrap(r.handleGetAnalysis))
	mux.Get("/report/access", r.wrap(r.handleResolve))

	// endpoint yang mahal (LLM, mail) kena rate limit
	mux.Group(func(rt chi.Router) {
		if d.Limiter != nil {
			rt.Use(d.Limiter.Middleware)
		}
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/report/trigger", r.wrap(r.handleTrigger))
		rt.Post("/report/access", r.wrap(r.handleIssue))
		rt.Post("/email/subscribe", r.wrap(r.handleSubscribe))
	})

	if len(d.AdminKeys) > 0 {
		mux.Route("/admin", func(rt chi.Router) {
			rt.Use(middleware.APIKeyAuth(d.AdminKeys))
			rt.Get("/tasks", r.wrap(r.handleListTasks))
			rt.Get("/tasks/{id}", r.wrap(r.handleGetTask))
			rt.Post("/analyses/{id}/report", r.wrap(r.handleGenerateReport))
		})
	}

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			r.writeErr(w, req, err)
		}
	}
}

func (r *Router) writeErr(w http.ResponseWriter, req *http.Request, err error) {
	var verr *apperr.ValidationError
	var refusal *ai.RefusalError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "details": verr.Fields})
	case errors.As(err, &refusal):
		middleware.WriteError(w, http.StatusBadRequest, refusal.Error())
	case errors.Is(err, ai.ErrQuotaExceeded):
		middleware.WriteError(w, http.StatusTooManyRequests, "ai quota exceeded, please try again later")
	case errors.Is(err, apperr.ErrNotReady):
		middleware.WriteError(w, http.StatusBadRequest, "report has not been generated yet")
	case errors.Is(err, apperr.ErrInvalidToken):
		middleware.WriteError(w, http.StatusNotFound, "invalid token")
	case errors.Is(err, apperr.ErrExpired):
		middleware.WriteError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, apperr.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, mail.ErrUnsupported):
		middleware.WriteError(w, http.StatusNotImplemented, "subscriptions are not available")
	default:
		// schema violations and persistence errors land here too
		fields := []zap.Field{zap.String("path", req.URL.Path), zap.Error(err)}
		if errors.Is(err, contract.ErrSchemaViolation) {
			fields = append(fields, zap.Bool("schema_violation", true))
		}
		r.Log.Error("request failed", fields...)
		middleware.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("body", "is required")
		}
		return apperr.Invalid("body", "must be a valid JSON object")
	}
	return nil
}

func pathID(req *http.Request) (string, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return "", apperr.Invalid("id", "%s", err.Error())
	}
	return id, nil
}

// POST /analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var in idea.Idea
	if err := decode(w, req, &in); err != nil {
		return err
	}
	in.Name = middleware.SanitizeString(in.Name)
	in.ProblemStatement = middleware.SanitizeString(in.ProblemStatement)
	in.TargetAudience = middleware.SanitizeString(in.TargetAudience)
	in.UniqueValueProposition = middleware.SanitizeString(in.UniqueValueProposition)
	in.ProductDescription = middleware.SanitizeString(in.ProductDescription)

	id, err := r.Analyses.Analyze(req.Context(), in)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]string{"id": string(id)})
}

// GET /analyses/{id}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	a, err := r.Analyses.Get(req.Context(), analysis.ID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// POST /report/trigger
// Body: {"analysisId": "...", "email": "..."}
func (r *Router) handleTrigger(w http.ResponseWriter, req *http.Request) error {
	var cmd appreport.TriggerCommand
	if err := decode(w, req, &cmd); err != nil {
		return err
	}
	t, err := r.Reports.Trigger(req.Context(), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "taskId": t.ID})
}

// POST /report/access
func (r *Router) handleIssue(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		AnalysisID string `json:"analysisId"`
		Email      string `json:"email"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	t, err := r.Access.Issue(req.Context(), analysis.ID(body.AnalysisID), body.Email)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"token": t.Token})
}

// GET /report/access?token=
func (r *Router) handleResolve(w http.ResponseWriter, req *http.Request) error {
	data, err := r.Access.Resolve(req.Context(), req.URL.Query().Get("token"))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	return err
}

// POST /email/subscribe
// Body: {"email": "...", "listId": 3}
func (r *Router) handleSubscribe(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email  string `json:"email"`
		ListID int    `json:"listId"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	if body.ListID == 0 {
		body.ListID = r.DefaultListID
	}
	verr := &apperr.ValidationError{}
	if !notify.ValidEmail(body.Email) {
		verr.Add("email", "must be a valid email address")
	}
	if err := middleware.ValidateListID(body.ListID); err != nil {
		verr.Add("listId", "%s", err.Error())
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	if err := r.Mailer.Subscribe(req.Context(), body.Email, body.ListID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GET /admin/tasks?page=&page_size=&status=
func (r *Router) handleListTasks(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	status := q.Get("status")
	if err := middleware.ValidateTaskStatus(status); err != nil {
		return apperr.Invalid("status", "%s", err.Error())
	}

	list, err := r.Queue.List(req.Context(), jobs.Status(status), middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /admin/tasks/{id}
func (r *Router) handleGetTask(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	t, err := r.Queue.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, t)
}

// POST /admin/analyses/{id}/report
// Generates synchronously; the caller waits for the model.
func (r *Router) handleGenerateReport(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	rep, err := r.Reports.Generate(req.Context(), analysis.ID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}
