package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	appaccess "github.com/bryanwahyu/launchlab/internal/application/access"
	appanalysis "github.com/bryanwahyu/launchlab/internal/application/analysis"
	appreport "github.com/bryanwahyu/launchlab/internal/application/report"
	"github.com/bryanwahyu/launchlab/internal/config"
	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
	"github.com/bryanwahyu/launchlab/internal/infra/ai/anthropic"
	"github.com/bryanwahyu/launchlab/internal/infra/ai/openai"
	"github.com/bryanwahyu/launchlab/internal/infra/ai/retry"
	"github.com/bryanwahyu/launchlab/internal/infra/db"
	"github.com/bryanwahyu/launchlab/internal/infra/httpserver"
	"github.com/bryanwahyu/launchlab/internal/infra/mail"
	"github.com/bryanwahyu/launchlab/internal/infra/queue"
	"github.com/bryanwahyu/launchlab/internal/infra/storage"
	"github.com/bryanwahyu/launchlab/internal/middleware"
)

const (
	llmAttempts    = 3
	llmBackoff     = time.Second
	shutdownBudget = 10 * time.Second
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}

func newLLM(cfg *config.Config, logger *zap.Logger) ai.Client {
	var client ai.Client
	switch cfg.LLM.Provider {
	case "anthropic":
		client = anthropic.NewClient(anthropic.Options{
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			BaseURL:   cfg.LLM.BaseURL,
			Timeout:   cfg.LLM.Timeout,
			MaxTokens: int64(cfg.LLM.MaxTokens),
		})
	default:
		client = openai.NewClient(openai.Options{
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			BaseURL:   cfg.LLM.BaseURL,
			Timeout:   cfg.LLM.Timeout,
			MaxTokens: cfg.LLM.MaxTokens,
		})
	}
	logger.Info("llm provider ready", zap.String("provider", cfg.LLM.Provider), zap.Duration("timeout", cfg.LLM.Timeout))
	return retry.Wrap(client, llmAttempts, llmBackoff, logger.Named("llm"))
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.Persistence.URL, cfg.Persistence.Key)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("store ready", zap.String("driver", store.Driver))

	health := map[string]middleware.HealthChecker{"store": middleware.CheckFunc(store.Ping)}

	var q jobs.Queue
	if cfg.Redis.URL != "" {
		rdb, err := queue.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		rq := queue.NewRedis(rdb, cfg.Redis.Prefix)
		health["redis"] = middleware.CheckFunc(rq.Ping)
		q = rq
	} else {
		logger.Warn("REDIS_URL not set, using in-memory queue; queued reports are lost on restart")
		q = queue.NewMemory()
	}

	mailer, err := mail.New(mail.Options{
		Provider:   cfg.Email.Provider,
		APIKey:     cfg.Email.APIKey,
		BaseURL:    cfg.Email.BaseURL,
		From:       cfg.Email.From,
		FromName:   cfg.Email.FromName,
		TemplateID: cfg.Email.TemplateID,
		SMTPAddr:   cfg.Email.SMTPAddr,
		SMTPUser:   cfg.Email.SMTPUser,
	}, logger.Named("mail"))
	if err != nil {
		return err
	}

	llm := newLLM(cfg, logger)

	analyses := appanalysis.NewService(store.Analyses, llm, logger.Named("analysis"))
	access := appaccess.NewService(store.Analyses, store.Tokens, cfg.TokenTTL(), logger.Named("access"))
	reports := appreport.NewService(store.Analyses, llm, q, access, mailer, cfg.Server.PublicURL, logger.Named("report"))

	if cfg.Minio.Endpoint != "" {
		archive, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		}, logger.Named("archive"))
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		reports.Archive = archive
		health["archive"] = middleware.CheckFunc(archive.Ping)
	}

	metrics := middleware.NewMetrics()
	worker := queue.NewWorker(q, queue.WorkerOptions{
		Concurrency: cfg.Worker.Concurrency,
		MaxAttempts: cfg.Worker.MaxAttempts,
		TaskTimeout: cfg.Worker.TaskTimeout,
		PollWait:    cfg.Worker.PollWait,
	}, logger.Named("queue"))
	for taskType, h := range reports.Handlers() {
		worker.Handle(taskType, h)
	}
	worker.Observe(metrics)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSecond)
	defer limiter.Stop()
	ready := &middleware.Readiness{}

	handler := httpserver.NewRouter(httpserver.Deps{
		Analyses:      analyses,
		Reports:       reports,
		Access:        access,
		Queue:         q,
		Mailer:        mailer,
		DefaultListID: cfg.Email.ListID,
		Health:        health,
		Ready:         ready,
		Metrics:       metrics,
		Limiter:       limiter,
		AdminKeys:     cfg.Admin.APIKeys,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Log:           logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// analysis calls wait on the model
		WriteTimeout: cfg.LLM.Timeout*llmAttempts + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(workerCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	ready.Set(true)

	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
	case err := <-serveErr:
		stopWorkers()
		wg.Wait()
		return err
	}

	ready.Set(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownBudget)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	stopWorkers()
	wg.Wait()
	logger.Info("bye")
	return nil
}
