package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
)

type WorkerOptions struct {
	Concurrency int
	MaxAttempts int
	TaskTimeout time.Duration
	// PollWait bounds each blocking dequeue so shutdown is noticed.
	PollWait time.Duration
}

// Observer is told how every task ended.
type Observer interface {
	TaskFinished(taskType string, ok bool, d time.Duration)
}

// Worker pulls tasks from a queue and runs the handler registered for their type.
type Worker struct {
	queue    jobs.Queue
	handlers map[string]jobs.Handler
	opts     WorkerOptions
	observer Observer
	log      *zap.Logger
}

func NewWorker(q jobs.Queue, opts WorkerOptions, log *zap.Logger) *Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 5 * time.Minute
	}
	if opts.PollWait <= 0 {
		opts.PollWait = 2 * time.Second
	}
	return &Worker{queue: q, handlers: map[string]jobs.Handler{}, opts: opts, log: log}
}

// Handle registers h for taskType. Call before Run.
func (w *Worker) Handle(taskType string, h jobs.Handler) {
	w.handlers[taskType] = h
}

// Observe sets an optional observer. Call before Run.
func (w *Worker) Observe(o Observer) { w.observer = o }

// Run blocks until ctx is cancelled and every in-flight task has finished.
func (w *Worker) Run(ctx context.Context) {
	if r, ok := w.queue.(interface {
		Recover(context.Context) (int, error)
	}); ok {
		n, err := r.Recover(ctx)
		if err != nil {
			w.log.Error("recover orphaned tasks", zap.Error(err))
		} else if n > 0 {
			w.log.Info("requeued orphaned tasks", zap.Int("count", n))
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}
	wg.Wait()
	w.log.Info("workers stopped")
}

func (w *Worker) loop(ctx context.Context, slot int) {
	for ctx.Err() == nil {
		t, err := w.queue.Dequeue(ctx, w.opts.PollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("dequeue failed", zap.Int("slot", slot), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if t != nil {
			w.process(ctx, t)
		}
	}
}

func (w *Worker) process(ctx context.Context, t *jobs.Task) {
	start := time.Now()
	log := w.log.With(zap.String("task_id", t.ID), zap.String("type", t.Type), zap.Int("attempt", t.Attempts))
	// bookkeeping must land even while shutting down
	bg := context.WithoutCancel(ctx)

	h, ok := w.handlers[t.Type]
	if !ok {
		log.Error("no handler for task type")
		_ = w.queue.Fail(bg, t, fmt.Errorf("no handler for %q", t.Type), false)
		w.finished(t, false, start)
		return
	}

	err := w.run(ctx, h, t)
	if err == nil {
		if err := w.queue.Complete(bg, t); err != nil {
			log.Error("mark task done", zap.Error(err))
		}
		log.Info("task done", zap.Duration("took", time.Since(start)))
		w.finished(t, true, start)
		return
	}

	retry := !jobs.IsPermanent(err) && t.Attempts < w.opts.MaxAttempts
	if ferr := w.queue.Fail(bg, t, err, retry); ferr != nil {
		log.Error("record task failure", zap.Error(ferr))
	}
	if retry {
		log.Warn("task failed, will retry", zap.Error(err))
	} else {
		log.Error("task failed", zap.Error(err))
	}
	w.finished(t, false, start)
}

func (w *Worker) run(ctx context.Context, h jobs.Handler, t *jobs.Task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, w.opts.TaskTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = jobs.Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return h(ctx, t)
}

func (w *Worker) finished(t *jobs.Task, ok bool, start time.Time) {
	if w.observer != nil {
		w.observer.TaskFinished(t.Type, ok, time.Since(start))
	}
}
