package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
)

// MemoryQueue is a process-local queue used when no Redis URL is configured.
// Tasks do not survive a restart.
type MemoryQueue struct {
	mu      sync.Mutex
	tasks   map[string]*jobs.Task
	order   []string
	pending []string
	signal  chan struct{}
}

func NewMemory() *MemoryQueue {
	return &MemoryQueue{tasks: map[string]*jobs.Task{}, signal: make(chan struct{}, 1)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, taskType string, payload any) (*jobs.Task, error) {
	t, err := newTask(taskType, payload)
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	q.tasks[t.ID] = t
	q.order = append(q.order, t.ID)
	q.pending = append(q.pending, t.ID)
	out := *t
	q.mu.Unlock()
	q.wake()
	return &out, nil
}

func (q *MemoryQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, wait time.Duration) (*jobs.Task, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			id := q.pending[0]
			q.pending = q.pending[1:]
			t := q.tasks[id]
			t.Status = jobs.StatusRunning
			t.Attempts++
			t.UpdatedAt = time.Now().UTC()
			out := *t
			more := len(q.pending) > 0
			q.mu.Unlock()
			if more {
				q.wake()
			}
			return &out, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-q.signal:
		}
	}
}

func (q *MemoryQueue) Complete(_ context.Context, t *jobs.Task) error {
	return q.update(t.ID, func(st *jobs.Task) {
		st.Status = jobs.StatusDone
		st.Error = ""
	})
}

func (q *MemoryQueue) Fail(_ context.Context, t *jobs.Task, cause error, retry bool) error {
	err := q.update(t.ID, func(st *jobs.Task) {
		st.Error = errorText(cause)
		st.Status = jobs.StatusFailed
		if retry {
			st.Status = jobs.StatusPending
		}
	})
	if err != nil || !retry {
		return err
	}
	q.mu.Lock()
	q.pending = append(q.pending, t.ID)
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *MemoryQueue) update(id string, fn func(*jobs.Task)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.tasks[id]
	if !ok {
		return apperr.NotFound("task", id)
	}
	fn(st)
	st.UpdatedAt = time.Now().UTC()
	return nil
}

func (q *MemoryQueue) Get(_ context.Context, id string) (*jobs.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task", id)
	}
	out := *t
	return &out, nil
}

func (q *MemoryQueue) List(_ context.Context, status jobs.Status, page, pageSize int) (*jobs.Page, error) {
	q.mu.Lock()
	var all []*jobs.Task
	for i := len(q.order) - 1; i >= 0; i-- {
		t := q.tasks[q.order[i]]
		if status != "" && t.Status != status {
			continue
		}
		c := *t
		all = append(all, &c)
	}
	q.mu.Unlock()
	return paginate(all, page, pageSize), nil
}

func newTask(taskType string, payload any) (*jobs.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &jobs.Task{
		ID:        uuid.New().String(),
		Type:      taskType,
		Payload:   raw,
		Status:    jobs.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func paginate(all []*jobs.Task, page, pageSize int) *jobs.Page {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total := len(all)
	p := &jobs.Page{
		Data:       []*jobs.Task{},
		Page:       page,
		PageSize:   pageSize,
		Total:      int64(total),
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	start := (page - 1) * pageSize
	if start >= total {
		return p
	}
	end := min(start+pageSize, total)
	p.Data = all[start:end]
	return p
}
