package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
)

const (
	defaultPrefix = "launchlab:"
	taskTTL       = 7 * 24 * time.Hour // tasks expire after 7 days
)

// RedisQueue stores each task as JSON under its own key. Ids move from the
// pending list to the processing list on dequeue, so a crash mid-task leaves
// the id where Recover can find it.
type RedisQueue struct {
	rdb    *redis.Client
	prefix string
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx2).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func NewRedis(rdb *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisQueue{rdb: rdb, prefix: prefix}
}

func (q *RedisQueue) taskKey(id string) string { return q.prefix + "task:" + id }
func (q *RedisQueue) indexKey() string        { return q.prefix + "tasks:index" }
func (q *RedisQueue) pendingKey() string      { return q.prefix + "tasks:pending" }
func (q *RedisQueue) processingKey() string   { return q.prefix + "tasks:processing" }

func (q *RedisQueue) Enqueue(ctx context.Context, taskType string, payload any) (*jobs.Task, error) {
	t, err := newTask(taskType, payload)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, q.taskKey(t.ID), data, taskTTL)
	pipe.ZAdd(ctx, q.indexKey(), redis.Z{Score: float64(t.CreatedAt.UnixMilli()), Member: t.ID})
	pipe.LPush(ctx, q.pendingKey(), t.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return t, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*jobs.Task, error) {
	id, err := q.rdb.BLMove(ctx, q.pendingKey(), q.processingKey(), "RIGHT", "LEFT", wait).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	t, err := q.load(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		// task record expired; drop the dangling id
		q.rdb.LRem(ctx, q.processingKey(), 1, id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Status = jobs.StatusRunning
	t.Attempts++
	if err := q.store(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (q *RedisQueue) Complete(ctx context.Context, t *jobs.Task) error {
	t.Status = jobs.StatusDone
	t.Error = ""
	if err := q.store(ctx, t); err != nil {
		return err
	}
	return q.rdb.LRem(ctx, q.processingKey(), 1, t.ID).Err()
}

func (q *RedisQueue) Fail(ctx context.Context, t *jobs.Task, cause error, retry bool) error {
	t.Error = errorText(cause)
	t.Status = jobs.StatusFailed
	if retry {
		t.Status = jobs.StatusPending
	}
	if err := q.store(ctx, t); err != nil {
		return err
	}
	pipe := q.rdb.TxPipeline()
	pipe.LRem(ctx, q.processingKey(), 1, t.ID)
	if retry {
		pipe.LPush(ctx, q.pendingKey(), t.ID)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Recover puts ids left in the processing list back on the pending list.
// Call it once at startup, before workers run.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		id, err := q.rdb.LMove(ctx, q.processingKey(), q.pendingKey(), "RIGHT", "LEFT").Result()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("recover: %w", err)
		}
		if t, err := q.load(ctx, id); err == nil {
			t.Status = jobs.StatusPending
			_ = q.store(ctx, t)
		}
		n++
	}
}

func (q *RedisQueue) Get(ctx context.Context, id string) (*jobs.Task, error) {
	return q.load(ctx, id)
}

// List returns tasks ordered by creation time descending.
func (q *RedisQueue) List(ctx context.Context, status jobs.Status, page, pageSize int) (*jobs.Page, error) {
	ids, err := q.rdb.ZRevRange(ctx, q.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	var all []*jobs.Task
	var expired []any
	for _, id := range ids {
		t, err := q.load(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			expired = append(expired, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if status != "" && t.Status != status {
			continue
		}
		all = append(all, t)
	}
	if len(expired) > 0 {
		q.rdb.ZRem(ctx, q.indexKey(), expired...)
	}
	return paginate(all, page, pageSize), nil
}

// Ping is used by the readiness check.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

func (q *RedisQueue) load(ctx context.Context, id string) (*jobs.Task, error) {
	data, err := q.rdb.Get(ctx, q.taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.NotFound("task", id)
	}
	if err != nil {
		return nil, err
	}
	var t jobs.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	return &t, nil
}

func (q *RedisQueue) store(ctx context.Context, t *jobs.Task) error {
	t.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return q.rdb.Set(ctx, q.taskKey(t.ID), data, taskTTL).Err()
}
