package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
)

// exerciseQueue checks the lifecycle every queue must support.
func exerciseQueue(t *testing.T, q jobs.Queue) {
	ctx := context.Background()

	empty, err := q.Dequeue(ctx, 50*time.Millisecond)
	if err != nil || empty != nil {
		t.Fatalf("expected empty queue, got %v %v", empty, err)
	}

	first, err := q.Enqueue(ctx, jobs.TypeGenerateReport, jobs.ReportPayload{AnalysisID: "a1", Email: "x@y.co"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.Enqueue(ctx, jobs.TypeDeliverReport, jobs.ReportPayload{AnalysisID: "a2"}); err != nil {
		t.Fatal(err)
	}

	got, err := q.Dequeue(ctx, time.Second)
	if err != nil || got == nil {
		t.Fatalf("dequeue: %v %v", got, err)
	}
	if got.ID != first.ID || got.Status != jobs.StatusRunning || got.Attempts != 1 {
		t.Fatalf("expected first task running, got %+v", got)
	}
	var p jobs.ReportPayload
	if err := json.Unmarshal(got.Payload, &p); err != nil || p.Email != "x@y.co" {
		t.Fatalf("payload lost: %s", got.Payload)
	}

	if err := q.Fail(ctx, got, errors.New("llm down"), true); err != nil {
		t.Fatal(err)
	}
	second, _ := q.Dequeue(ctx, time.Second)
	if second == nil || second.Type != jobs.TypeDeliverReport {
		t.Fatalf("expected the deliver task next, got %+v", second)
	}
	if err := q.Complete(ctx, second); err != nil {
		t.Fatal(err)
	}

	retried, _ := q.Dequeue(ctx, time.Second)
	if retried == nil || retried.ID != first.ID || retried.Attempts != 2 {
		t.Fatalf("expected retried first task, got %+v", retried)
	}
	if err := q.Fail(ctx, retried, errors.New("still down"), false); err != nil {
		t.Fatal(err)
	}

	stored, err := q.Get(ctx, first.ID)
	if err != nil || stored.Status != jobs.StatusFailed || stored.Error != "still down" {
		t.Fatalf("unexpected stored task %+v %v", stored, err)
	}
	if _, err := q.Get(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	failed, err := q.List(ctx, jobs.StatusFailed, 1, 10)
	if err != nil || failed.Total != 1 || failed.Data[0].ID != first.ID {
		t.Fatalf("unexpected failed list %+v %v", failed, err)
	}
	all, _ := q.List(ctx, "", 1, 1)
	if all.Total != 2 || len(all.Data) != 1 || all.TotalPages != 2 {
		t.Fatalf("unexpected paging %+v", all)
	}
}

func TestMemoryQueue(t *testing.T) {
	exerciseQueue(t, NewMemory())
}

func TestMemoryDequeueWakesOnEnqueue(t *testing.T) {
	q := NewMemory()
	got := make(chan *jobs.Task, 1)
	go func() {
		task, _ := q.Dequeue(context.Background(), 5*time.Second)
		got <- task
	}()
	time.Sleep(20 * time.Millisecond)
	if _, err := q.Enqueue(context.Background(), "x", nil); err != nil {
		t.Fatal(err)
	}
	select {
	case task := <-got:
		if task == nil {
			t.Fatal("expected a task")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not wake up")
	}
}

func TestMemoryDequeueHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Dequeue(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

// Runs against a live server only when LAUNCHLAB_TEST_REDIS_URL is set.
func TestRedisQueue(t *testing.T) {
	url := os.Getenv("LAUNCHLAB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LAUNCHLAB_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := Connect(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	defer rdb.Close()
	prefix := "launchlab-test:" + time.Now().Format("150405.000000") + ":"
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
	})
	q := NewRedis(rdb, prefix)
	exerciseQueue(t, q)

	// a task left in processing is requeued by Recover
	if _, err := q.Enqueue(ctx, "x", nil); err != nil {
		t.Fatal(err)
	}
	orphan, _ := q.Dequeue(ctx, time.Second)
	if orphan == nil {
		t.Fatal("expected a task")
	}
	n, err := q.Recover(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one recovered task, got %d %v", n, err)
	}
	again, _ := q.Dequeue(ctx, time.Second)
	if again == nil || again.ID != orphan.ID {
		t.Fatalf("expected recovered task, got %+v", again)
	}
}
