// Package jobs is the durable background work port.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Task types handled by the worker pool.
const (
	TypeGenerateReport = "report.generate"
	TypeDeliverReport  = "report.deliver"
)

// Task is one unit of background work. Payload is decoded by its handler.
type Task struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Status    Status          `json:"status"`
	Attempts  int             `json:"attempts"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ReportPayload is carried by both report task types.
type ReportPayload struct {
	AnalysisID string `json:"analysis_id"`
	Email      string `json:"email,omitempty"`
}

// Page is a slice of tasks plus paging metadata.
type Page struct {
	Data       []*Task `json:"data"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	Total      int64   `json:"totalItems"`
	TotalPages int     `json:"totalPages"`
}

// Queue port
type Queue interface {
	Enqueue(ctx context.Context, taskType string, payload any) (*Task, error)
	// Dequeue blocks up to wait and returns nil when nothing arrived.
	Dequeue(ctx context.Context, wait time.Duration) (*Task, error)
	Complete(ctx context.Context, t *Task) error
	// Fail records cause; with retry the task goes back to pending.
	Fail(ctx context.Context, t *Task, cause error, retry bool) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, status Status, page, pageSize int) (*Page, error)
}

// Handler processes one task type.
type Handler func(ctx context.Context, t *Task) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
