package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/contract"
)

type scripted struct {
	errs  []error
	calls int
}

func (s *scripted) Generate(context.Context, ai.Request) (json.RawMessage, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return nil, s.errs[s.calls-1]
	}
	return json.RawMessage(`{}`), nil
}

func TestRetriesTransientFailures(t *testing.T) {
	cases := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"success first", nil, 1, false},
		{"429 then ok", []error{&ai.ProviderError{Status: 429, Err: errors.New("rate")}}, 2, false},
		{"two 500s then ok", []error{&ai.ProviderError{Status: 500, Err: errors.New("a")}, &ai.ProviderError{Status: 502, Err: errors.New("b")}}, 3, false},
		{"timeouts exhaust", []error{
			fmt.Errorf("call: %w", context.DeadlineExceeded),
			fmt.Errorf("call: %w", context.DeadlineExceeded),
			fmt.Errorf("call: %w", context.DeadlineExceeded),
		}, 3, true},
		{"400 not retried", []error{&ai.ProviderError{Status: 400, Err: errors.New("bad")}}, 1, true},
		{"refusal not retried", []error{&ai.RefusalError{Message: "no"}}, 1, true},
		{"schema not retried", []error{&contract.SchemaError{Path: "$", Reason: "empty"}}, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := &scripted{errs: tc.errs}
			c := Wrap(next, 3, 0, zaptest.NewLogger(t))
			_, err := c.Generate(context.Background(), ai.Request{Name: "x"})
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if next.calls != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, next.calls)
			}
		})
	}
}

func TestStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	next := &scripted{errs: []error{&ai.ProviderError{Status: 503, Err: errors.New("down")}}}
	if _, err := Wrap(next, 3, 0, nil).Generate(ctx, ai.Request{}); err == nil {
		t.Fatal("expected error")
	}
	if next.calls != 1 {
		t.Fatalf("expected a single call, got %d", next.calls)
	}
}
