package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/contract"
)

type fakeMessager struct {
	response *anthropic.Message
	err      error
	params   anthropic.MessageNewParams
}

func (f *fakeMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = params
	return f.response, f.err
}

var testRequest = ai.Request{
	Name:        "thing",
	Description: "a thing",
	System:      "sys",
	User:        "usr",
	Schema:      contract.Object(contract.Field("a", contract.String()), contract.OptionalField("b", contract.String())),
	Temperature: 0.7,
}

func TestGenerateForcesToolAndReturnsInput(t *testing.T) {
	fake := &fakeMessager{response: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "tool_use", Name: "thing", Input: json.RawMessage(`{"a":"x"}`)},
		},
	}}
	c := NewClientWithMessager(fake, Options{})
	raw, err := c.Generate(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"a":"x"}` {
		t.Fatalf("unexpected payload %s", raw)
	}
	if fake.params.ToolChoice.OfTool == nil || fake.params.ToolChoice.OfTool.Name != "thing" {
		t.Fatal("tool choice should force the schema tool")
	}
	tool := fake.params.Tools[0].OfTool
	if tool == nil || len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "a" {
		t.Fatalf("unexpected tool schema: %+v", tool)
	}
	if string(fake.params.Model) != DefaultModel {
		t.Fatalf("expected default model, got %s", fake.params.Model)
	}
}

func TestGenerateRefusal(t *testing.T) {
	fake := &fakeMessager{response: &anthropic.Message{
		StopReason: anthropic.StopReasonRefusal,
		Content:    []anthropic.ContentBlockUnion{{Type: "text", Text: "I won't evaluate this."}},
	}}
	_, err := NewClientWithMessager(fake, Options{}).Generate(context.Background(), testRequest)
	var r *ai.RefusalError
	if !errors.As(err, &r) || r.Message != "I won't evaluate this." {
		t.Fatalf("expected refusal, got %v", err)
	}
}

func TestGenerateWithoutToolCall(t *testing.T) {
	fake := &fakeMessager{response: &anthropic.Message{}}
	_, err := NewClientWithMessager(fake, Options{}).Generate(context.Background(), testRequest)
	if !errors.Is(err, contract.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestGenerateWrapsTransportError(t *testing.T) {
	fake := &fakeMessager{err: errors.New("connection reset")}
	_, err := NewClientWithMessager(fake, Options{}).Generate(context.Background(), testRequest)
	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Provider != "anthropic" {
		t.Fatalf("expected provider error, got %v", err)
	}
}
