package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/contract"
)

const (
	providerName     = "anthropic"
	DefaultModel     = string(anthropic.ModelClaudeSonnet4_5)
	defaultMaxTokens = 8192
	defaultTimeout   = 90 * time.Second
)

// Messager is the slice of the SDK the client needs.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int64
}

// Client forces a single tool call whose input schema is the contract, so the
// tool input is the structured answer.
type Client struct {
	messages  Messager
	model     string
	timeout   time.Duration
	maxTokens int64
}

func NewClient(opts Options) *Client {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey), option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	sdk := anthropic.NewClient(reqOpts...)
	return NewClientWithMessager(&sdk.Messages, opts)
}

// NewClientWithMessager is used by tests to inject a fake SDK.
func NewClientWithMessager(m Messager, opts Options) *Client {
	c := &Client{messages: m, model: opts.Model, timeout: opts.Timeout, maxTokens: opts.MaxTokens}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	return c
}

func (c *Client) Generate(ctx context.Context, req ai.Request) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tool := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
		Properties: req.Schema.PropertyMap(),
		Required:   req.Schema.Required(),
	}, req.Name)
	if tool.OfTool != nil && req.Description != "" {
		tool.OfTool.Description = anthropic.String(req.Description)
	}

	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: req.System}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.User))},
		Temperature: anthropic.Float(req.Temperature),
		Tools:       []anthropic.ToolUnionParam{tool},
		ToolChoice:  anthropic.ToolChoiceParamOfTool(req.Name),
	})
	if err != nil {
		return nil, providerError(err)
	}

	var text strings.Builder
	for _, b := range resp.Content {
		switch b.Type {
		case "tool_use":
			if b.Name == req.Name && len(b.Input) > 0 {
				return b.Input, nil
			}
		case "text":
			text.WriteString(b.Text)
		}
	}
	if resp.StopReason == anthropic.StopReasonRefusal {
		return nil, &ai.RefusalError{Message: strings.TrimSpace(text.String())}
	}
	if text.Len() == 0 {
		return nil, &contract.SchemaError{Path: "$", Reason: "no tool call in response"}
	}
	return json.RawMessage(text.String()), nil
}

func providerError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ai.ProviderError{Provider: providerName, Status: apiErr.StatusCode, Err: err}
	}
	return &ai.ProviderError{Provider: providerName, Err: fmt.Errorf("create message: %w", err)}
}
