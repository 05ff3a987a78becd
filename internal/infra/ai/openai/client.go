package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/contract"
	"github.com/sashabaranov/go-openai"
)

const (
	providerName     = "openai"
	DefaultModel     = "gpt-4o-mini-2024-07-18"
	defaultMaxTokens = 4096
	defaultTimeout   = 90 * time.Second
)

type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// Client generates schema-constrained completions through the chat API.
type Client struct {
	api       *openai.Client
	model     string
	timeout   time.Duration
	maxTokens int
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	c := &Client{
		api:       openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		timeout:   opts.Timeout,
		maxTokens: opts.MaxTokens,
	}
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

	creq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: float32(req.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Name,
				Description: req.Description,
				Schema:      req.Schema,
				// optional fields are not expressible in strict mode; the contract validates instead
				Strict: false,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.model) {
		creq.MaxCompletionTokens = c.maxTokens
		creq.Temperature = 0
	} else {
		creq.MaxTokens = c.maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, providerError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &contract.SchemaError{Path: "$", Reason: "no choices in completion"}
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, &ai.RefusalError{Message: choice.Message.Refusal}
	}
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return nil, &ai.RefusalError{Message: "The request was blocked by the provider's content filter."}
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return nil, &contract.SchemaError{Path: "$", Reason: "empty completion"}
	}
	return json.RawMessage(content), nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func providerError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ai.ProviderError{Provider: providerName, Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ai.ProviderError{Provider: providerName, Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &ai.ProviderError{Provider: providerName, Err: fmt.Errorf("create chat completion: %w", err)}
}
