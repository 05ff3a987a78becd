package ai

import (
	"context"
	"encoding/json"

	"github.com/bryanwahyu/launchlab/internal/domain/contract"
)

// Request is one schema-constrained generation.
type Request struct {
	// Name identifies the schema to the provider (function / tool name).
	Name        string
	Description string
	System      string
	User        string
	Schema      *contract.Node
	Temperature float64
}

// Client returns the raw JSON the model produced for req. It does not
// validate the payload against req.Schema.
type Client interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}
