package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/domain/ai"
	"github.com/bryanwahyu/launchlab/internal/domain/contract"
)

// maxLoggedPayload bounds the raw model output written to the log.
const maxLoggedPayload = 8 << 10

// GenerateStructured runs req and decodes the answer into out. This is the
// only place model output is parsed; a payload that breaks req.Schema is
// logged and returned as a schema violation.
func GenerateStructured(ctx context.Context, client ai.Client, log *zap.Logger, req ai.Request, out any) error {
	raw, err := client.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := contract.Parse(raw, req.Schema, out); err != nil {
		payload := string(raw)
		if len(payload) > maxLoggedPayload {
			payload = payload[:maxLoggedPayload] + "...(truncated)"
		}
		log.Error("llm response violates schema",
			zap.String("schema", req.Name),
			zap.Error(err),
			zap.String("raw", payload))
		return err
	}
	return nil
}
