package analysis

import (
	"context"
	"encoding/json"
	"time"
)

// Repository port for persisting analyses and their reports
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id ID) (*Analysis, error)
	// SaveReport overwrites report_data and marks the report as generated.
	SaveReport(ctx context.Context, id ID, data json.RawMessage, at time.Time) error
}
