package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
  id                       TEXT        PRIMARY KEY,
  idea_name                TEXT        NOT NULL DEFAULT '',
  problem_statement        TEXT        NOT NULL,
  target_audience          TEXT        NOT NULL,
  unique_value_proposition TEXT        NOT NULL,
  product_description      TEXT        NOT NULL,
  total_score              INTEGER     NOT NULL CHECK (total_score BETWEEN 0 AND 100),
  validation_status        TEXT        NOT NULL,
  market_opportunity       JSONB       NOT NULL,
  competitive_advantage    JSONB       NOT NULL,
  feasibility              JSONB       NOT NULL,
  revenue_potential        JSONB       NOT NULL,
  market_timing            JSONB       NOT NULL,
  scalability              JSONB       NOT NULL,
  critical_issues          JSONB       NOT NULL,
  report_generated         BOOLEAN     NOT NULL DEFAULT FALSE,
  report_data              JSONB,
  report_generated_at      TIMESTAMPTZ,
  created_at               TIMESTAMPTZ NOT NULL,
  updated_at               TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at);

CREATE TABLE IF NOT EXISTS report_access_tokens (
  token       TEXT        PRIMARY KEY,
  email       TEXT        NOT NULL,
  analysis_id TEXT        NOT NULL REFERENCES analyses (id) ON DELETE CASCADE,
  created_at  TIMESTAMPTZ NOT NULL,
  expires_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tokens_analysis_id ON report_access_tokens (analysis_id);
`

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
