package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS analyses (
  id                       VARCHAR(36)  NOT NULL PRIMARY KEY,
  idea_name                VARCHAR(400) NOT NULL DEFAULT '',
  problem_statement        TEXT         NOT NULL,
  target_audience          TEXT         NOT NULL,
  unique_value_proposition TEXT         NOT NULL,
  product_description      TEXT         NOT NULL,
  total_score              INT          NOT NULL,
  validation_status        VARCHAR(32)  NOT NULL,
  market_opportunity       JSON         NOT NULL,
  competitive_advantage    JSON         NOT NULL,
  feasibility              JSON         NOT NULL,
  revenue_potential        JSON         NOT NULL,
  market_timing            JSON         NOT NULL,
  scalability              JSON         NOT NULL,
  critical_issues          JSON         NOT NULL,
  report_generated         BOOLEAN      NOT NULL DEFAULT FALSE,
  report_data              JSON         NULL,
  report_generated_at      DATETIME(6)  NULL,
  created_at               DATETIME(6)  NOT NULL,
  updated_at               DATETIME(6)  NOT NULL,
  INDEX idx_analyses_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
CREATE TABLE IF NOT EXISTS report_access_tokens (
  token       VARCHAR(64)  NOT NULL PRIMARY KEY,
  email       VARCHAR(254) NOT NULL,
  analysis_id VARCHAR(36)  NOT NULL,
  created_at  DATETIME(6)  NOT NULL,
  expires_at  DATETIME(6)  NOT NULL,
  INDEX idx_tokens_analysis_id (analysis_id),
  CONSTRAINT fk_tokens_analysis FOREIGN KEY (analysis_id) REFERENCES analyses (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables when missing. Statements run one by one since
// the DSN does not enable multiStatements.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
