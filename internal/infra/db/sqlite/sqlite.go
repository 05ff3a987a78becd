// Package sqlite stores analyses in a single SQLite file for local runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/bryanwahyu/launchlab/internal/domain/access"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/infra/db/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id                       TEXT PRIMARY KEY,
	idea_name                TEXT NOT NULL DEFAULT '',
	problem_statement        TEXT NOT NULL,
	target_audience          TEXT NOT NULL,
	unique_value_proposition TEXT NOT NULL,
	product_description      TEXT NOT NULL,
	total_score              INTEGER NOT NULL,
	validation_status        TEXT NOT NULL,
	market_opportunity       TEXT NOT NULL,
	competitive_advantage    TEXT NOT NULL,
	feasibility              TEXT NOT NULL,
	revenue_potential        TEXT NOT NULL,
	market_timing            TEXT NOT NULL,
	scalability              TEXT NOT NULL,
	critical_issues          TEXT NOT NULL DEFAULT '[]',
	report_generated         BOOLEAN NOT NULL DEFAULT 0,
	report_data              TEXT,
	report_generated_at      DATETIME,
	created_at               DATETIME NOT NULL,
	updated_at               DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS report_access_tokens (
	token       TEXT PRIMARY KEY,
	email       TEXT NOT NULL,
	analysis_id TEXT NOT NULL REFERENCES analyses (id) ON DELETE CASCADE,
	created_at  DATETIME NOT NULL,
	expires_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tokens_analysis_id ON report_access_tokens (analysis_id);
`

// Open opens (or creates) the database file at path.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type AnalysisRepository struct {
	db *sqlx.DB
}

func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

var upsertAnalysis = func() string {
	cols := record.Columns(record.AnalysisColumns)
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}
	var sets []string
	for _, c := range record.MutableAnalysisColumns() {
		sets = append(sets, c+"=excluded."+c)
	}
	return "INSERT INTO analyses (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(named, ", ") +
		") ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
}()

func (r *AnalysisRepository) Save(ctx context.Context, a *analysis.Analysis) error {
	row, err := record.FromAnalysis(a)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx, upsertAnalysis, row)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, id analysis.ID) (*analysis.Analysis, error) {
	var row record.Analysis
	err := r.db.GetContext(ctx, &row, "SELECT "+record.AnalysisColumns+" FROM analyses WHERE id = ?", string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("analysis", string(id))
	}
	if err != nil {
		return nil, err
	}
	return row.ToAnalysis()
}

func (r *AnalysisRepository) SaveReport(ctx context.Context, id analysis.ID, data json.RawMessage, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE analyses SET report_data = ?, report_generated = 1, report_generated_at = ?, updated_at = ? WHERE id = ?`,
		string(data), at, at, string(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("analysis", string(id))
	}
	return nil
}

type TokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Save(ctx context.Context, t *access.Token) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO report_access_tokens (`+record.TokenColumns+`)
		 VALUES (:token, :email, :analysis_id, :created_at, :expires_at)`,
		record.FromToken(t))
	return err
}

func (r *TokenRepository) Get(ctx context.Context, token string) (*access.Token, error) {
	var row record.Token
	err := r.db.GetContext(ctx, &row, "SELECT "+record.TokenColumns+" FROM report_access_tokens WHERE token = ?", token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("token", token)
	}
	if err != nil {
		return nil, err
	}
	return row.ToToken(), nil
}
