package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/infra/db/record"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

var upsertAnalysis = func() string {
	sets := make([]string, 0, record.AnalysisColumnCount)
	for _, c := range record.MutableAnalysisColumns() {
		sets = append(sets, c+"=VALUES("+c+")")
	}
	return "INSERT INTO analyses (" + record.AnalysisColumns + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?,", record.AnalysisColumnCount), ",") +
		") ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}()

// Save inserts an analysis record, or rewrites it when the id exists
func (r *AnalysisRepository) Save(ctx context.Context, a *analysis.Analysis) error {
	row, err := record.FromAnalysis(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertAnalysis, row.Args()...)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, id analysis.ID) (*analysis.Analysis, error) {
	q := "SELECT " + record.AnalysisColumns + " FROM analyses WHERE id=?"
	var row record.Analysis
	err := r.db.QueryRowContext(ctx, q, string(id)).Scan(row.Dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("analysis", string(id))
	}
	if err != nil {
		return nil, err
	}
	return row.ToAnalysis()
}

// SaveReport overwrites the report; last write wins
func (r *AnalysisRepository) SaveReport(ctx context.Context, id analysis.ID, data json.RawMessage, at time.Time) error {
	const q = `
UPDATE analyses
SET report_data=?, report_generated=TRUE, report_generated_at=?, updated_at=?
WHERE id=?;
`
	res, err := r.db.ExecContext(ctx, q, string(data), at, at, string(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("analysis", string(id))
	}
	return nil
}
