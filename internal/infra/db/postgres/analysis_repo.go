package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
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
	placeholders := make([]string, record.AnalysisColumnCount)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	var sets []string
	for _, c := range record.MutableAnalysisColumns() {
		sets = append(sets, c+"=EXCLUDED."+c)
	}
	return "INSERT INTO analyses (" + record.AnalysisColumns + ") VALUES (" + strings.Join(placeholders, ",") +
		") ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
}()

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *analysis.Analysis) error {
	row, err := record.FromAnalysis(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertAnalysis, row.Args()...)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, id analysis.ID) (*analysis.Analysis, error) {
	q := "SELECT " + record.AnalysisColumns + " FROM analyses WHERE id=$1"
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

func (r *AnalysisRepository) SaveReport(ctx context.Context, id analysis.ID, data json.RawMessage, at time.Time) error {
	const q = `
UPDATE analyses
SET report_data=$1, report_generated=TRUE, report_generated_at=$2, updated_at=$2
WHERE id=$3;
`
	res, err := r.db.ExecContext(ctx, q, string(data), at, string(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("analysis", string(id))
	}
	return nil
}
