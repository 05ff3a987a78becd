// Package memory keeps analyses and tokens in process memory. It backs
// memory:// persistence URLs and the service tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/access"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/infra/db/record"
)

type AnalysisRepository struct {
	mu   sync.RWMutex
	rows map[analysis.ID]*record.Analysis
}

func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{rows: map[analysis.ID]*record.Analysis{}}
}

func (r *AnalysisRepository) Save(_ context.Context, a *analysis.Analysis) error {
	row, err := record.FromAnalysis(a)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.rows[a.ID] = row
	r.mu.Unlock()
	return nil
}

func (r *AnalysisRepository) Get(_ context.Context, id analysis.ID) (*analysis.Analysis, error) {
	r.mu.RLock()
	row, ok := r.rows[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("analysis", string(id))
	}
	return row.ToAnalysis()
}

func (r *AnalysisRepository) SaveReport(_ context.Context, id analysis.ID, data json.RawMessage, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return apperr.NotFound("analysis", string(id))
	}
	// copy so readers holding the old row see a consistent value
	next := *row
	next.ReportData.String, next.ReportData.Valid = string(data), true
	next.ReportGenerated = true
	next.ReportGeneratedAt.Time, next.ReportGeneratedAt.Valid = at, true
	next.UpdatedAt = at
	r.rows[id] = &next
	return nil
}

type TokenRepository struct {
	mu   sync.RWMutex
	rows map[string]access.Token
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{rows: map[string]access.Token{}}
}

func (r *TokenRepository) Save(_ context.Context, t *access.Token) error {
	r.mu.Lock()
	r.rows[t.Token] = *t
	r.mu.Unlock()
	return nil
}

func (r *TokenRepository) Get(_ context.Context, token string) (*access.Token, error) {
	r.mu.RLock()
	t, ok := r.rows[token]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("token", token)
	}
	return &t, nil
}

// Len is the number of stored tokens.
func (r *TokenRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
