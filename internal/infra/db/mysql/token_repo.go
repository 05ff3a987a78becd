package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bryanwahyu/launchlab/internal/domain/access"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/infra/db/record"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Save(ctx context.Context, t *access.Token) error {
	const q = "INSERT INTO report_access_tokens (" + record.TokenColumns + ") VALUES (?,?,?,?,?)"
	_, err := r.db.ExecContext(ctx, q, record.FromToken(t).Args()...)
	return err
}

func (r *TokenRepository) Get(ctx context.Context, token string) (*access.Token, error) {
	const q = "SELECT " + record.TokenColumns + " FROM report_access_tokens WHERE token=?"
	var row record.Token
	err := r.db.QueryRowContext(ctx, q, token).Scan(row.Dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("token", token)
	}
	if err != nil {
		return nil, err
	}
	return row.ToToken(), nil
}
