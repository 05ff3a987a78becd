package postgres

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

// DSN injects the password into a postgres:// URL.
func DSN(u *url.URL, password string) string {
	c := *u
	c.Scheme = "postgres"
	c.User = url.UserPassword(u.User.Username(), password)
	return c.String()
}

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
