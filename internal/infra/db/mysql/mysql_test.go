package mysql

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	driver "github.com/go-sql-driver/mysql"

	"github.com/bryanwahyu/launchlab/internal/infra/db/dbtest"
)

func TestDSN(t *testing.T) {
	u, _ := url.Parse("mysql://launch@db.internal/launchlab?autocommit=true")
	cfg, err := driver.ParseDSN(DSN(u, "s3cr:t@"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.User != "launch" || cfg.Passwd != "s3cr:t@" || cfg.Addr != "db.internal:3306" || cfg.DBName != "launchlab" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.ParseTime || !cfg.ClientFoundRows {
		t.Fatal("parseTime and clientFoundRows must be set")
	}
	if cfg.Params["autocommit"] != "true" {
		t.Fatalf("query params should pass through, got %v", cfg.Params)
	}
}

func TestUpsertStatement(t *testing.T) {
	if strings.Count(upsertAnalysis, "?") != 20 || strings.Contains(upsertAnalysis, "created_at=VALUES") {
		t.Fatalf("unexpected statement: %s", upsertAnalysis)
	}
}

// Runs against a live server only when LAUNCHLAB_TEST_MYSQL_URL is set.
func TestRepositories(t *testing.T) {
	raw := os.Getenv("LAUNCHLAB_TEST_MYSQL_URL")
	if raw == "" {
		t.Skip("LAUNCHLAB_TEST_MYSQL_URL not set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	pw, _ := u.User.Password()
	ctx := context.Background()
	db, err := Connect(ctx, DSN(u, pw))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := Migrate(ctx, db); err != nil {
		t.Fatal(err)
	}
	analyses := NewAnalysisRepository(db)
	dbtest.AnalysisRepository(t, analyses)
	a := dbtest.SampleAnalysis()
	if err := analyses.Save(ctx, a); err != nil {
		t.Fatal(err)
	}
	dbtest.TokenRepository(t, NewTokenRepository(db), a.ID)
}
