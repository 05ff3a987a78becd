package postgres

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/bryanwahyu/launchlab/internal/infra/db/dbtest"
)

func TestDSNInjectsPassword(t *testing.T) {
	u, _ := url.Parse("postgresql://launch@db:5432/launchlab?sslmode=disable")
	got, err := url.Parse(DSN(u, "p@ss/word"))
	if err != nil {
		t.Fatal(err)
	}
	pw, ok := got.User.Password()
	if got.Scheme != "postgres" || !ok || pw != "p@ss/word" || got.User.Username() != "launch" {
		t.Fatalf("unexpected dsn %s", got.Redacted())
	}
	if got.Query().Get("sslmode") != "disable" || got.Path != "/launchlab" {
		t.Fatalf("url parts lost: %s", got.Redacted())
	}
	if u.User.String() != "launch" {
		t.Fatal("input url must not be modified")
	}
}

func TestUpsertStatement(t *testing.T) {
	if !strings.Contains(upsertAnalysis, "$20)") || strings.Contains(upsertAnalysis, "created_at=EXCLUDED") {
		t.Fatalf("unexpected statement: %s", upsertAnalysis)
	}
}

// Runs against a live server only when LAUNCHLAB_TEST_POSTGRES_URL is set.
func TestRepositories(t *testing.T) {
	raw := os.Getenv("LAUNCHLAB_TEST_POSTGRES_URL")
	if raw == "" {
		t.Skip("LAUNCHLAB_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, raw)
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
