package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bryanwahyu/launchlab/internal/infra/db/dbtest"
)

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), "memory://", "ignored")
	if err != nil {
		t.Fatal(err)
	}
	if s.Driver != "memory" || s.Ping(context.Background()) != nil || s.Migrate(context.Background()) != nil {
		t.Fatalf("unexpected store %+v", s)
	}
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ll.db")
	s, err := Open(ctx, "sqlite://"+path, "ignored")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	a := dbtest.SampleAnalysis()
	if err := s.Analyses.Save(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Analyses.Get(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open(context.Background(), "mongodb://localhost", "k"); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}
