package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"recipe-lens/api/internal/analyze"
)

func TestSafeDSNSummary(t *testing.T) {
	tests := []struct{ in, want string }{
		{"postgres://chef:secret@db:5432/recipes?sslmode=disable", "host=db port=5432 db=recipes user=chef"},
		{"postgres://chef:secret@db/recipes", "host=db db=recipes user=chef"},
		{"://bad", "dsn: parse error"},
	}
	for _, tt := range tests {
		if got := SafeDSNSummary(tt.in); got != tt.want {
			t.Errorf("SafeDSNSummary(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestAnalysisRepoIntegration runs against a real Postgres container. It requires Docker.
func TestAnalysisRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Skipf("Docker not available: %v", err)
	}

	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("recipes_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	// Migrate must be idempotent.
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	repo := NewAnalysisRepo(db)

	if _, err := repo.FindByHash(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByHash(missing) err = %v, want ErrNotFound", err)
	}

	recs := []analyze.Record{
		{ImageHash: "aaa", Source: "http", Ingredients: []string{"tomato", "egg"}, Recipe: "Shakshuka", RecipeOK: true},
		{ImageHash: "bbb", Source: "telegram", Ingredients: nil, Recipe: "Sorry", RecipeOK: false},
		{ImageHash: "aaa", Source: "cli", Ingredients: []string{"tomato"}, Recipe: "Error generating recipe: boom", RecipeOK: false},
	}
	for _, rec := range recs {
		if err := repo.Record(ctx, rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d rows, want 2", len(recent))
	}
	if recent[0].Source != "cli" || recent[1].Source != "telegram" {
		t.Fatalf("Recent order = %s, %s", recent[0].Source, recent[1].Source)
	}
	if recent[1].Ingredients == nil || len(recent[1].Ingredients) != 0 {
		t.Fatalf("nil ingredients should round-trip as empty, got %#v", recent[1].Ingredients)
	}

	got, err := repo.FindByHash(ctx, "aaa")
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if got.Source != "cli" || got.RecipeOK || len(got.Ingredients) != 1 || got.Ingredients[0] != "tomato" {
		t.Fatalf("FindByHash = %+v", got)
	}

	if _, err := repo.PurgeOlderThan(ctx, 0); err == nil {
		t.Fatal("PurgeOlderThan(0) should fail")
	}
	if _, err := db.ExecContext(ctx, `update analyses set created_at = now() - interval '2 days' where source = 'http'`); err != nil {
		t.Fatalf("age row: %v", err)
	}
	n, err := repo.PurgeOlderThan(ctx, 24*time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("PurgeOlderThan = %d, %v; want 1, nil", n, err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `select count(*) from analyses`).Scan(&count); err != nil && !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}
