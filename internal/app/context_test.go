package app_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"tiller/internal/app"
	"tiller/internal/config"
	"tiller/internal/db"
	"tiller/internal/migrate"
	"tiller/internal/repo"
)

const workspaceYAML = `journal:
  id: leadership
  owner: "sam"
  timezone: America/Los_Angeles

questions:
  quick:
    - "What stood out?"
  weekly:
    - "What went well this week?"
`

func openTestDB(t *testing.T, workspace string) *sql.DB {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestResolveSeedsFromWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiller.yml"), []byte(workspaceYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	r := repo.Repo{DB: openTestDB(t, dir)}
	ctx := context.Background()

	id, cfg, err := app.ResolveJournalConfig(ctx, dir, "", r)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "leadership" {
		t.Fatalf("journal id = %q, want leadership", id)
	}
	if cfg.Journal.Timezone != "America/Los_Angeles" {
		t.Fatalf("timezone = %q", cfg.Journal.Timezone)
	}

	// The seeded config must now live in the DB and win on a second resolve.
	stored, err := r.GetJournalConfig(ctx, "leadership")
	if err != nil {
		t.Fatalf("get stored config: %v", err)
	}
	if stored.Journal.Owner != "sam" {
		t.Fatalf("stored owner = %q", stored.Journal.Owner)
	}
}

func TestResolveDefaultsWithoutWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	r := repo.Repo{DB: openTestDB(t, dir)}

	id, cfg, err := app.ResolveJournalConfig(context.Background(), dir, "", r)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "journal" {
		t.Fatalf("journal id = %q, want journal", id)
	}
	want := config.Default("journal")
	if len(cfg.Themes.Catalog) != len(want.Themes.Catalog) {
		t.Fatalf("theme catalog size = %d, want %d", len(cfg.Themes.Catalog), len(want.Themes.Catalog))
	}
}

func TestResolveRejectsBrokenWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiller.yml"), []byte("journal:\n  owner: nobody\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	r := repo.Repo{DB: openTestDB(t, dir)}

	if _, _, err := app.ResolveJournalConfig(context.Background(), dir, "", r); err == nil {
		t.Fatal("expected error for config missing journal id")
	}
}
