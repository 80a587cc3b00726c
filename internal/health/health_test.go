package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wsnav/internal/config"
	"wsnav/internal/session"
	"wsnav/internal/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("WSNAV_DATA_DIR", "")
	dir := t.TempDir()
	return config.Config{
		ConfigDir:        filepath.Join(dir, "config"),
		DataDir:          filepath.Join(dir, "data"),
		CacheDir:         filepath.Join(dir, "cache"),
		HiddenWorkspaces: []string{"tmp-*"},
	}
}

func seed(t *testing.T, cfg config.Config, names ...string) {
	t.Helper()
	st, err := store.Open(cfg.CatalogPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	for _, name := range names {
		if err := st.WorkspacePut(context.Background(), store.Workspace{Name: name}); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}
}

func TestCheckMissingCatalog(t *testing.T) {
	cfg := testConfig(t)
	report, err := Check(context.Background(), cfg, Options{})
	var checkErr *CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("expected CheckError, got %v", err)
	}
	if report.OK || report.Suggestion == "" {
		t.Fatalf("expected failing report with suggestion, got %+v", report)
	}

	report, err = Repair(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !report.OK || !report.DB.Exists {
		t.Fatalf("expected repaired catalog, got %+v", report)
	}
	if report.Schema.UserVersion != store.CurrentSchemaVersion() {
		t.Fatalf("unexpected schema version %d", report.Schema.UserVersion)
	}
}

func TestCheckReportsStaleSelection(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, "alpha", "tmp-1")
	sess := session.Open(cfg.SessionPath())
	if err := sess.RememberWorkspace("nope"); err != nil {
		t.Fatalf("remember: %v", err)
	}

	report, err := Check(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !report.OK || !report.Session.Stale || report.Session.Remembered != "nope" {
		t.Fatalf("expected stale selection to be reported, got %+v", report.Session)
	}
	if report.Workspaces != 2 || len(report.Hidden) != 1 || report.Hidden[0] != "tmp-1" {
		t.Fatalf("unexpected workspace counts %+v", report)
	}

	report, err = Repair(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if report.Session.Stale || !report.Session.Repaired {
		t.Fatalf("expected stale selection to be repaired, got %+v", report.Session)
	}
	if _, ok, _ := sess.RememberedWorkspace(); ok {
		t.Fatalf("expected remembered workspace to be cleared")
	}
}

func TestCheckRepairsUnreadableSession(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, "alpha")
	if err := os.WriteFile(cfg.SessionPath(), []byte("[data\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Check(context.Background(), cfg, Options{}); err == nil {
		t.Fatalf("expected unreadable session error")
	}
	report, err := Repair(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !report.Session.Repaired || !report.Session.Valid {
		t.Fatalf("expected session repair, got %+v", report.Session)
	}
}
