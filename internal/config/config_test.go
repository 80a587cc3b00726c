package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSave(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "cache"))
	t.Setenv("WSNAV_DATA_DIR", "")

	// Load default (should succeed with defaults even if file missing)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load default failed: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected default log level warn, got %s", cfg.LogLevel)
	}
	if cfg.WatchDebounceMS != 250 {
		t.Errorf("Expected default debounce 250, got %d", cfg.WatchDebounceMS)
	}
	if len(cfg.HiddenWorkspaces) != 0 {
		t.Errorf("Expected no hidden workspaces, got %v", cfg.HiddenWorkspaces)
	}
	if got := cfg.CatalogPath(); got != filepath.Join(tmpDir, "data", "wsnav", "catalog.db") {
		t.Errorf("unexpected catalog path %s", got)
	}

	cfg.LogLevel = "debug"
	cfg.HiddenWorkspaces = []string{"tmp-*"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cfg2, err := Load()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if cfg2.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg2.LogLevel)
	}
	if len(cfg2.HiddenWorkspaces) != 1 || cfg2.HiddenWorkspaces[0] != "tmp-*" {
		t.Errorf("Expected hidden workspaces [tmp-*], got %v", cfg2.HiddenWorkspaces)
	}

	// Missing config dir should be created on Save
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "new-config"))
	cfg3, _ := Load()
	if err := cfg3.Save(); err != nil {
		t.Errorf("Expected Save to create dir, got error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "new-config", "wsnav", "config.toml")); err != nil {
		t.Error("Config file not created in new dir")
	}
}

func TestDataDirOverrideNotPersisted(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "cache"))
	t.Setenv("WSNAV_DATA_DIR", "")

	SetDataDirOverride("")
	defer SetDataDirOverride("")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	persistedDataDir := filepath.Join(tmpDir, "persisted-data")
	cfg.DataDir = persistedDataDir
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	overrideDir := filepath.Join(tmpDir, "override-data")
	SetDataDirOverride(overrideDir)

	cfg2, err := Load()
	if err != nil {
		t.Fatalf("Reload with override failed: %v", err)
	}
	if cfg2.EffectiveDataDir() != overrideDir {
		t.Fatalf("expected effective data dir %s, got %s", overrideDir, cfg2.EffectiveDataDir())
	}
	if cfg2.SessionPath() != filepath.Join(overrideDir, "session.toml") {
		t.Fatalf("unexpected session path %s", cfg2.SessionPath())
	}
	if err := cfg2.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(cfg2.Path())
	if err != nil {
		t.Fatalf("Read config failed: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, `data_dir = "`+persistedDataDir+`"`) {
		t.Fatalf("expected persisted data_dir %q in config.toml", persistedDataDir)
	}
	if strings.Contains(text, overrideDir) {
		t.Fatalf("runtime override data_dir %q leaked into config.toml", overrideDir)
	}
}

func TestDataDirEnv(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "cache"))
	envDir := filepath.Join(tmpDir, "env-data")
	t.Setenv("WSNAV_DATA_DIR", envDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CatalogPath() != filepath.Join(envDir, "catalog.db") {
		t.Fatalf("expected env data dir, got %s", cfg.CatalogPath())
	}
	if _, err := os.Stat(envDir); err != nil {
		t.Fatalf("expected data dir to be created: %v", err)
	}
}

func TestHiddenMatcher(t *testing.T) {
	cfg := Config{HiddenWorkspaces: []string{"tmp-*", "!tmp-keep", " ", "scratch"}}
	hidden := cfg.Hidden()

	cases := map[string]bool{
		"tmp-1":    true,
		"tmp-keep": false,
		"scratch":  true,
		"staging":  false,
		"default":  false,
	}
	for name, want := range cases {
		if got := hidden.Match(name); got != want {
			t.Errorf("Match(%q) = %v, want %v", name, got, want)
		}
	}

	got := hidden.Filter([]string{"alpha", "tmp-1", "tmp-keep", "scratch"})
	if strings.Join(got, ",") != "alpha,tmp-keep" {
		t.Fatalf("unexpected filter result %v", got)
	}

	var none Config
	if none.Hidden().Match("tmp-1") {
		t.Fatalf("empty config should hide nothing")
	}
}
