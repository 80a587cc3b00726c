package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type resolveResp struct {
	Workspace     string   `json:"workspace"`
	Rule          string   `json:"rule"`
	Exists        bool     `json:"exists"`
	Remembered    string   `json:"remembered"`
	HasRemembered bool     `json:"has_remembered"`
	Known         []string `json:"known"`
}

type planResp struct {
	URL      string `json:"url"`
	Redirect bool   `json:"redirect"`
	NotFound bool   `json:"not_found"`
	Remember *struct {
		Workspace string `json:"workspace"`
	} `json:"remember"`
}

func TestCLIWorkspacePutGetDelete(t *testing.T) {
	setXDGEnv(t, t.TempDir())

	putOut := runCLI(t, "workspace", "put", "staging", "--project", "web", "--app", "web/frontend", "--app", "api/server")
	var ws struct {
		Name     string `json:"name"`
		Projects []struct {
			Project      string   `json:"project"`
			Applications []string `json:"applications"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(putOut, &ws); err != nil {
		t.Fatalf("decode put: %v\n%s", err, putOut)
	}
	if ws.Name != "staging" {
		t.Fatalf("expected staging, got %q", ws.Name)
	}
	if len(ws.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %+v", ws.Projects)
	}

	yamlOut := runCLI(t, "workspace", "get", "staging", "--format", "yaml")
	var fromYAML map[string]any
	if err := yaml.Unmarshal(yamlOut, &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, yamlOut)
	}
	if fromYAML["name"] != "staging" {
		t.Fatalf("expected yaml name staging, got %v", fromYAML["name"])
	}

	runCLI(t, "workspace", "delete", "staging")
	errOut := runCLIExpectError(t, 1, "workspace", "get", "staging")
	if !strings.Contains(errOut, "workspace not found: staging") {
		t.Fatalf("unexpected error output: %s", errOut)
	}
}

func TestCLIWorkspacePutRejectsBadNames(t *testing.T) {
	setXDGEnv(t, t.TempDir())

	for _, name := range []string{"-lead", "trail_", "has space", "dots.bad"} {
		runCLIExpectError(t, 2, "workspace", "put", name)
	}
	runCLIExpectError(t, 2, "workspace", "put", "ok", "--app", "noslash")
}

func TestCLIBuildsSequencePerApp(t *testing.T) {
	setXDGEnv(t, t.TempDir())

	first := decodeBuild(t, runCLI(t, "build", "add", "--workspace", "staging", "--project", "web", "--app", "frontend"))
	second := decodeBuild(t, runCLI(t, "build", "add", "--workspace", "production", "--project", "web", "--app", "frontend"))
	other := decodeBuild(t, runCLI(t, "build", "add", "-w", "staging", "-p", "web", "-a", "backend"))

	if first.Version != "v1" || second.Version != "v2" || other.Version != "v1" {
		t.Fatalf("unexpected versions: %s %s %s", first.Version, second.Version, other.Version)
	}
	if !strings.HasPrefix(first.ID, "B-") {
		t.Fatalf("expected build id prefix B-, got %s", first.ID)
	}

	listOut := runCLI(t, "builds", "--workspace", "staging", "--format", "json")
	var items []BuildItem
	if err := json.Unmarshal(listOut, &items); err != nil {
		t.Fatalf("decode builds: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 staging builds, got %d", len(items))
	}
	if items[0].Application != "backend" {
		t.Fatalf("expected newest first, got %+v", items)
	}

	table := string(runCLI(t, "builds"))
	if !strings.Contains(table, "VERSION") || !strings.Contains(table, "production") {
		t.Fatalf("unexpected table:\n%s", table)
	}

	runCLIExpectError(t, 2, "build", "add", "--workspace", "staging")
}

func TestCLIWorkspacesListMarksCurrent(t *testing.T) {
	setXDGEnv(t, t.TempDir())

	runCLI(t, "build", "add", "--workspace", "staging", "--project", "web", "--app", "frontend")
	runCLI(t, "workspace", "put", "production", "--project", "api")
	runCLI(t, "visit", "/staging")

	out := runCLI(t, "workspaces", "--format", "json")
	var items []WorkspaceListItem
	if err := json.Unmarshal(out, &items); err != nil {
		t.Fatalf("decode workspaces: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 workspaces, got %d", len(items))
	}
	if items[0].Name != "production" || items[0].Current {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Name != "staging" || !items[1].Current || items[1].LatestBuild != "v1" {
		t.Fatalf("unexpected second item: %+v", items[1])
	}

	byProject := runCLI(t, "workspaces", "--project", "api", "--format", "json")
	items = nil
	if err := json.Unmarshal(byProject, &items); err != nil {
		t.Fatalf("decode workspaces: %v", err)
	}
	if len(items) != 1 || items[0].Name != "production" {
		t.Fatalf("expected only production, got %+v", items)
	}

	table := string(runCLI(t, "workspaces"))
	if !strings.Contains(table, "WORKSPACE") || !strings.Contains(table, "| *") {
		t.Fatalf("expected current marker in table:\n%s", table)
	}

	runCLIExpectError(t, 2, "workspaces", "--app", "frontend")
}

func TestCLIRootVisitResolution(t *testing.T) {
	setXDGEnv(t, t.TempDir())

	if got := string(runCLI(t, "visit", "/")); got != "/default" {
		t.Fatalf("empty catalog: expected /default, got %s", got)
	}
	if got := string(runCLI(t, "resolve")); got != "default (fallback)" {
		t.Fatalf("expected fallback, got %s", got)
	}

	runCLI(t, "workspace", "put", "zeta")
	runCLI(t, "workspace", "put", "alpha")
	if got := string(runCLI(t, "visit")); got != "/alpha" {
		t.Fatalf("expected alphabetical first, got %s", got)
	}

	runCLI(t, "workspace", "put", "default")
	runCLI(t, "forget")
	if got := string(runCLI(t, "visit", "/")); got != "/default" {
		t.Fatalf("expected default workspace, got %s", got)
	}

	runCLI(t, "visit", "/zeta")
	if got := string(runCLI(t, "visit", "/")); got != "/zeta" {
		t.Fatalf("expected remembered zeta, got %s", got)
	}

	runCLI(t, "workspace", "delete", "zeta")
	var resp resolveResp
	if err := json.Unmarshal(runCLI(t, "resolve", "--format", "json"), &resp); err != nil {
		t.Fatalf("decode resolve: %v", err)
	}
	if resp.Workspace != "default" || resp.Rule != "default" || resp.Remembered != "zeta" {
		t.Fatalf("stale selection should fall through: %+v", resp)
	}
}

func TestCLIVisitDryRunDoesNotRemember(t *testing.T) {
	setXDGEnv(t, t.TempDir())

	runCLI(t, "workspace", "put", "alpha")
	runCLI(t, "workspace", "put", "beta")
	runCLI(t, "visit", "/alpha")

	var plan planResp
	if err := json.Unmarshal(runCLI(t, "visit", "/beta", "--dry-run", "--format", "json"), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.Remember == nil || plan.Remember.Workspace != "beta" {
		t.Fatalf("expected remember effect for beta, got %+v", plan)
	}
	if got := string(runCLI(t, "visit", "/")); got != "/alpha" {
		t.Fatalf("dry run changed the selection: %s", got)
	}
}

func TestCLIVisitUnknownAndBadRoutes(t *testing.T) {
	setXDGEnv(t, t.TempDir())

	errOut := runCLIExpectError(t, 1, "visit", "/nowhere")
	if !strings.Contains(errOut, "workspace not found: nowhere") {
		t.Fatalf("unexpected error output: %s", errOut)
	}
	runCLIExpectError(t, 2, "visit", "no-slash")
	runCLIExpectError(t, 2, "visit", "/ws/p/app")
}

func TestCLISwitchKeepsPage(t *testing.T) {
	setXDGEnv(t, t.TempDir())

	runCLI(t, "build", "add", "--workspace", "staging", "--project", "web", "--app", "frontend")
	runCLI(t, "build", "add", "--workspace", "production", "--project", "web", "--app", "frontend")

	got := string(runCLI(t, "switch", "production", "--from", "/staging/web/app/frontend/builds"))
	if got != "/production/web/app/frontend/builds" {
		t.Fatalf("unexpected switch target: %s", got)
	}
	if got := string(runCLI(t, "visit", "/")); got != "/production" {
		t.Fatalf("switch should remember production, got %s", got)
	}

	errOut := runCLIExpectError(t, 1, "switch", "missing")
	if !strings.Contains(errOut, "unknown workspace") {
		t.Fatalf("unexpected error output: %s", errOut)
	}
	runCLIExpectError(t, 2, "switch")
}

func TestCLIHiddenWorkspacesSkipped(t *testing.T) {
	base := t.TempDir()
	setXDGEnv(t, base)

	configDir := filepath.Join(base, "config", "wsnav")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("hidden_workspaces = [\"aa-*\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	runCLI(t, "workspace", "put", "aa-scratch")
	runCLI(t, "workspace", "put", "beta")
	if got := string(runCLI(t, "visit", "/")); got != "/beta" {
		t.Fatalf("hidden workspace should be skipped, got %s", got)
	}

	var items []WorkspaceListItem
	if err := json.Unmarshal(runCLI(t, "workspaces", "--format", "json"), &items); err != nil {
		t.Fatalf("decode workspaces: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected hidden workspace filtered, got %+v", items)
	}
	items = nil
	if err := json.Unmarshal(runCLI(t, "workspaces", "--all", "--format", "json"), &items); err != nil {
		t.Fatalf("decode workspaces: %v", err)
	}
	if len(items) != 2 || !items[0].Hidden {
		t.Fatalf("expected hidden workspace with --all, got %+v", items)
	}

	if got := string(runCLI(t, "visit", "/aa-scratch")); got != "/aa-scratch" {
		t.Fatalf("hidden workspace should be directly reachable, got %s", got)
	}
}

func TestCLIDataDirFlag(t *testing.T) {
	base := t.TempDir()
	setXDGEnv(t, base)
	dataDir := filepath.Join(base, "elsewhere")

	runCLI(t, "--data-dir", dataDir, "workspace", "put", "alpha")
	if _, err := os.Stat(filepath.Join(dataDir, "catalog.db")); err != nil {
		t.Fatalf("expected catalog under --data-dir: %v", err)
	}
	if got := string(runCLI(t, "visit")); got != "/default" {
		t.Fatalf("default data dir should be empty, got %s", got)
	}
}

func TestCLIUsageAndUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer
	if code := Run([]string{"help"}, &out, &errOut); code != 0 {
		t.Fatalf("help exit %d", code)
	}
	if !strings.Contains(out.String(), "wsnav - workspace selection and navigation") {
		t.Fatalf("unexpected usage:\n%s", out.String())
	}

	out.Reset()
	errOut.Reset()
	if code := Run([]string{"bogus"}, &out, &errOut); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut.String(), "unknown command: bogus") {
		t.Fatalf("unexpected error output: %s", errOut.String())
	}
}

func decodeBuild(t *testing.T, data []byte) BuildItem {
	t.Helper()
	var item BuildItem
	if err := json.Unmarshal(data, &item); err != nil {
		t.Fatalf("decode build: %v\n%s", err, data)
	}
	return item
}

func runCLI(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	var errOut bytes.Buffer
	code := Run(args, &out, &errOut)
	if code != 0 {
		t.Fatalf("command %v failed (%d): %s", args, code, errOut.String())
	}
	return bytes.TrimSpace(out.Bytes())
}

func runCLIExpectError(t *testing.T, want int, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	var errOut bytes.Buffer
	code := Run(args, &out, &errOut)
	if code != want {
		t.Fatalf("command %v: expected exit %d, got %d (stderr: %s)", args, want, code, errOut.String())
	}
	return errOut.String()
}

func setXDGEnv(t testing.TB, base string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Setenv("WSNAV_DATA_DIR", "")
	t.Setenv("NO_COLOR", "1")
}
