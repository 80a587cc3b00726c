package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wsnav/internal/config"
	"wsnav/internal/session"
	"wsnav/internal/store"
)

type Options struct {
	Repair bool
}

type Report struct {
	OK         bool          `json:"ok"`
	DB         DBReport      `json:"db"`
	Schema     SchemaReport  `json:"schema"`
	Session    SessionReport `json:"session"`
	Workspaces int           `json:"workspaces"`
	Hidden     []string      `json:"hidden,omitempty"`
	Error      string        `json:"error,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

type DBReport struct {
	Path      string `json:"path"`
	Exists    bool   `json:"exists"`
	SizeBytes int64  `json:"size_bytes"`
}

type SchemaReport struct {
	UserVersion     int    `json:"user_version"`
	CurrentVersion  int    `json:"current_version"`
	LastMigrationAt string `json:"last_migration_at,omitempty"`
}

// SessionReport describes the remembered selection. A stale selection is
// not an error; root navigation already falls through it.
type SessionReport struct {
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	Valid      bool   `json:"valid"`
	Remembered string `json:"remembered,omitempty"`
	Stale      bool   `json:"stale,omitempty"`
	Repaired   bool   `json:"repaired,omitempty"`
}

type CheckError struct {
	Message    string
	Suggestion string
	Err        error
}

func (e *CheckError) Error() string {
	if e.Suggestion == "" {
		return e.Message
	}
	return fmt.Sprintf("%s. %s", e.Message, e.Suggestion)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

func Check(ctx context.Context, cfg config.Config, opts Options) (Report, error) {
	return check(ctx, cfg, opts)
}

func Repair(ctx context.Context, cfg config.Config, opts Options) (Report, error) {
	opts.Repair = true
	return check(ctx, cfg, opts)
}

func check(ctx context.Context, cfg config.Config, opts Options) (Report, error) {
	report := Report{}

	dbPath := cfg.CatalogPath()
	report.DB.Path = dbPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		msg, hint := mapDBError(err)
		return reportError(report, msg, hint, err)
	}

	if fi, err := os.Stat(dbPath); err != nil {
		if !os.IsNotExist(err) {
			msg, hint := mapDBError(err)
			return reportError(report, msg, hint, err)
		}
		if !opts.Repair {
			return reportError(report, "catalog not initialized", "Run: wsnav doctor --repair", err)
		}
	} else {
		report.DB.Exists = true
		report.DB.SizeBytes = fi.Size()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		msg, hint := mapDBError(err)
		return reportError(report, msg, hint, err)
	}
	defer st.Close()

	if fi, err := os.Stat(dbPath); err == nil {
		report.DB.Exists = true
		report.DB.SizeBytes = fi.Size()
	}

	userVersion, err := st.SchemaVersion(ctx)
	if err != nil {
		return reportError(report, "schema check failed", "Try: wsnav doctor --json", err)
	}
	report.Schema.UserVersion = userVersion
	report.Schema.CurrentVersion = store.CurrentSchemaVersion()
	if lastMigration, err := st.GetMeta(ctx, "last_migration_at"); err == nil {
		report.Schema.LastMigrationAt = formatTimeRFC3339(lastMigration)
	}

	names, err := st.WorkspaceNames(ctx)
	if err != nil {
		return reportError(report, "workspace list failed", "Try: wsnav doctor --json", err)
	}
	report.Workspaces = len(names)
	hidden := cfg.Hidden()
	for _, name := range names {
		if hidden.Match(name) {
			report.Hidden = append(report.Hidden, name)
		}
	}

	sess := session.Open(cfg.SessionPath())
	report.Session.Path = sess.Path()
	if _, err := os.Stat(sess.Path()); err == nil {
		report.Session.Exists = true
	}
	data, err := sess.Load()
	if err != nil {
		if !opts.Repair {
			return reportError(report, "session file is unreadable", "Run: wsnav doctor --repair", err)
		}
		if err := os.Remove(sess.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return reportError(report, "session repair failed", "Remove "+sess.Path()+" by hand", err)
		}
		report.Session.Repaired = true
		data = session.Data{}
	}
	report.Session.Valid = true

	if remembered, ok := data.Workspace(); ok {
		report.Session.Remembered = remembered
		if !contains(names, remembered) {
			report.Session.Stale = true
			if opts.Repair {
				if err := sess.ForgetWorkspace(); err != nil {
					return reportError(report, "session repair failed", "Try: wsnav forget", err)
				}
				report.Session.Repaired = true
				report.Session.Stale = false
				report.Session.Remembered = ""
			}
		}
	}

	report.OK = true
	return report, nil
}

func contains(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}

func mapDBError(err error) (string, string) {
	if isDBLocked(err) {
		return "database is locked", "Close other wsnav processes and retry (busy_timeout=3000ms)"
	}
	if isReadOnly(err) {
		return "cannot create catalog under XDG path", "Check permissions or set XDG_DATA_HOME"
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "schema migration failed") {
		reason := strings.TrimSpace(strings.TrimPrefix(err.Error(), "schema migration failed:"))
		if reason == "" {
			reason = err.Error()
		}
		return fmt.Sprintf("schema migration failed: %s", reason), "Try: wsnav doctor --json"
	}
	return "catalog open error", "Run: wsnav doctor --json"
}

func reportError(report Report, message, suggestion string, err error) (Report, error) {
	report.OK = false
	report.Error = message
	report.Suggestion = suggestion
	return report, &CheckError{Message: message, Suggestion: suggestion, Err: err}
}

func isDBLocked(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database is busy")
}

func isReadOnly(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "read-only") || strings.Contains(msg, "readonly") || strings.Contains(msg, "permission denied")
}

func formatTimeRFC3339(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.Format(time.RFC3339Nano)
	}
	return value
}
