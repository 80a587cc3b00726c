package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Build struct {
	ID          string    `json:"id" yaml:"id"`
	Workspace   string    `json:"workspace" yaml:"workspace"`
	Project     string    `json:"project" yaml:"project"`
	Application string    `json:"application" yaml:"application"`
	Sequence    int       `json:"sequence" yaml:"sequence"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Version is the label shown for a build, v1 for an application's first.
func (b Build) Version() string {
	return fmt.Sprintf("v%d", b.Sequence)
}

type BuildFilter struct {
	Workspace   string
	Project     string
	Application string
	Limit       int
}

// BuildPut records a new build. The workspace is created if needed and the
// project and application are attached to it. Sequence numbers count per
// application across all workspaces.
func (s *Store) BuildPut(ctx context.Context, b Build) (Build, error) {
	b.Workspace = normalizeName(b.Workspace)
	b.Project = normalizeName(b.Project)
	b.Application = normalizeName(b.Application)
	if err := ValidateName("workspace", b.Workspace); err != nil {
		return Build{}, err
	}
	if err := ValidateName("project", b.Project); err != nil {
		return Build{}, err
	}
	if err := ValidateName("application", b.Application); err != nil {
		return Build{}, err
	}
	if b.ID == "" {
		b.ID = NewID("B")
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := nowString()
	if err := ensureWorkspaceTx(ctx, tx, b.Workspace, now); err != nil {
		return Build{}, err
	}
	if err := attachTx(ctx, tx, b.Workspace, b.Project, "", now); err != nil {
		return Build{}, err
	}
	if err := attachTx(ctx, tx, b.Workspace, b.Project, b.Application, now); err != nil {
		return Build{}, err
	}

	row := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0) + 1 FROM builds WHERE project = ? AND application = ?
	`, b.Project, b.Application)
	if err := row.Scan(&b.Sequence); err != nil {
		return Build{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO builds (build_id, workspace, project, application, sequence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.Workspace, b.Project, b.Application, b.Sequence, b.CreatedAt.UTC().Format(timeLayout)); err != nil {
		return Build{}, err
	}
	if err := tx.Commit(); err != nil {
		return Build{}, err
	}
	return b, nil
}

// BuildList returns builds newest first.
func (s *Store) BuildList(ctx context.Context, filter BuildFilter) ([]Build, error) {
	var clauses []string
	var args []any
	if v := normalizeName(filter.Workspace); v != "" {
		clauses = append(clauses, "workspace = ?")
		args = append(args, v)
	}
	if v := normalizeName(filter.Project); v != "" {
		clauses = append(clauses, "project = ?")
		args = append(args, v)
	}
	if v := normalizeName(filter.Application); v != "" {
		clauses = append(clauses, "application = ?")
		args = append(args, v)
	}

	query := `SELECT build_id, workspace, project, application, sequence, created_at FROM builds`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, build_id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Build
	for rows.Next() {
		b, err := scanBuild(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LatestBuild returns the newest build in a workspace.
func (s *Store) LatestBuild(ctx context.Context, workspace string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT build_id, workspace, project, application, sequence, created_at
		FROM builds WHERE workspace = ?
		ORDER BY created_at DESC, build_id DESC
		LIMIT 1
	`, normalizeName(workspace))
	b, err := scanBuild(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Build{}, ErrNotFound
		}
		return Build{}, err
	}
	return b, nil
}

func scanBuild(scan func(dest ...any) error) (Build, error) {
	var b Build
	var createdAt string
	if err := scan(&b.ID, &b.Workspace, &b.Project, &b.Application, &b.Sequence, &createdAt); err != nil {
		return Build{}, err
	}
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}
