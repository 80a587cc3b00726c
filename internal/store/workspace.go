package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Names are alphanumeric runs joined by '-' or '_'; they never start or end
// with a separator.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9]+([_-]+[A-Za-z0-9]+)*$`)

const maxNameLen = 64

type Workspace struct {
	Name      string       `json:"name" yaml:"name"`
	Projects  []ProjectRef `json:"projects,omitempty" yaml:"projects,omitempty"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" yaml:"updated_at"`
}

type ProjectRef struct {
	Project      string   `json:"project" yaml:"project"`
	Applications []string `json:"applications,omitempty" yaml:"applications,omitempty"`
}

func ValidateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s name is required", ErrInvalidName, kind)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: %s name %q is longer than %d characters", ErrInvalidName, kind, name, maxNameLen)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %s name %q must be letters, digits, '-' or '_' and cannot start or end with '-' or '_'", ErrInvalidName, kind, name)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// WorkspacePut creates or updates a workspace. Project refs are merged into
// what is already stored, so a put without projects keeps existing ones.
func (s *Store) WorkspacePut(ctx context.Context, ws Workspace) error {
	name := normalizeName(ws.Name)
	if err := ValidateName("workspace", name); err != nil {
		return err
	}
	for _, ref := range ws.Projects {
		if err := ValidateName("project", ref.Project); err != nil {
			return err
		}
		for _, app := range ref.Applications {
			if err := ValidateName("application", app); err != nil {
				return err
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := nowString()
	if err := ensureWorkspaceTx(ctx, tx, name, now); err != nil {
		return err
	}
	for _, ref := range ws.Projects {
		if err := attachTx(ctx, tx, name, ref.Project, "", now); err != nil {
			return err
		}
		for _, app := range ref.Applications {
			if err := attachTx(ctx, tx, name, ref.Project, app, now); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func ensureWorkspaceTx(ctx context.Context, tx *sql.Tx, name, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO workspaces (name, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at
	`, name, now, now)
	return err
}

func attachTx(ctx context.Context, tx *sql.Tx, workspace, project, application, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO workspace_projects (workspace, project, application, created_at)
		VALUES (?, ?, ?, ?)
	`, workspace, project, application, now)
	return err
}

func (s *Store) WorkspaceGet(ctx context.Context, name string) (Workspace, error) {
	name = normalizeName(name)
	row := s.db.QueryRowContext(ctx, `
		SELECT name, created_at, updated_at FROM workspaces WHERE name = ?
	`, name)
	ws, err := scanWorkspace(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Workspace{}, fmt.Errorf("workspace %q: %w", name, ErrNotFound)
		}
		return Workspace{}, err
	}
	projects, err := s.loadProjects(ctx, `WHERE workspace = ?`, name)
	if err != nil {
		return Workspace{}, err
	}
	ws.Projects = projects[ws.Name]
	return ws, nil
}

func (s *Store) WorkspaceDelete(ctx context.Context, name string) error {
	name = normalizeName(name)
	res, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE name = ?`, name)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("workspace %q: %w", name, ErrNotFound)
	}
	return nil
}

// WorkspaceList returns every workspace ordered by name.
func (s *Store) WorkspaceList(ctx context.Context) ([]Workspace, error) {
	workspaces, err := s.queryWorkspaces(ctx, `SELECT name, created_at, updated_at FROM workspaces ORDER BY name`)
	if err != nil {
		return nil, err
	}
	projects, err := s.loadProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range workspaces {
		workspaces[i].Projects = projects[workspaces[i].Name]
	}
	return workspaces, nil
}

// WorkspaceListByProject returns the workspaces a project is attached to.
// Each result carries only that project's ref.
func (s *Store) WorkspaceListByProject(ctx context.Context, project string) ([]Workspace, error) {
	workspaces, err := s.queryWorkspaces(ctx, `
		SELECT w.name, w.created_at, w.updated_at FROM workspaces w
		WHERE EXISTS (SELECT 1 FROM workspace_projects p WHERE p.workspace = w.name AND p.project = ?)
		ORDER BY w.name
	`, project)
	if err != nil {
		return nil, err
	}
	projects, err := s.loadProjects(ctx, `WHERE project = ?`, project)
	if err != nil {
		return nil, err
	}
	for i := range workspaces {
		workspaces[i].Projects = projects[workspaces[i].Name]
	}
	return workspaces, nil
}

// WorkspaceListByApp returns the workspaces an application is attached to.
func (s *Store) WorkspaceListByApp(ctx context.Context, project, application string) ([]Workspace, error) {
	workspaces, err := s.queryWorkspaces(ctx, `
		SELECT w.name, w.created_at, w.updated_at FROM workspaces w
		WHERE EXISTS (
			SELECT 1 FROM workspace_projects p
			WHERE p.workspace = w.name AND p.project = ? AND p.application = ?
		)
		ORDER BY w.name
	`, project, application)
	if err != nil {
		return nil, err
	}
	for i := range workspaces {
		workspaces[i].Projects = []ProjectRef{{Project: project, Applications: []string{application}}}
	}
	return workspaces, nil
}

// WorkspaceNames lists workspace names only. It is what navigation resolves
// against.
func (s *Store) WorkspaceNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM workspaces ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) queryWorkspaces(ctx context.Context, query string, args ...any) ([]Workspace, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (s *Store) loadProjects(ctx context.Context, where string, args ...any) (map[string][]ProjectRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workspace, project, application FROM workspace_projects `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byWorkspace := map[string]map[string][]string{}
	for rows.Next() {
		var workspace, project, application string
		if err := rows.Scan(&workspace, &project, &application); err != nil {
			return nil, err
		}
		refs, ok := byWorkspace[workspace]
		if !ok {
			refs = map[string][]string{}
			byWorkspace[workspace] = refs
		}
		apps := refs[project]
		if application != "" {
			apps = append(apps, application)
		}
		refs[project] = apps
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string][]ProjectRef, len(byWorkspace))
	for workspace, refs := range byWorkspace {
		list := make([]ProjectRef, 0, len(refs))
		for project, apps := range refs {
			sort.Strings(apps)
			list = append(list, ProjectRef{Project: project, Applications: apps})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Project < list[j].Project })
		out[workspace] = list
	}
	return out, nil
}

func scanWorkspace(scan func(dest ...any) error) (Workspace, error) {
	var ws Workspace
	var createdAt, updatedAt string
	if err := scan(&ws.Name, &createdAt, &updatedAt); err != nil {
		return Workspace{}, err
	}
	ws.CreatedAt = parseTime(createdAt)
	ws.UpdatedAt = parseTime(updatedAt)
	return ws, nil
}
