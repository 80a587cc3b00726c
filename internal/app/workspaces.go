package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"wsnav/internal/store"
)

type WorkspaceListItem struct {
	Name        string    `json:"name" yaml:"name"`
	Current     bool      `json:"current" yaml:"current"`
	Hidden      bool      `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Projects    []string  `json:"projects,omitempty" yaml:"projects,omitempty"`
	LatestBuild string    `json:"latest_build,omitempty" yaml:"latest_build,omitempty"`
	LastActive  time.Time `json:"last_active,omitempty" yaml:"last_active,omitempty"`
}

func runWorkspaces(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("workspaces", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	project := fs.String("project", "", "Only workspaces containing this project")
	app := fs.String("app", "", "Only workspaces containing this application (requires --project)")
	all := fs.Bool("all", false, "Include hidden workspaces")
	format := fs.String("format", "table", "Output format: table|json|yaml")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(env.errOut, "unexpected args: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}
	formatValue, err := parseFormat(*format, "table", "json", "yaml")
	if err != nil {
		fmt.Fprintln(env.errOut, err.Error())
		return 2
	}
	projectName := strings.TrimSpace(*project)
	appName := strings.TrimSpace(*app)
	if appName != "" && projectName == "" {
		fmt.Fprintln(env.errOut, "--app requires --project")
		return 2
	}

	cfg, st, code := env.setup()
	if code != 0 {
		return code
	}
	defer st.Close()
	defer env.sync()

	ctx := context.Background()
	var workspaces []store.Workspace
	switch {
	case appName != "":
		workspaces, err = st.WorkspaceListByApp(ctx, projectName, appName)
	case projectName != "":
		workspaces, err = st.WorkspaceListByProject(ctx, projectName)
	default:
		workspaces, err = st.WorkspaceList(ctx)
	}
	if err != nil {
		fmt.Fprintf(env.errOut, "workspaces error: %v\n", err)
		return 1
	}

	remembered, _, err := openSession(cfg).RememberedWorkspace()
	if err != nil {
		env.log().Warn("session unreadable", zap.Error(err))
	}
	hidden := cfg.Hidden()

	items := make([]WorkspaceListItem, 0, len(workspaces))
	for _, ws := range workspaces {
		item := WorkspaceListItem{
			Name:    ws.Name,
			Current: ws.Name == remembered,
			Hidden:  hidden.Match(ws.Name),
		}
		if item.Hidden && !*all {
			continue
		}
		for _, ref := range ws.Projects {
			item.Projects = append(item.Projects, ref.Project)
		}
		latest, err := st.LatestBuild(ctx, ws.Name)
		switch {
		case err == nil:
			item.LatestBuild = latest.Version()
			item.LastActive = latest.CreatedAt
		case !errors.Is(err, store.ErrNotFound):
			fmt.Fprintf(env.errOut, "latest build error: %v\n", err)
			return 1
		}
		items = append(items, item)
	}

	if code, done := writeStructured(env.out, env.errOut, formatValue, items); done {
		return code
	}
	writeWorkspacesTable(env, items)
	return 0
}

func writeWorkspacesTable(env *cmdEnv, items []WorkspaceListItem) {
	maxProjects := 48
	if cols := terminalColumns(); cols > 0 && cols-50 > 16 {
		maxProjects = cols - 50
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		current := ""
		if item.Current {
			current = "*"
		}
		projects := strings.Join(item.Projects, ",")
		if projects == "" {
			projects = "-"
		}
		latest := item.LatestBuild
		if latest == "" {
			latest = "-"
		}
		rows = append(rows, []string{
			current,
			item.Name,
			truncateMiddle(projects, maxProjects),
			latest,
			relativeTime(item.LastActive),
		})
	}
	writeTable(env.out, []string{"", "WORKSPACE", "PROJECTS", "LATEST BUILD", "LAST ACTIVE"}, rows)
}

func runWorkspace(env *cmdEnv, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(env.errOut, "missing subcommand: put|get|delete")
		return 2
	}
	switch strings.ToLower(args[0]) {
	case "put", "create":
		return runWorkspacePut(env, args[1:])
	case "get", "show":
		return runWorkspaceGet(env, args[1:])
	case "delete", "rm":
		return runWorkspaceDelete(env, args[1:])
	default:
		fmt.Fprintf(env.errOut, "unknown workspace subcommand: %s\n", args[0])
		return 2
	}
}

func runWorkspacePut(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("workspace put", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	projects := fs.StringSlice("project", nil, "Attach a project (repeatable)")
	apps := fs.StringSlice("app", nil, "Attach an application as <project>/<app> (repeatable)")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	name, ok := singleArg(env, fs.Args(), "workspace name")
	if !ok {
		return 2
	}

	refs, err := projectRefs(*projects, *apps)
	if err != nil {
		fmt.Fprintln(env.errOut, err.Error())
		return 2
	}

	_, st, code := env.setup()
	if code != 0 {
		return code
	}
	defer st.Close()
	defer env.sync()

	ctx := context.Background()
	if err := st.WorkspacePut(ctx, store.Workspace{Name: name, Projects: refs}); err != nil {
		if errors.Is(err, store.ErrInvalidName) {
			fmt.Fprintln(env.errOut, err.Error())
			return 2
		}
		fmt.Fprintf(env.errOut, "workspace put error: %v\n", err)
		return 1
	}
	ws, err := st.WorkspaceGet(ctx, name)
	if err != nil {
		fmt.Fprintf(env.errOut, "workspace get error: %v\n", err)
		return 1
	}
	env.log().Info("workspace saved", zap.String("workspace", ws.Name), zap.Int("projects", len(ws.Projects)))
	return writeJSON(env.out, env.errOut, ws)
}

func runWorkspaceGet(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("workspace get", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	format := fs.String("format", "json", "Output format: json|yaml")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	name, ok := singleArg(env, fs.Args(), "workspace name")
	if !ok {
		return 2
	}
	formatValue, err := parseFormat(*format, "json", "yaml")
	if err != nil {
		fmt.Fprintln(env.errOut, err.Error())
		return 2
	}

	_, st, code := env.setup()
	if code != 0 {
		return code
	}
	defer st.Close()
	defer env.sync()

	ws, err := st.WorkspaceGet(context.Background(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(env.errOut, "workspace not found: %s\n", name)
			return 1
		}
		fmt.Fprintf(env.errOut, "workspace get error: %v\n", err)
		return 1
	}
	code, _ = writeStructured(env.out, env.errOut, formatValue, ws)
	return code
}

func runWorkspaceDelete(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("workspace delete", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	name, ok := singleArg(env, fs.Args(), "workspace name")
	if !ok {
		return 2
	}

	_, st, code := env.setup()
	if code != 0 {
		return code
	}
	defer st.Close()
	defer env.sync()

	if err := st.WorkspaceDelete(context.Background(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(env.errOut, "workspace not found: %s\n", name)
			return 1
		}
		fmt.Fprintf(env.errOut, "workspace delete error: %v\n", err)
		return 1
	}
	// A remembered selection pointing here goes stale; root navigation
	// falls through it on the next visit.
	env.log().Info("workspace deleted", zap.String("workspace", name))
	return writeJSON(env.out, env.errOut, map[string]string{"workspace": name, "status": "deleted"})
}

func projectRefs(projects, apps []string) ([]store.ProjectRef, error) {
	byProject := map[string][]string{}
	var order []string
	add := func(project string) {
		if _, ok := byProject[project]; !ok {
			byProject[project] = nil
			order = append(order, project)
		}
	}
	for _, project := range projects {
		project = strings.TrimSpace(project)
		if project == "" {
			continue
		}
		add(project)
	}
	for _, raw := range apps {
		project, app, ok := strings.Cut(strings.TrimSpace(raw), "/")
		if !ok || project == "" || app == "" {
			return nil, fmt.Errorf("--app must be <project>/<app>, got %q", raw)
		}
		add(project)
		byProject[project] = append(byProject[project], app)
	}
	refs := make([]store.ProjectRef, 0, len(order))
	for _, project := range order {
		refs = append(refs, store.ProjectRef{Project: project, Applications: byProject[project]})
	}
	return refs, nil
}

func singleArg(env *cmdEnv, args []string, what string) (string, bool) {
	if len(args) == 0 {
		fmt.Fprintf(env.errOut, "missing %s\n", what)
		return "", false
	}
	if len(args) > 1 {
		fmt.Fprintf(env.errOut, "unexpected args: %s\n", strings.Join(args[1:], " "))
		return "", false
	}
	return strings.TrimSpace(args[0]), true
}

func parseExit(err error) int {
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	return 2
}
