package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"wsnav/internal/store"
)

func runBuild(env *cmdEnv, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(env.errOut, "missing subcommand: add")
		return 2
	}
	switch strings.ToLower(args[0]) {
	case "add":
		return runBuildAdd(env, args[1:])
	default:
		fmt.Fprintf(env.errOut, "unknown build subcommand: %s\n", args[0])
		return 2
	}
}

func runBuildAdd(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("build add", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	workspace := fs.StringP("workspace", "w", "", "Workspace the build belongs to")
	project := fs.StringP("project", "p", "", "Project name")
	app := fs.StringP("app", "a", "", "Application name")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(env.errOut, "unexpected args: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}
	if strings.TrimSpace(*workspace) == "" || strings.TrimSpace(*project) == "" || strings.TrimSpace(*app) == "" {
		fmt.Fprintln(env.errOut, "--workspace, --project and --app are required")
		return 2
	}

	_, st, code := env.setup()
	if code != 0 {
		return code
	}
	defer st.Close()
	defer env.sync()

	build, err := st.BuildPut(context.Background(), store.Build{
		Workspace:   strings.TrimSpace(*workspace),
		Project:     strings.TrimSpace(*project),
		Application: strings.TrimSpace(*app),
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidName) {
			fmt.Fprintln(env.errOut, err.Error())
			return 2
		}
		fmt.Fprintf(env.errOut, "build add error: %v\n", err)
		return 1
	}
	env.log().Info("build recorded",
		zap.String("id", build.ID),
		zap.String("workspace", build.Workspace),
		zap.String("version", build.Version()),
	)
	return writeJSON(env.out, env.errOut, buildView(build))
}

type BuildItem struct {
	ID          string `json:"id" yaml:"id"`
	Workspace   string `json:"workspace" yaml:"workspace"`
	Project     string `json:"project" yaml:"project"`
	Application string `json:"application" yaml:"application"`
	Version     string `json:"version" yaml:"version"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

func buildView(b store.Build) BuildItem {
	return BuildItem{
		ID:          b.ID,
		Workspace:   b.Workspace,
		Project:     b.Project,
		Application: b.Application,
		Version:     b.Version(),
		CreatedAt:   b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func runBuilds(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("builds", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	workspace := fs.StringP("workspace", "w", "", "Filter by workspace")
	project := fs.StringP("project", "p", "", "Filter by project")
	app := fs.StringP("app", "a", "", "Filter by application")
	limit := fs.Int("limit", 20, "Max builds to show (0 = all)")
	format := fs.String("format", "table", "Output format: table|json|yaml")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(env.errOut, "unexpected args: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}
	if *limit < 0 {
		fmt.Fprintln(env.errOut, "--limit must be >= 0")
		return 2
	}
	formatValue, err := parseFormat(*format, "table", "json", "yaml")
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

	builds, err := st.BuildList(context.Background(), store.BuildFilter{
		Workspace:   strings.TrimSpace(*workspace),
		Project:     strings.TrimSpace(*project),
		Application: strings.TrimSpace(*app),
		Limit:       *limit,
	})
	if err != nil {
		fmt.Fprintf(env.errOut, "builds error: %v\n", err)
		return 1
	}

	items := make([]BuildItem, 0, len(builds))
	for _, b := range builds {
		items = append(items, buildView(b))
	}
	if code, done := writeStructured(env.out, env.errOut, formatValue, items); done {
		return code
	}

	rows := make([][]string, 0, len(builds))
	for _, b := range builds {
		rows = append(rows, []string{b.Workspace, b.Project, b.Application, b.Version(), relativeTime(b.CreatedAt), b.ID})
	}
	writeTable(env.out, []string{"WORKSPACE", "PROJECT", "APP", "VERSION", "CREATED", "ID"}, rows)
	return 0
}
