package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"wsnav/internal/navigate"
)

func runVisit(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("visit", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	dryRun := fs.Bool("dry-run", false, "Show the plan without remembering the workspace")
	format := fs.String("format", "text", "Output format: text|json|yaml")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	path := "/"
	switch len(fs.Args()) {
	case 0:
	case 1:
		path = fs.Args()[0]
	default:
		fmt.Fprintln(env.errOut, "visit takes at most one path")
		return 2
	}
	formatValue, err := parseFormat(*format, "text", "json", "yaml")
	if err != nil {
		fmt.Fprintln(env.errOut, err.Error())
		return 2
	}

	cfg, st, code := env.setup()
	if code != 0 {
		return code
	}
	defer st.Close()
	defer env.sync()

	nav := env.navigator(cfg, st)
	ctx := context.Background()
	var plan navigate.Plan
	if *dryRun {
		plan, err = nav.Plan(ctx, path)
	} else {
		plan, err = nav.Visit(ctx, path)
	}
	if err != nil {
		if errors.Is(err, navigate.ErrBadRoute) {
			fmt.Fprintln(env.errOut, err.Error())
			return 2
		}
		fmt.Fprintf(env.errOut, "visit error: %v\n", err)
		return 1
	}
	return writePlan(env, formatValue, plan)
}

func writePlan(env *cmdEnv, format string, plan navigate.Plan) int {
	if code, done := writeStructured(env.out, env.errOut, format, plan); done {
		if plan.NotFound {
			return 1
		}
		return code
	}
	if plan.NotFound {
		fmt.Fprintf(env.errOut, "workspace not found: %s\n", plan.Target.Workspace)
		return 1
	}
	fmt.Fprintln(env.out, plan.URL)
	return 0
}
