package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"wsnav/internal/navigate"
)

// runSwitch is the workspace switcher: it keeps the current page and swaps
// the workspace segment.
func runSwitch(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("switch", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	from := fs.String("from", "/", "Path currently shown")
	format := fs.String("format", "text", "Output format: text|json|yaml")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	workspace, ok := singleArg(env, fs.Args(), "workspace name")
	if !ok {
		return 2
	}
	formatValue, err := parseFormat(*format, "text", "json", "yaml")
	if err != nil {
		fmt.Fprintln(env.errOut, err.Error())
		return 2
	}
	route, err := navigate.ParseRoute(*from)
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

	plan, err := env.navigator(cfg, st).Switch(context.Background(), workspace, route)
	if err != nil {
		if errors.Is(err, navigate.ErrUnknownWorkspace) {
			fmt.Fprintln(env.errOut, err.Error())
			return 1
		}
		fmt.Fprintf(env.errOut, "switch error: %v\n", err)
		return 1
	}
	return writePlan(env, formatValue, plan)
}
