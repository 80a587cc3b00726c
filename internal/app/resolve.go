package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"wsnav/internal/resolve"
)

type resolveOutput struct {
	Workspace     string       `json:"workspace" yaml:"workspace"`
	Rule          resolve.Rule `json:"rule" yaml:"rule"`
	Exists        bool         `json:"exists" yaml:"exists"`
	Remembered    string       `json:"remembered,omitempty" yaml:"remembered,omitempty"`
	HasRemembered bool         `json:"has_remembered" yaml:"has_remembered"`
	Known         []string     `json:"known" yaml:"known"`
}

// runResolve reports where a root visit would land. Nothing is remembered.
func runResolve(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	format := fs.String("format", "text", "Output format: text|json|yaml")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(env.errOut, "unexpected args: %s\n", strings.Join(fs.Args(), " "))
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
	in, err := nav.Input(ctx)
	if err != nil {
		fmt.Fprintf(env.errOut, "resolve error: %v\n", err)
		return 1
	}
	decision, err := nav.Resolve(ctx)
	if err != nil {
		fmt.Fprintf(env.errOut, "resolve error: %v\n", err)
		return 1
	}

	known := in.Workspaces
	if known == nil {
		known = []string{}
	}
	result := resolveOutput{
		Workspace:     decision.Workspace,
		Rule:          decision.Rule,
		Exists:        decision.Exists,
		Remembered:    in.Remembered,
		HasRemembered: in.HasRemembered,
		Known:         known,
	}
	if code, done := writeStructured(env.out, env.errOut, formatValue, result); done {
		return code
	}
	fmt.Fprintf(env.out, "%s (%s)\n", decision.Workspace, decision.Rule)
	return 0
}
