package app

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func runForget(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("forget", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(env.errOut, "unexpected args: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}

	cfg, err := env.loadConfig()
	if err != nil {
		fmt.Fprintf(env.errOut, "config error: %v\n", err)
		return 1
	}
	defer env.sync()

	sess := openSession(cfg)
	previous, had, err := sess.RememberedWorkspace()
	if err != nil {
		fmt.Fprintf(env.errOut, "forget error: %v\n", err)
		return 1
	}
	if err := sess.ForgetWorkspace(); err != nil {
		fmt.Fprintf(env.errOut, "forget error: %v\n", err)
		return 1
	}
	if had {
		env.log().Info("workspace forgotten", zap.String("workspace", previous))
	}
	return writeJSON(env.out, env.errOut, map[string]any{
		"forgotten": had,
		"workspace": previous,
	})
}
