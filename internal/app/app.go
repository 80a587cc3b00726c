package app

import (
	"fmt"
	"io"
	"strings"

	"wsnav/internal/config"
)

func Run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		writeUsage(out)
		return 2
	}

	parsedArgs, globals, err := splitGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(errOut, err.Error())
		writeUsage(errOut)
		return 2
	}
	if strings.TrimSpace(globals.DataDir) != "" {
		config.SetDataDirOverride(globals.DataDir)
		defer config.SetDataDirOverride("")
	}
	args = parsedArgs
	if len(args) == 0 {
		writeUsage(out)
		return 2
	}

	if isVersionCommand(args[0]) {
		fmt.Fprintln(out, VersionString())
		return 0
	}

	env := &cmdEnv{out: out, errOut: errOut, debug: globals.Debug}

	cmd := strings.ToLower(args[0])
	switch cmd {
	case "workspaces", "ls":
		return runWorkspaces(env, args[1:])
	case "workspace", "ws":
		return runWorkspace(env, args[1:])
	case "build":
		return runBuild(env, args[1:])
	case "builds":
		return runBuilds(env, args[1:])
	case "resolve":
		return runResolve(env, args[1:])
	case "visit":
		return runVisit(env, args[1:])
	case "switch":
		return runSwitch(env, args[1:])
	case "forget":
		return runForget(env, args[1:])
	case "watch":
		return runWatch(env, args[1:])
	case "doctor":
		return runDoctor(env, args[1:])
	case "mcp":
		return runMCP(env, args[1:])
	case "help", "-h", "--help":
		writeUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n", cmd)
		writeUsage(errOut)
		return 2
	}
}

func isVersionCommand(arg string) bool {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "version", "--version", "-v":
		return true
	default:
		return false
	}
}
