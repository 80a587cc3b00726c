package app

import (
	"fmt"
	"strings"
)

type globalFlags struct {
	DataDir string
	Debug   bool
}

// splitGlobalFlags pulls --data-dir and --debug out of args wherever they
// appear before a "--".
func splitGlobalFlags(args []string) ([]string, globalFlags, error) {
	var out []string
	var globals globalFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i+1:]...)
			break
		}
		if arg == "--debug" {
			globals.Debug = true
			continue
		}
		if arg == "--data-dir" || strings.HasPrefix(arg, "--data-dir=") {
			value := ""
			if arg == "--data-dir" {
				if i+1 >= len(args) {
					return nil, globals, fmt.Errorf("missing value for --data-dir")
				}
				value = args[i+1]
				i++
			} else {
				value = strings.TrimPrefix(arg, "--data-dir=")
			}
			if strings.TrimSpace(value) == "" {
				return nil, globals, fmt.Errorf("missing value for --data-dir")
			}
			globals.DataDir = value
			continue
		}
		out = append(out, arg)
	}
	return out, globals, nil
}
