package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"wsnav/internal/health"
)

func runDoctor(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("doctor", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	jsonOut := fs.Bool("json", false, "Output machine-readable JSON")
	repair := fs.Bool("repair", false, "Attempt repairs (create catalog, reset unreadable session, forget stale selection)")
	verbose := fs.Bool("verbose", false, "Verbose output")
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

	var report health.Report
	if *repair {
		report, err = health.Repair(context.Background(), cfg, health.Options{})
	} else {
		report, err = health.Check(context.Background(), cfg, health.Options{})
	}

	if *jsonOut {
		if code := writeJSON(env.out, env.errOut, report); code != 0 {
			return code
		}
		if err != nil {
			fmt.Fprintln(env.errOut, err.Error())
			return 1
		}
		return 0
	}

	writeDoctorReport(env.out, report, *verbose)
	if err != nil {
		fmt.Fprintln(env.errOut, err.Error())
		return 1
	}
	return 0
}

func writeDoctorReport(out io.Writer, report health.Report, verbose bool) {
	if report.OK {
		fmt.Fprintln(out, "wsnav doctor: ok")
	} else if report.Error != "" {
		fmt.Fprintf(out, "wsnav doctor: error: %s\n", report.Error)
	} else {
		fmt.Fprintln(out, "wsnav doctor: error")
	}

	if report.DB.Path != "" {
		if report.DB.Exists {
			fmt.Fprintf(out, "catalog: %s (%d bytes)\n", report.DB.Path, report.DB.SizeBytes)
		} else {
			fmt.Fprintf(out, "catalog: %s (missing)\n", report.DB.Path)
		}
	}

	if report.Schema.CurrentVersion > 0 || report.Schema.UserVersion > 0 {
		fmt.Fprintf(out, "schema: v%d (current v%d)\n", report.Schema.UserVersion, report.Schema.CurrentVersion)
		if verbose && report.Schema.LastMigrationAt != "" {
			fmt.Fprintf(out, "last_migration_at: %s\n", report.Schema.LastMigrationAt)
		}
	}

	if report.OK {
		fmt.Fprintf(out, "workspaces: %d\n", report.Workspaces)
		if len(report.Hidden) > 0 {
			fmt.Fprintf(out, "hidden: %s\n", strings.Join(report.Hidden, ","))
		}
	}

	if verbose && report.Session.Path != "" {
		fmt.Fprintf(out, "session_path: %s\n", report.Session.Path)
	}
	switch {
	case report.Session.Repaired:
		fmt.Fprintln(out, "session: repaired")
	case report.Session.Stale:
		fmt.Fprintf(out, "session: stale (workspace=%s)\n", report.Session.Remembered)
	case report.Session.Remembered != "":
		fmt.Fprintf(out, "session: ok (workspace=%s)\n", report.Session.Remembered)
	case report.Session.Valid:
		fmt.Fprintln(out, "session: ok")
	}

	if report.Suggestion != "" {
		fmt.Fprintf(out, "suggestion: %s\n", report.Suggestion)
	}
}
