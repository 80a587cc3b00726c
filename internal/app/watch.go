package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"wsnav/internal/resolve"
	"wsnav/internal/watcher"
)

// runWatch re-resolves the root route whenever the catalog or the session
// file changes and prints each new landing.
func runWatch(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	maxEvents := fs.Int("max-events", 0, "Exit after this many change events (0 = run until interrupted)")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(env.errOut, "unexpected args: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}
	if *maxEvents < 0 {
		fmt.Fprintln(env.errOut, "--max-events must be >= 0")
		return 2
	}

	cfg, st, code := env.setup()
	if code != 0 {
		return code
	}
	defer st.Close()
	defer env.sync()

	w, err := watcher.New(cfg.EffectiveDataDir(), watchedFile, time.Duration(cfg.WatchDebounceMS)*time.Millisecond)
	if err != nil {
		fmt.Fprintf(env.errOut, "watch error: %v\n", err)
		return 1
	}
	if err := w.Start(); err != nil {
		fmt.Fprintf(env.errOut, "watch error: %v\n", err)
		return 1
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nav := env.navigator(cfg, st)
	env.log().Info("watching", zap.String("dir", cfg.EffectiveDataDir()))
	if err := watchLoop(ctx, w.Events(), nav.Resolve, env.out, *maxEvents); err != nil {
		fmt.Fprintf(env.errOut, "watch error: %v\n", err)
		return 1
	}
	return 0
}

func watchedFile(name string) bool {
	return name == "session.toml" || strings.HasPrefix(name, "catalog.db")
}

// watchLoop prints the current landing, then a line each time a change
// moves it. It returns when ctx is done, events closes, or maxEvents
// changes have been seen.
func watchLoop(ctx context.Context, events <-chan watcher.Event, resolveFn func(context.Context) (resolve.Decision, error), out io.Writer, maxEvents int) error {
	last, err := resolveFn(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "/%s (%s)\n", last.Workspace, last.Rule)

	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			decision, err := resolveFn(ctx)
			if err != nil {
				return err
			}
			if decision != last {
				fmt.Fprintf(out, "/%s (%s) after %s %s\n", decision.Workspace, decision.Rule, ev.Op, ev.Name)
				last = decision
			}
			seen++
			if maxEvents > 0 && seen >= maxEvents {
				return nil
			}
		}
	}
}
