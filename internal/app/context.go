package app

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wsnav/internal/config"
	"wsnav/internal/navigate"
	"wsnav/internal/session"
	"wsnav/internal/store"
)

// cmdEnv carries what every command shares: its writers and the global
// flags. Config and the logger are loaded lazily.
type cmdEnv struct {
	out    io.Writer
	errOut io.Writer
	debug  bool
	logger *zap.Logger
}

func (e *cmdEnv) loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	e.logger = newLogger(e.errOut, cfg.LogLevel, e.debug)
	return cfg, nil
}

func (e *cmdEnv) log() *zap.Logger {
	if e.logger == nil {
		return zap.NewNop()
	}
	return e.logger
}

func (e *cmdEnv) sync() {
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

func openStore(cfg config.Config) (*store.Store, error) {
	return store.Open(cfg.CatalogPath())
}

func openSession(cfg config.Config) *session.Store {
	return session.Open(cfg.SessionPath())
}

func (e *cmdEnv) navigator(cfg config.Config, st *store.Store) *navigate.Navigator {
	hidden := cfg.Hidden()
	return navigate.New(st, openSession(cfg),
		navigate.WithHidden(hidden.Match),
		navigate.WithLogger(e.log()),
	)
}

// setup loads config and opens the catalog. On failure it reports to
// errOut and returns a non-zero exit code.
func (e *cmdEnv) setup() (config.Config, *store.Store, int) {
	cfg, err := e.loadConfig()
	if err != nil {
		fmt.Fprintf(e.errOut, "config error: %v\n", err)
		return config.Config{}, nil, 1
	}
	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(e.errOut, "store open error: %v\n", err)
		return config.Config{}, nil, 1
	}
	return cfg, st, 0
}

func newLogger(w io.Writer, level string, debug bool) *zap.Logger {
	lvl := zapcore.WarnLevel
	if parsed, err := zapcore.ParseLevel(strings.TrimSpace(level)); err == nil {
		lvl = parsed
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core)
}
