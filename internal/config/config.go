package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"wsnav/internal/pathutil"
)

type Config struct {
	ConfigDir        string   `toml:"config_dir"`
	DataDir          string   `toml:"data_dir"`
	CacheDir         string   `toml:"cache_dir"`
	HiddenWorkspaces []string `toml:"hidden_workspaces"`
	LogLevel         string   `toml:"log_level"`
	WatchDebounceMS  int      `toml:"watch_debounce_ms"`
}

var dataDirOverride string

const appDirName = "wsnav"

func SetDataDirOverride(path string) {
	dataDirOverride = strings.TrimSpace(path)
}

func Default() (Config, error) {
	configHome, dataHome, cacheHome, err := xdgHomes()
	if err != nil {
		return Config{}, err
	}

	return Config{
		ConfigDir:        filepath.Join(configHome, appDirName),
		DataDir:          filepath.Join(dataHome, appDirName),
		CacheDir:         filepath.Join(cacheHome, appDirName),
		HiddenWorkspaces: []string{},
		LogLevel:         "warn",
		WatchDebounceMS:  250,
	}, nil
}

func Load() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	path := cfg.Path()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if cfg.HiddenWorkspaces == nil {
		cfg.HiddenWorkspaces = []string{}
	}
	if cfg.WatchDebounceMS <= 0 {
		cfg.WatchDebounceMS = 250
	}

	dataDir := resolveDataDir(cfg)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Path() string {
	return filepath.Join(c.ConfigDir, "config.toml")
}

// EffectiveDataDir applies --data-dir and WSNAV_DATA_DIR on top of data_dir.
func (c Config) EffectiveDataDir() string {
	return resolveDataDir(c)
}

func (c Config) CatalogPath() string {
	return filepath.Join(resolveDataDir(c), "catalog.db")
}

func (c Config) SessionPath() string {
	return filepath.Join(resolveDataDir(c), "session.toml")
}

// Save writes the persisted settings. The effective data dir override is
// never written back.
func (c Config) Save() error {
	if err := os.MkdirAll(c.ConfigDir, 0o755); err != nil {
		return err
	}
	if c.HiddenWorkspaces == nil {
		c.HiddenWorkspaces = []string{}
	}
	return writeConfigFile(c.Path(), c)
}

func writeConfigFile(path string, cfg Config) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func xdgHomes() (string, string, string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	dataHome := os.Getenv("XDG_DATA_HOME")
	cacheHome := os.Getenv("XDG_CACHE_HOME")

	if configHome != "" && dataHome != "" && cacheHome != "" {
		return configHome, dataHome, cacheHome, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", "", err
	}

	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	if cacheHome == "" {
		cacheHome = filepath.Join(home, ".cache")
	}

	return configHome, dataHome, cacheHome, nil
}

func resolveDataDir(cfg Config) string {
	if dataDirOverride != "" {
		return pathutil.Expand(dataDirOverride)
	}
	if env := strings.TrimSpace(os.Getenv("WSNAV_DATA_DIR")); env != "" {
		return pathutil.Expand(env)
	}
	if strings.TrimSpace(cfg.DataDir) != "" {
		return pathutil.Expand(cfg.DataDir)
	}
	return filepath.Join(".", appDirName)
}
