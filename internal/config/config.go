// Package config loads pyscope's TOML configuration. The daemon and
// CLI share one file, found at --config, ./pyscope.toml, or
// ~/.config/pyscope/pyscope.toml, first hit wins. A missing file is
// not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full pyscope configuration.
type Config struct {
	Daemon DaemonConfig `toml:"daemon"`
	Log    LogConfig    `toml:"log"`
}

// DaemonConfig configures the editor-facing daemon.
type DaemonConfig struct {
	// Socket is the unix socket path the daemon listens on.
	Socket string `toml:"socket"`
	// PIDFile records the daemon's pid for stop/status.
	PIDFile string `toml:"pid_file"`
	// DebounceMs batches bursts of filesystem events before the
	// change counter for a file is bumped.
	DebounceMs int `toml:"debounce_ms"`
	// CacheSize bounds how many buffers the tracker caches.
	CacheSize int `toml:"cache_size"`
}

// LogConfig configures logging; values override the PYSCOPE_LOG_*
// environment variables.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File receives daemon logs; empty means stderr.
	File string `toml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	runDir := os.TempDir()
	return Config{
		Daemon: DaemonConfig{
			Socket:     filepath.Join(runDir, fmt.Sprintf("pyscope-%d.sock", os.Getuid())),
			PIDFile:    filepath.Join(runDir, fmt.Sprintf("pyscope-%d.pid", os.Getuid())),
			DebounceMs: 300,
			CacheSize:  128,
		},
	}
}

// Load reads the configuration from path. When path is empty the
// search locations are tried in order; if none exists, Default() is
// returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range searchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Daemon.DebounceMs < 0 {
		return cfg, fmt.Errorf("%s: debounce_ms must be >= 0", path)
	}
	return cfg, nil
}

func searchPaths() []string {
	paths := []string{"pyscope.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pyscope", "pyscope.toml"))
	}
	return paths
}
