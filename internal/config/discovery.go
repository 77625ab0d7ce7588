package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfig names an explicit config file.
const EnvConfig = "KRUNNER_ZOOM_CONFIG"

// DiscoverConfigPath finds the config file by checking standard locations.
// Priority order: $KRUNNER_ZOOM_CONFIG, $XDG_CONFIG_HOME/krunner-zoom/config.yaml,
// ~/.config/krunner-zoom/config.yaml. It returns "" when none exists.
func DiscoverConfigPath() (string, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		if _, err := os.Stat(expandHome(path)); err != nil {
			return "", fmt.Errorf("$%s points to a missing file: %s", EnvConfig, path)
		}
		return path, nil
	}

	for _, candidate := range candidatePaths() {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// DefaultConfigPath is where a new config file is written.
func DefaultConfigPath() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return expandHome(path)
	}
	candidates := candidatePaths()
	if len(candidates) == 0 {
		return "config.yaml"
	}
	return candidates[0]
}

func candidatePaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "krunner-zoom", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "krunner-zoom", "config.yaml"))
	}
	return paths
}

func defaultLockPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "krunner-zoom.lock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("krunner-zoom-%d.lock", os.Getuid()))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
