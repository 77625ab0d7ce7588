package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNetworkFilesystem means flock(2) on the lock path may not exclude a
// runner started on another host.
var ErrNetworkFilesystem = errors.New("lock path is on a network filesystem")

var networkFilesystems = map[string]struct{}{
	"afpfs":  {},
	"cifs":   {},
	"nfs":    {},
	"smbfs":  {},
	"smb2":   {},
	"webdav": {},
}

// CheckLocalFilesystem reports ErrNetworkFilesystem when lockPath, or the
// nearest directory above it that exists, lives on a network mount.
func CheckLocalFilesystem(lockPath string) error {
	return checkLocalFilesystem(lockPath, detectFilesystemType)
}

func checkLocalFilesystem(lockPath string, detect func(string) (string, error)) error {
	if lockPath == "" {
		return fmt.Errorf("lock path is empty")
	}

	inspectPath, err := nearestExistingPath(lockPath)
	if err != nil {
		return fmt.Errorf("resolve lock path %q: %w", lockPath, err)
	}

	fsType, err := detect(inspectPath)
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", inspectPath, err)
	}

	if isNetworkFilesystem(fsType) {
		return fmt.Errorf("%w: %s is on %s; set service.lock_path to a local path such as $XDG_RUNTIME_DIR/krunner-zoom.lock",
			ErrNetworkFilesystem, lockPath, fsType)
	}
	return nil
}

func nearestExistingPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	candidate := absPath
	for {
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}

		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", fmt.Errorf("no existing parent for %q", absPath)
		}
		candidate = parent
	}
}

func isNetworkFilesystem(fsType string) bool {
	_, found := networkFilesystems[strings.TrimSpace(strings.ToLower(fsType))]
	return found
}
