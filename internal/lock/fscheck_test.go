package lock

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLocalFilesystemAllowsLocal(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "krunner-zoom.lock")
	err := checkLocalFilesystem(lockPath, func(string) (string, error) { return "0xef53", nil })
	assert.NoError(t, err)
}

func TestCheckLocalFilesystemRejectsNetwork(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "krunner-zoom.lock")
	err := checkLocalFilesystem(lockPath, func(string) (string, error) { return "nfs", nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkFilesystem)
	assert.Contains(t, err.Error(), "service.lock_path")
}

func TestCheckLocalFilesystemInspectsNearestParent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lockPath := filepath.Join(root, "nested", "dir", "krunner-zoom.lock")

	var inspected string
	err := checkLocalFilesystem(lockPath, func(path string) (string, error) {
		inspected = path
		return "tmpfs", nil
	})
	require.NoError(t, err)
	assert.Equal(t, root, inspected)
}

func TestCheckLocalFilesystemDetectFailure(t *testing.T) {
	t.Parallel()

	err := checkLocalFilesystem(filepath.Join(t.TempDir(), "x.lock"), func(string) (string, error) {
		return "", errors.New("statfs failed")
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNetworkFilesystem)
}

func TestCheckLocalFilesystemEmptyPath(t *testing.T) {
	assert.Error(t, CheckLocalFilesystem(""))
}

func TestIsNetworkFilesystem(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"nfs":    true,
		"SMBFS":  true,
		" cifs ": true,
		"apfs":   false,
		"0x6969": false,
	}
	for fs, want := range cases {
		assert.Equal(t, want, isNetworkFilesystem(fs), fs)
	}
}
