package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// appDirName is the subdirectory under the user's standard config/data
// directory where store files live by default.
const appDirName = "stratum"

// DefaultDataDir returns the per-user directory for store files,
// e.g. ~/.config/stratum on Linux.
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user data directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// resolvePath validates the caller-supplied file name and joins it onto the
// data directory, creating the directory if needed. File names are bare
// names: anything with a path separator is rejected so stores cannot escape
// the data directory.
func resolvePath(dir, fileName string) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("store file name is empty")
	}
	if filepath.Base(fileName) != fileName {
		return "", fmt.Errorf("store file name %q must not contain path separators", fileName)
	}
	if dir == "" {
		var err error
		dir, err = DefaultDataDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dir, fileName), nil
}
