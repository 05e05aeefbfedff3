package fileutil

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FileExists returns true if a file or directory with the given path exists.
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// IsDir returns true if a directory with the given path exists.
func IsDir(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.IsDir()
}

// EnsureDir creates the directory and any missing parents. It is a no-op if
// the directory already exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// SweepDir deletes every regular file directly inside dir, leaving
// subdirectories alone. It returns the number of files removed. A missing
// directory is not an error; a file that cannot be removed is logged and
// skipped.
func SweepDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			log.WithError(err).Warnf("failed to remove stale file: path=%s", p)
			continue
		}

		log.Debugf("removed stale file: path=%s", p)
		removed++
	}

	return removed, nil
}
