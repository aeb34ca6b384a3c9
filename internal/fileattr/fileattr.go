// Package fileattr answers read-only questions about files on disk: whether
// an executable exists, when a directory was created, and what an
// executable's embedded version resource says about it. Every probe treats
// failure (missing path, permission denied, races with deletion) as "no
// answer" rather than an error.
package fileattr

import (
	"os"
	"time"
)

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DirCreationTime returns the creation time of the directory at path. ok is
// false when path is not an existing directory or no timestamp is readable.
func DirCreationTime(path string) (t time.Time, ok bool) {
	if path == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return time.Time{}, false
	}
	t = creationTime(path, info)
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}
