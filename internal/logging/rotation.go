package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingFile is a size-bounded log file. When a write would push it past
// its limit the current file becomes <path>.1, older backups shift up by
// one, and the oldest is dropped. Safe for concurrent use.
type RotatingFile struct {
	mu      sync.Mutex
	f       *os.File
	path    string
	limit   int64
	backups int
	size    int64
}

// OpenRotatingFile opens (or creates) path for appending.
// Non-positive maxSizeMB and backups fall back to 10 MB and 3 files.
func OpenRotatingFile(path string, maxSizeMB, backups int) (*RotatingFile, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if backups <= 0 {
		backups = 3
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rf := &RotatingFile{
		path:    path,
		limit:   int64(maxSizeMB) << 20,
		backups: backups,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

// Write implements io.Writer.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.size > 0 && rf.size+int64(len(p)) > rf.limit {
		if err := rf.rotate(); err != nil {
			return 0, fmt.Errorf("log rotation: %w", err)
		}
	}

	n, err := rf.f.Write(p)
	rf.size += int64(n)
	return n, err
}

// Close closes the underlying file.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.f == nil {
		return nil
	}
	err := rf.f.Close()
	rf.f = nil
	return err
}

func (rf *RotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rf.f = f
	rf.size = info.Size()
	return nil
}

func (rf *RotatingFile) rotate() error {
	if rf.f != nil {
		rf.f.Close()
	}

	os.Remove(rf.backup(rf.backups))
	for i := rf.backups - 1; i >= 1; i-- {
		os.Rename(rf.backup(i), rf.backup(i+1))
	}
	os.Rename(rf.path, rf.backup(1))

	return rf.open()
}

func (rf *RotatingFile) backup(n int) string {
	return fmt.Sprintf("%s.%d", rf.path, n)
}
