package helper

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/breeze-rmm/uninstallscan/internal/logging"
)

const (
	// QueryArg asks a helper to list installed items on stdout.
	QueryArg = "/query"
	// UninstallArg asks a helper to remove the item named by the next argument.
	UninstallArg = "/uninstall"

	// DefaultTimeout bounds a single helper run.
	DefaultTimeout = 120 * time.Second

	// MaxOutputSize caps captured stdout; extra bytes are discarded.
	MaxOutputSize = 4 * 1024 * 1024

	maxStderrSize = 64 * 1024
	waitDelay     = 2 * time.Second
)

// RunOptions controls a helper run. Zero values use the defaults above.
type RunOptions struct {
	Timeout   time.Duration
	MaxOutput int
}

// QueryFunc runs the helper at path in query mode and returns its stdout.
// It never fails: anything that goes wrong yields "".
type QueryFunc func(ctx context.Context, path string) string

// NewQueryFunc returns a QueryFunc that spawns the helper with RunQuery.
func NewQueryFunc(opts RunOptions) QueryFunc {
	return func(ctx context.Context, path string) string {
		return RunQuery(ctx, path, opts)
	}
}

// RunQuery starts `<path> /query`, waits for it to exit and returns what it
// wrote to stdout. Start failures and timeouts yield "". The exit code is
// logged but not otherwise interpreted; a helper that prints records and
// then exits non-zero still has its records returned.
//
// On timeout or ctx cancellation the helper and its children are killed.
func RunQuery(ctx context.Context, path string, opts RunOptions) string {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := opts.MaxOutput
	if limit <= 0 {
		limit = MaxOutputSize
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, path, QueryArg)

	var stdout, stderr bytes.Buffer
	stdoutW := &limitedWriter{buf: &stdout, limit: limit}
	cmd.Stdout = stdoutW
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: maxStderrSize}

	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessTree(cmd)
	}
	// Grandchildren holding the stdout pipe must not keep Wait blocked.
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		log.Warn("helper query aborted",
			logging.KeyHelperPath, path,
			logging.KeyDurationMs, elapsed.Milliseconds(),
			"timeout", timeout,
			logging.KeyError, ctx.Err())
		return ""
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Never started, or output could not be copied.
			if cmd.ProcessState == nil {
				log.Warn("helper failed to start", logging.KeyHelperPath, path, logging.KeyError, err)
				return ""
			}
			log.Warn("helper run failed", logging.KeyHelperPath, path, logging.KeyError, err)
		} else {
			log.Debug("helper exited non-zero",
				logging.KeyHelperPath, path,
				"exitCode", exitErr.ExitCode(),
				"stderr", strings.TrimSpace(stderr.String()))
		}
	}

	log.Debug("helper query finished",
		logging.KeyHelperPath, path,
		logging.KeyDurationMs, elapsed.Milliseconds(),
		"bytes", stdout.Len())

	if stdoutW.truncated {
		out := trimPartialBlock(stdout.String())
		log.Warn("helper output exceeded limit, dropping incomplete records",
			logging.KeyHelperPath, path,
			"limit", limit,
			"kept", len(out))
		return out
	}
	return stdout.String()
}

// trimPartialBlock keeps only the blocks of cut-off output that are closed
// by a blank line. The last block may have lost lines or end mid-value.
func trimPartialBlock(s string) string {
	s = normalizeNewlines(s)
	end := 0
	for i := 0; i < len(s); {
		j := strings.IndexByte(s[i:], '\n')
		if j < 0 {
			break
		}
		line := s[i : i+j]
		i += j + 1
		if strings.TrimSpace(line) == "" {
			end = i
		}
	}
	return s[:end]
}

// limitedWriter wraps a buffer with a size limit. Writes past the limit are
// dropped without error so the child never sees a broken pipe; truncated
// records that anything was dropped.
type limitedWriter struct {
	buf       *bytes.Buffer
	limit     int
	written   int
	truncated bool
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.written >= w.limit {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil
	}

	chunk := p
	if remaining := w.limit - w.written; len(chunk) > remaining {
		chunk = chunk[:remaining]
		w.truncated = true
	}

	n, err := w.buf.Write(chunk)
	w.written += n
	return len(p), err
}
