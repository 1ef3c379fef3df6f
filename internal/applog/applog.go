// Package applog configures the process logger. Messages carry their level
// as a prefix ("INFO:", "ERROR:", "DEBUG:"); DEBUG lines are dropped unless
// debug logging is enabled in the application config.
package applog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
)

var debug atomic.Bool

// Setup sends log output to stderr and, when path is not empty, appends it to
// the file at path. The returned closer releases the file.
func Setup(path string, debugEnabled bool) (io.Closer, error) {
	debug.Store(debugEnabled)
	log.SetFlags(log.LstdFlags)

	if path == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// SetDebug toggles DEBUG output at runtime.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

func DebugEnabled() bool {
	return debug.Load()
}

func Debugf(format string, args ...any) {
	if !debug.Load() {
		return
	}
	log.Printf("DEBUG: "+format, args...)
}
