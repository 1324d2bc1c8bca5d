// Package logger provides verbose logging for auditkit.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr so users can follow extraction, template
// normalisation and the per-category judgment fan-out.
// Errors are printed regardless of verbosity.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes one line under the read lock so lines from concurrent
// judgment goroutines never interleave mid-line.
func logf(l level, always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && !always {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", l, fmt.Sprintf(format, args...))
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(levelDebug, false, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(levelInfo, false, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(levelWarn, false, format, args...)
}

// Error prints an error message. Unlike the other levels it is not gated
// by verbose mode.
func Error(format string, args ...any) {
	logf(levelError, true, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs the start of a step at debug level and returns a func that
// logs its duration. Typical use: defer logger.Timed("extract %s", name)().
func Timed(format string, args ...any) func() {
	step := fmt.Sprintf(format, args...)
	start := time.Now()
	Debug("%s: started", step)
	return func() {
		Debug("%s: done in %s", step, time.Since(start).Round(time.Millisecond))
	}
}
