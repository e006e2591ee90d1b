// Package logger writes palimpsest's diagnostic output to stderr.
//
// Debug, Info and Section lines appear only with --verbose and trace the
// ingestion pipeline stage by stage. Warn lines always appear: they report
// degraded results (an LLM answer that fell back to extraction, a document
// left mid-pipeline) that a user needs to see without asking.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
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

// SetOutput redirects all log lines. Tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug prints a trace line in verbose mode.
func Debug(format string, args ...any) {
	write(false, "[DEBUG] ", format, args...)
}

// Info prints a progress line in verbose mode.
func Info(format string, args ...any) {
	write(false, "[INFO] ", format, args...)
}

// Warn prints a warning regardless of verbosity.
func Warn(format string, args ...any) {
	write(true, "[WARN] ", format, args...)
}

// Section prints a header that groups the lines that follow, in verbose
// mode.
func Section(name string) {
	write(false, "", "\n=== %s ===", name)
}

// Timed starts a stopwatch for a named step and returns the function that
// stops it. The elapsed time is logged at Debug, rounded to milliseconds:
//
//	done := logger.Timed("detect %s", id)
//	defer done()
func Timed(format string, args ...any) func() {
	start := time.Now()
	step := fmt.Sprintf(format, args...)
	return func() {
		Debug("%s took %s", step, time.Since(start).Round(time.Millisecond))
	}
}
