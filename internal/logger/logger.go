// Package logger provides structured logging for the Tether CLI.
// Warnings and errors are always written to stderr. When verbose mode is
// enabled via the --verbose flag, debug and info records are written too,
// which helps users follow authorization and ingestion progress.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	masker "github.com/goliatone/go-masker"
)

const maskRule = "preserveEnds(2,2)"

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level             = new(slog.LevelVar)
	base              = newLogger(os.Stderr)
)

func init() {
	level.Set(slog.LevelWarn)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Timestamps add noise to interactive CLI output.
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w)
}

// L returns the shared logger, for components that accept a *slog.Logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// With returns the shared logger annotated with a component name.
func With(component string) *slog.Logger {
	return L().With("component", component)
}

// Debug logs a message with key/value attributes at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs a message with key/value attributes at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs a message with key/value attributes at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs a message with key/value attributes at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Mask hides all but the first and last two characters of a secret.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String(maskRule, value); err == nil {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

// Secret returns a log attribute whose value is masked.
func Secret(key, value string) slog.Attr {
	return slog.String(key, Mask(value))
}
