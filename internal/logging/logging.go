// Package logging provides the leveled logger shared by every updater
// component. Lines go to the console with colored level tags and,
// optionally, to an uncolored log file. Loggers are passed explicitly;
// there is no package-level state.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/colorstring"
)

type level struct {
	name  string
	color string
}

var (
	levelDebug    = level{name: "DEBUG", color: "dark_gray"}
	levelInfo     = level{name: "INFO"}
	levelSuccess  = level{name: "SUCCESS", color: "green"}
	levelWarning  = level{name: "WARNING", color: "yellow"}
	levelError    = level{name: "ERROR", color: "red"}
	levelCritical = level{name: "CRITICAL", color: "light_red"}
)

// Logger writes timestamped, leveled lines. A nil *Logger drops
// everything, so callers never need to guard their log calls.
type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	verbose bool
	now     func() time.Time
}

// Options configures a Logger.
type Options struct {
	// Verbose enables DEBUG lines.
	Verbose bool
	// FilePath, when non-empty, appends an uncolored copy of every line
	// to the named file, creating parent directories as needed.
	FilePath string
	// Console overrides the console writer. Defaults to os.Stdout.
	Console io.Writer
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		console: opts.Console,
		verbose: opts.Verbose,
		now:     time.Now,
	}
	if l.console == nil {
		l.console = os.Stdout
	}

	if path := strings.TrimSpace(opts.FilePath); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		l.file = f
	}
	return l, nil
}

// Discard returns a logger that drops every line.
func Discard() *Logger {
	return &Logger{console: io.Discard, now: time.Now}
}

// Verbose reports whether DEBUG lines are emitted.
func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

// Close closes the log file if one is open. The console writer is left
// untouched.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) log(lv level, format string, args ...any) {
	if l == nil {
		return
	}
	if lv == levelDebug && !l.verbose {
		return
	}

	msg := fmt.Sprintf(format, args...)
	now := l.now
	if now == nil {
		now = time.Now
	}
	stamp := now().Format("2006-01-02 15:04:05")

	tag := lv.name
	if lv.color != "" {
		tag = colorstring.Color("[" + lv.color + "]" + lv.name + "[reset]")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console != nil {
		fmt.Fprintf(l.console, "%s [%s] %s\n", stamp, tag, msg)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "%s [%s] %s\n", stamp, lv.name, msg)
	}
}

// Debugf prints formatted output only when verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	l.log(levelDebug, format, args...)
}

// Infof prints formatted output regardless of verbosity level.
func (l *Logger) Infof(format string, args ...any) {
	l.log(levelInfo, format, args...)
}

// Successf prints formatted output marking a completed operation.
func (l *Logger) Successf(format string, args ...any) {
	l.log(levelSuccess, format, args...)
}

// Warnf prints formatted output for recoverable problems.
func (l *Logger) Warnf(format string, args ...any) {
	l.log(levelWarning, format, args...)
}

// Errorf prints formatted output for failed operations.
func (l *Logger) Errorf(format string, args ...any) {
	l.log(levelError, format, args...)
}

// Criticalf prints formatted output for failures that end the run.
func (l *Logger) Criticalf(format string, args ...any) {
	l.log(levelCritical, format, args...)
}
