// Package logger implements the structured logging sink for the SDL runtime.
//
// It wraps log/slog with a per-category filter so that signal traces, state
// transitions, and process lifecycle events can be enabled independently of
// the log level. The package is safe to use with zero configuration and its
// functions never panic or return errors.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Category identifies an event class that can be toggled independently.
type Category string

const (
	// CategorySignals covers signal delivery and routing events
	CategorySignals Category = "signals"

	// CategoryStates covers state transition events
	CategoryStates Category = "states"

	// CategoryProcesses covers process lifecycle events
	CategoryProcesses Category = "processes"

	// CategoryTimers covers timer events
	CategoryTimers Category = "timers"

	// CategorySystem covers scheduler and registry events
	CategorySystem Category = "system"

	// CategoryApplication covers user-level messages
	CategoryApplication Category = "application"
)

// Options configures the logging sink.
type Options struct {
	// Level is the minimum level to emit (debug, info, warn, error)
	Level string

	// Format selects the handler encoding ("text" or "json")
	Format string

	// Output is the destination writer (defaults to stdout)
	Output io.Writer

	// Categories enables or disables individual event categories.
	// Categories missing from the map keep their current setting.
	Categories map[string]bool
}

var (
	mu         sync.RWMutex
	level      = new(slog.LevelVar)
	sink       *slog.Logger
	categories map[Category]bool
)

func init() {
	reset()
	applyEnv()
}

func reset() {
	level.Set(slog.LevelDebug)
	sink = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	categories = map[Category]bool{
		CategorySignals:     true,
		CategoryStates:      true,
		CategoryProcesses:   true,
		CategoryTimers:      true,
		CategorySystem:      true,
		CategoryApplication: true,
	}
}

// Configure applies the given options. Invalid values are ignored rather
// than rejected so a bad configuration can never disable logging entirely.
func Configure(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	applyEnv()

	if opts.Level != "" {
		if lvl, ok := parseLevel(opts.Level); ok {
			level.Set(lvl)
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	switch strings.ToLower(opts.Format) {
	case "json":
		sink = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	case "", "text":
		sink = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	}

	for name, enabled := range opts.Categories {
		categories[Category(strings.ToLower(name))] = enabled
	}
}

// Reset restores the default configuration plus any environment overrides.
// Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	reset()
	applyEnv()
}

// applyEnv reads SDL_LOG_LEVEL and SDL_LOG_CATEGORIES. When the category
// list is set, unlisted categories are disabled.
func applyEnv() {
	if env := os.Getenv("SDL_LOG_LEVEL"); env != "" {
		if lvl, ok := parseLevel(env); ok {
			level.Set(lvl)
		}
	}
	if env := os.Getenv("SDL_LOG_CATEGORIES"); env != "" {
		for cat := range categories {
			categories[cat] = false
		}
		for _, name := range strings.Split(env, ",") {
			categories[Category(strings.ToLower(strings.TrimSpace(name)))] = true
		}
	}
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error", "critical":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// Enabled reports whether events in the given category are emitted.
func Enabled(c Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categories[c]
}

func logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return sink
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

// Signal traces a signal delivery event. The event string distinguishes
// delivery ("deliver") from non-applicable drops ("drop").
func Signal(event, name string, typeID int, state, dst, src, payload string) {
	if !Enabled(CategorySignals) {
		return
	}
	attrs := []any{
		"signal", name,
		"type_id", typeID,
		"state", state,
		"dst", dst,
		"src", src,
	}
	if payload != "" {
		attrs = append(attrs, "payload", payload)
	}
	logger().Debug(event, attrs...)
}

// StateChange traces a state transition for a process.
func StateChange(pid, from, to string) {
	if !Enabled(CategoryStates) {
		return
	}
	logger().Debug("state", "pid", pid, "from", from, "to", to)
}

// Create traces process creation.
func Create(pid, parent string) {
	if !Enabled(CategoryProcesses) {
		return
	}
	if parent == "" {
		parent = "none"
	}
	logger().Debug("created", "pid", pid, "parent", parent)
}

// Lifecycle traces a generic process event such as registration or stop.
func Lifecycle(event, pid, detail string) {
	if !Enabled(CategoryProcesses) {
		return
	}
	logger().Debug(event, "pid", pid, "detail", detail)
}

// Timer traces a timer event.
func Timer(event, name string, correlator int, pid string) {
	if !Enabled(CategoryTimers) {
		return
	}
	logger().Debug(event, "timer", name, "correlator", correlator, "pid", pid)
}

// System traces a scheduler or registry event.
func System(event string, args ...any) {
	if !Enabled(CategorySystem) {
		return
	}
	logger().Debug(event, args...)
}

// App logs a user-level message attributed to a process.
func App(pid, state, msg string) {
	if !Enabled(CategoryApplication) {
		return
	}
	logger().Debug("app", "pid", pid, "state", state, "msg", msg)
}
