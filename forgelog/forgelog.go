// Package forgelog provides level-tagged logging for the renderer core.
// It wraps github.com/charmbracelet/log with the six levels spec.md's error
// handling design names (FATAL/ERROR/WARN/INFO/DEBUG/TRACE) and a rate
// limiter for warnings that would otherwise spam every frame (overflow,
// swapchain-acquire retries).
package forgelog

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the package-wide logger. Release builds should call
// SetReleaseMode to elide INFO and below, matching spec.md §7.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.RFC3339,
})

// SetReleaseMode configures the logger so only WARN and above are emitted,
// matching "release builds elide INFO and below" from spec.md §7.
func SetReleaseMode() {
	Logger.SetLevel(log.WarnLevel)
}

// Debug logs at DEBUG level.
func Debug(msg string, kv ...any) { Logger.Debug(msg, kv...) }

// Trace logs at the lowest verbosity; charmbracelet/log has no native trace
// level, so it is modeled as Debug with a "trace" prefix field to keep the
// six-level vocabulary from spec.md §7 intact without forking the library.
func Trace(msg string, kv ...any) {
	Logger.Debug(msg, append([]any{"level", "trace"}, kv...)...)
}

// Info logs at INFO level.
func Info(msg string, kv ...any) { Logger.Info(msg, kv...) }

// Warn logs at WARN level.
func Warn(msg string, kv ...any) { Logger.Warn(msg, kv...) }

// Error logs at ERROR level.
func Error(msg string, kv ...any) { Logger.Error(msg, kv...) }

// Fatal logs at FATAL level and exits the process, matching a debug-build
// assert's fail-fast behavior for unrecoverable conditions.
func Fatal(msg string, kv ...any) { Logger.Fatal(msg, kv...) }

// RateLimiter suppresses repeated warnings of the same kind across
// consecutive frames beyond a small burst, mirroring the original engine's
// warning-suppression counter for draw-buffer-overflow style conditions.
type RateLimiter struct {
	mu     sync.Mutex
	burst  int
	counts map[string]int
}

// NewRateLimiter returns a RateLimiter allowing burst occurrences of a given
// key before it starts suppressing.
func NewRateLimiter(burst int) *RateLimiter {
	return &RateLimiter{burst: burst, counts: make(map[string]int)}
}

// Allow reports whether a warning for key should be emitted this call, and
// increments its internal counter regardless.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
	return r.counts[key] <= r.burst
}

// Reset clears the suppression counter for key, used at frame boundaries so
// "one warning per frame" (spec.md §4.8) resets the burst allowance.
func (r *RateLimiter) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.counts, key)
}
