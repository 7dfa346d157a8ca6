package stm

import (
	"fmt"

	"github.com/agilira/go-timecache"
)

// Logger is a minimal, allocation-conscious logging interface (modeled
// on agilira-balios/interfaces.go). The engine only ever logs cold-path
// events — the clock rollover, at Warn, is the only one it logs — never
// per-transaction activity, so the interface stays tiny rather than
// pulling in a full structured-logging dependency.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger discards everything; it is the default so that embedding
// this package never forces a logging dependency on the caller.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...interface{}) {}
func (NoOpLogger) Info(string, ...interface{})  {}
func (NoOpLogger) Warn(string, ...interface{})  {}
func (NoOpLogger) Error(string, ...interface{}) {}

// logger is package-global because the engine's cold paths (rollover,
// quiescence) are not per-descriptor; SetLogger replaces it once, at
// startup, before any thread is initialized.
var logger Logger = NoOpLogger{}

// SetLogger installs l as the package-wide logger (§6 surface: not part
// of the spec's operation list, but every ambient-stack sibling in the
// retrieval pack exposes exactly this knob).
func SetLogger(l Logger) {
	if l == nil {
		l = NoOpLogger{}
	}
	logger = l
}

// stdoutLogger is a tiny Logger that writes to stdout with a cached,
// low-resolution timestamp from go-timecache rather than paying for a
// time.Now() syscall on every log line — exactly the role go-timecache
// plays for agilira-balios's TimeProvider, just applied to logging
// instead of TTL bookkeeping.
type stdoutLogger struct{}

// StdoutLogger returns a Logger that prints to stdout, timestamped with
// timecache.CachedTimeNano().
func StdoutLogger() Logger { return stdoutLogger{} }

func (stdoutLogger) log(level, msg string, keyvals ...interface{}) {
	ts := timecache.CachedTimeNano()
	fmt.Printf("%d [%s] %s %v\n", ts, level, msg, keyvals)
}

func (l stdoutLogger) Debug(msg string, keyvals ...interface{}) { l.log("DEBUG", msg, keyvals...) }
func (l stdoutLogger) Info(msg string, keyvals ...interface{})  { l.log("INFO", msg, keyvals...) }
func (l stdoutLogger) Warn(msg string, keyvals ...interface{})  { l.log("WARN", msg, keyvals...) }
func (l stdoutLogger) Error(msg string, keyvals ...interface{}) { l.log("ERROR", msg, keyvals...) }
