// Package log is a minimal wrapper around an io.Writer, in the style of
// golang-dep's log package: no levels, no structured fields, just lines.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes plain lines to an underlying io.Writer.
type Logger struct {
	io.Writer
}

// New returns a new logger which writes to w.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// Discard returns a logger that throws everything away.
func Discard() *Logger {
	return New(io.Discard)
}

// Logln logs a line.
func (l *Logger) Logln(args ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintln(l, args...)
}

// Logf logs a formatted string as is; no trailing newline is added.
func (l *Logger) Logf(f string, args ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintf(l, f, args...)
}

// LogPipelinefln logs a formatted line prefixed with "petwheel: ".
func (l *Logger) LogPipelinefln(format string, args ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintf(l, "petwheel: "+format+"\n", args...)
}

var hgShallowWarnOnce sync.Once

// WarnHgShallowUnsupported emits the "Mercurial ignores depth" warning
// exactly once per process, regardless of how many hg fetches request it.
func (l *Logger) WarnHgShallowUnsupported() {
	hgShallowWarnOnce.Do(func() {
		l.LogPipelinefln("warning: hg fetcher does not support shallow clones, depth is ignored")
	})
}

// actionsGroup mirrors ipi's WithInBandBorders.GitHubActionsGroup: fold
// markers around a step when running under GitHub Actions, a no-op log
// otherwise.
type actionsGroup struct {
	l   *Logger
	msg string
}

// Group starts a collapsible log section if GITHUB_ACTIONS is set; the
// returned func must be called to close it. Purely cosmetic.
func (l *Logger) Group(message string) func() {
	if os.Getenv("GITHUB_ACTIONS") != "true" {
		return func() {}
	}
	l.Logf("##[group] %s\n", message)
	return func() {
		l.Logf("##[endgroup]\n")
	}
}
