// Package diagnostics formats PyErrors and interpreter backtraces as
// human-readable, optionally colorized text -- the teacher has no
// structured logger either, just stderr output gated on whether the
// destination is a terminal (internal/evaluator/builtins_term.go's
// detectColorLevel/ansiFg), which this package ports and narrows to
// the one thing it is used for here: error and traceback rendering.
package diagnostics

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pyframe"
)

var (
	colorOnce sync.Once
	colorOn   bool
)

// detectColor mirrors the teacher's NO_COLOR / TERM=dumb / isatty
// checks, collapsed to a single on/off decision -- diagnostics text
// only ever needs "highlight the error line or don't", never the
// truecolor/256-color tiers builtins_term.go distinguishes for
// arbitrary user-chosen RGB styling.
func detectColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

func colorEnabled() bool {
	colorOnce.Do(func() { colorOn = detectColor() })
	return colorOn
}

func ansiFg(code int, s string) string {
	if !colorEnabled() {
		return s
	}
	return fmt.Sprintf("\033[%dm%s\033[39m", code, s)
}

func bold(s string) string {
	if !colorEnabled() {
		return s
	}
	return "\033[1m" + s + "\033[22m"
}

// FormatError renders a raised error the way a Python REPL would
// render its final line ("KindName: message"), with the kind name in
// bold red when writing to a terminal. Non-*PyError errors (an
// unwrapped InterpreterError or a Go-level bug) are rendered as-is.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	pe, ok := pyerr.As(err)
	if !ok {
		return ansiFg(31, err.Error())
	}
	return ansiFg(31, bold(string(pe.Kind))) + ": " + pe.Message
}

// FormatTraceback renders the frame chain from f back to the
// outermost caller as a CPython-style traceback, most-recent-call-last
// (spec §5: frames form a linked stack via a back-pointer). Each line
// names the code object's file/line/name and the frame's TraceID for
// correlating against a SystemError/InterpreterError raised elsewhere
// (SPEC_FULL §2 "google/uuid ... correlate a crash report back to one
// call").
func FormatTraceback(f *pyframe.Frame, err error) string {
	var sb strings.Builder
	sb.WriteString("Traceback (most recent call last):\n")

	var chain []*pyframe.Frame
	for cur := f; cur != nil; cur = cur.Back {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		sb.WriteString(fmt.Sprintf("  File %q, line %d, in %s [trace %s]\n",
			c.Code.Filename, c.Code.FirstLineNo, c.Code.Name, c.TraceID))
	}
	sb.WriteString(FormatError(err))
	return sb.String()
}

// Print writes a traceback for err, raised from f, to stderr.
func Print(f *pyframe.Frame, err error) {
	fmt.Fprintln(os.Stderr, FormatTraceback(f, err))
}
