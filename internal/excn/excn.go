// Package excn defines the exception kinds and traceback rendering the
// interpreter raises and unwinds. A Kind is a plain name carried on an
// Error: no native class exists for any kind, and exception handlers do
// not filter by kind (a handler catches every exception raised inside
// its protected region).
package excn

import (
	"fmt"
	"strings"
)

// Kind names one of the exception kinds the core itself can raise.
// User-defined exception classes aren't listed here — they are ordinary
// VM classes, and raising an instance of one uses its class name as the
// Kind.
type Kind string

const (
	SyntaxError         Kind = "SyntaxError"
	NameError           Kind = "NameError"
	TypeError           Kind = "TypeError"
	ValueError          Kind = "ValueError"
	IndexError          Kind = "IndexError"
	KeyError            Kind = "KeyError"
	AttributeError      Kind = "AttributeError"
	ZeroDivisionError   Kind = "ZeroDivisionError"
	StopIteration       Kind = "StopIteration"
	AssertionError      Kind = "AssertionError"
	NotImplementedError Kind = "NotImplementedError"
	RuntimeError        Kind = "RuntimeError"
)

// Frame is one entry in a traceback: the function active and the
// source line it was at when the frame below it raised or propagated.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error is a raised exception carrying enough context to render a
// traceback. It implements the standard error interface so it can also
// surface through Go-level native-function failures.
type Error struct {
	Kind      Kind
	Message   string
	File      string
	Line      int
	CallStack []Frame
}

// New creates an Error of the given kind with no location yet attached;
// the interpreter fills in File/Line/CallStack as it unwinds.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithLocation returns a copy of e with File/Line set, used when a
// native helper raises without direct access to the current frame.
func (e *Error) WithLocation(file string, line int) *Error {
	cp := *e
	cp.File = file
	cp.Line = line
	return &cp
}

// PushFrame records one more level of call stack. The interpreter calls
// it as it unwinds outward, so CallStack holds the innermost frame
// first; Error prints it in reverse.
func (e *Error) PushFrame(f Frame) {
	e.CallStack = append(e.CallStack, f)
}

// Error implements the error interface: kind, message, and a
// most-recent-call-last traceback, matching the layout a REPL or script
// runner prints on an uncaught exception.
func (e *Error) Error() string {
	var sb strings.Builder
	if len(e.CallStack) > 0 {
		sb.WriteString("Traceback (most recent call last):\n")
		for i := len(e.CallStack) - 1; i >= 0; i-- {
			f := e.CallStack[i]
			if f.Function != "" {
				fmt.Fprintf(&sb, "  File %q, line %d, in %s\n", f.File, f.Line, f.Function)
			} else {
				fmt.Fprintf(&sb, "  File %q, line %d\n", f.File, f.Line)
			}
		}
	}
	fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Message)
	return sb.String()
}

// Is reports whether e is of the given kind, for use with errors.As/Is-
// style matching by callers that only have an `error`.
func (e *Error) Is(kind Kind) bool { return e.Kind == kind }

// AsError extracts a *Error from a plain error, if it is one.
func AsError(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
