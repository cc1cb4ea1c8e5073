package eval

import "fmt"

// ErrorKind classifies shell errors. The kind decides both how the
// error is reported and what exit status it maps to.
type ErrorKind int

const (
	IOError ErrorKind = iota
	SystemCallError
	ParseError
	CommandNotFound
	InvalidSyntax
	// InternalError marks invariant violations, like command
	// substitution producing invalid UTF-8. These are shell bugs and
	// are reported verbosely.
	InternalError
)

// Error is a shell-level error, carrying the failed operation for
// diagnostics and enough context to compute an exit status.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%v: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the exit status the error maps to.
func (e *Error) Status() int {
	switch e.Kind {
	case ParseError, InvalidSyntax:
		return StatusSyntaxError
	case CommandNotFound:
		return StatusCommandNotFound
	case SystemCallError:
		return StatusPipeError
	case InternalError:
		return StatusShellBug
	default:
		return StatusBuiltinError
	}
}

func errorf(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
