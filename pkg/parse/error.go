package parse

import "fmt"

// Error is a parse error with the byte position of the offending token.
// Incomplete marks input that failed only because more lines are
// needed (an undelimited heredoc); an interactive caller can respond
// with a continuation prompt instead of reporting the error.
type Error struct {
	Position   int
	Message    string
	Incomplete bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax error at %v: %v", e.Position, e.Message)
}

// IsIncomplete reports whether err is a parse error that more input
// could resolve.
func IsIncomplete(err error) bool {
	pe, ok := err.(*Error)
	return ok && pe.Incomplete
}
