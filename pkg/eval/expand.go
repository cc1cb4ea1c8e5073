package eval

// Word expansion happens at execution time, once per word, and its
// output is never re-tokenized as shell syntax. This is a deliberate
// divergence from POSIX (which re-splits unquoted substitution results
// on IFS); a substitution result is always spliced in as-is.

import (
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"minish/pkg/parse"
)

// expandWord resolves a word to its final string: each fragment is
// expanded under its own quoting rules and the results concatenated in
// order. A word with zero parts expands to the empty string.
func (fm *frame) expandWord(w parse.Word) (string, error) {
	var sb strings.Builder
	for _, part := range w {
		switch part.Kind {
		case parse.SingleQuoted:
			// Fully literal.
			sb.WriteString(part.Text)
		case parse.DoubleQuoted:
			s, err := fm.expandDoubleQuoted(part.Text)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		default:
			s, err := fm.expandSimple(part.Text)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}

// expandSimple expands an unquoted fragment. A backslash removes itself
// and forces the next character to be copied literally; there is no
// C-style escape table, so \n is the letter n. Backtick and $(...)
// spans (emitted whole by the lexer) run as command substitutions, and
// $-references resolve against the session.
func (fm *frame) expandSimple(text string) (string, error) {
	if code, ok := substitutionSpan(text); ok {
		return fm.commandSubst(code)
	}
	var sb strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		switch c {
		case '\\':
			i++
			if i < len(text) {
				sb.WriteByte(text[i])
				i++
			}
		case '$':
			value, next := fm.dollar(text, i)
			sb.WriteString(value)
			i = next
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// expandDoubleQuoted expands a double-quoted fragment. Backslash
// escapes only $ ` " \; any other \X stays as the two characters \X.
// Variable references and both substitution forms are active; unlike in
// unquoted text, the lexer leaves quoted `...` and $(...) spans embedded
// in the fragment, so they are found here.
func (fm *frame) expandDoubleQuoted(text string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		switch c {
		case '\\':
			if i+1 < len(text) {
				switch next := text[i+1]; next {
				case '$', '`', '"', '\\':
					sb.WriteByte(next)
					i += 2
					continue
				}
			}
			sb.WriteByte(c)
			i++
		case '`':
			end := findBackquoteEnd(text, i+1)
			if end < 0 {
				sb.WriteByte(c)
				i++
				continue
			}
			out, err := fm.commandSubst(unescapeBackquoted(text[i+1 : end]))
			if err != nil {
				return "", err
			}
			sb.WriteString(out)
			i = end + 1
		case '$':
			if end := findDollarParenEnd(text, i); end >= 0 {
				out, err := fm.commandSubst(text[i+2 : end])
				if err != nil {
					return "", err
				}
				sb.WriteString(out)
				i = end + 1
				continue
			}
			value, next := fm.dollar(text, i)
			sb.WriteString(value)
			i = next
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// findDollarParenEnd returns the index of the parenthesis closing a
// $(...) span starting at i, or -1 if there is no such span.
func findDollarParenEnd(text string, i int) int {
	if i+1 >= len(text) || text[i+1] != '(' {
		return -1
	}
	depth := 0
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j
			}
		case '\\':
			j++
		}
	}
	return -1
}

// dollar resolves the $-reference starting at i and returns the
// replacement together with the index just past the reference. A $
// followed by nothing expandable stays literal.
func (fm *frame) dollar(text string, i int) (string, int) {
	j := i + 1
	if j >= len(text) {
		return "$", j
	}
	switch text[j] {
	case '?':
		return strconv.Itoa(fm.lastStatus), j + 1
	case '$':
		return strconv.Itoa(os.Getpid()), j + 1
	case '{':
		end := strings.IndexByte(text[j:], '}')
		if end < 0 {
			return "$", j
		}
		name := text[j+1 : j+end]
		if !validVarName(name) {
			return "$", j
		}
		return fm.variables[name], j + end + 1
	}
	end := j
	for end < len(text) && isNameByte(text[end], end > j) {
		end++
	}
	if end == j {
		return "$", j
	}
	return fm.variables[text[j:end]], end
}

func isNameByte(c byte, notFirst bool) bool {
	switch {
	case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	case '0' <= c && c <= '9':
		return notFirst
	default:
		return false
	}
}

func validVarName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i], i > 0) {
			return false
		}
	}
	return true
}

// substitutionSpan recognizes the whole-fragment substitution spans the
// lexer emits: `...` and $(...). It returns the inner command text.
func substitutionSpan(text string) (string, bool) {
	if len(text) >= 2 && text[0] == '`' && text[len(text)-1] == '`' {
		return unescapeBackquoted(text[1 : len(text)-1]), true
	}
	if len(text) >= 3 && strings.HasPrefix(text, "$(") && text[len(text)-1] == ')' {
		return text[2 : len(text)-1], true
	}
	return "", false
}

// findBackquoteEnd finds the next unescaped backtick at or after i, or
// -1.
func findBackquoteEnd(text string, i int) int {
	for ; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '`':
			return i
		}
	}
	return -1
}

// unescapeBackquoted undoes the escapes that keep \ ` $ literal inside
// a backtick span.
func unescapeBackquoted(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\', '`', '$':
				i++
				sb.WriteByte(s[i])
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// commandSubst runs code against a clone of the session, with stdout
// captured through a pipe and stderr discarded, and substitutes the
// captured output with every trailing newline stripped. The output must
// be valid text; anything else is an internal error.
func (fm *frame) commandSubst(code string) (string, error) {
	n, err := parse.Parse(parse.Lex(code))
	if err != nil {
		return "", errorf(ParseError, "command substitution", err)
	}
	r, w, err := os.Pipe()
	if err != nil {
		return "", errorf(SystemCallError, "pipe for command substitution", err)
	}
	devnull, err := os.Open(os.DevNull)
	if err != nil {
		r.Close()
		w.Close()
		return "", errorf(IOError, "open "+os.DevNull, err)
	}
	sub := fm.cloneForSubshell()
	sub.files[1] = w
	sub.files[2] = devnull
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer w.Close()
		sub.exec(n)
	}()
	output, rerr := io.ReadAll(r)
	r.Close()
	<-done
	devnull.Close()
	if rerr != nil {
		return "", errorf(IOError, "read command substitution output", rerr)
	}
	result := strings.TrimRight(string(output), "\n")
	if !utf8.ValidString(result) {
		return "", errorf(InternalError, "command substitution produced invalid UTF-8", nil)
	}
	return result, nil
}
