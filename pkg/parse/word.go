package parse

import "strings"

// PartKind says which quoting context a word fragment was lexed in. The
// kind decides which escape rules apply when the fragment is expanded.
type PartKind int

const (
	// Unquoted text. Backslash escapes are still embedded in the text
	// and are resolved by the expander, not the lexer.
	Simple PartKind = iota
	// Text between single quotes. Fully literal; expansion is the
	// identity function.
	SingleQuoted
	// Text between double quotes. Variable and command substitution are
	// active, along with the restricted \$ \` \" \\ escape set.
	DoubleQuoted
)

// WordPart is one fragment of a word, tagged with its quoting context.
type WordPart struct {
	Kind PartKind
	Text string
}

// Word is an ordered sequence of fragments making up one lexical word.
// Its final string value is defined only at expansion time: each part
// carries its own escape-processing rule, so naive concatenation of the
// raw texts is not the expanded value. A word with zero parts expands
// to the empty string.
type Word []WordPart

// Empty reports whether the word has no fragments.
func (w Word) Empty() bool { return len(w) == 0 }

// Raw returns the concatenation of the fragment texts with no escape
// processing. It is used where the parser needs a textual look at a
// word before expansion: redirect target disambiguation, heredoc
// delimiters, and assignment detection.
func (w Word) Raw() string {
	var sb strings.Builder
	for _, p := range w {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Source renders the word back to shell text, re-wrapping quoted
// fragments in their quote characters. Escape pairs are stored verbatim
// in fragment texts, so the rendering reproduces the original spelling.
// Used where a word must survive as text rather than as a value, such
// as heredoc body lines.
func (w Word) Source() string {
	var sb strings.Builder
	for _, p := range w {
		switch p.Kind {
		case SingleQuoted:
			sb.WriteByte('\'')
			sb.WriteString(p.Text)
			sb.WriteByte('\'')
		case DoubleQuoted:
			sb.WriteByte('"')
			sb.WriteString(p.Text)
			sb.WriteByte('"')
		default:
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Lit reports whether the word consists of exactly one unquoted
// fragment and, if so, returns its text.
func (w Word) Lit() (string, bool) {
	if len(w) == 1 && w[0].Kind == Simple {
		return w[0].Text, true
	}
	return "", false
}

// IsBareInt reports whether the word is a single unquoted fragment made
// up entirely of ASCII digits. Redirect targets of this shape are
// always taken as descriptor duplication rather than file names;
// quoting the number forces the file interpretation.
func (w Word) IsBareInt() bool {
	s, ok := w.Lit()
	if !ok || s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
