package parse

// The lexer is a single-pass character scanner. It is total: malformed
// input (an unclosed quote, a trailing backslash) degrades to a best
// effort reading of the rest of the line and never produces an error.
// All quoting decisions are recorded in WordPart tags; resolving
// escapes and substitutions is the expander's job.

import "strings"

// TokenKind enumerates the four shapes of token the lexer emits.
type TokenKind int

const (
	WordToken TokenKind = iota
	OperatorToken
	SpaceToken
	NewlineToken
)

// Operator enumerates the shell control and redirection operators. The
// Op prefix keeps the constants clear of the AST node types that share
// this package.
type Operator int

const (
	OpPipe                Operator = iota // |
	OpPipeAnd                             // |&
	OpAnd                                 // &&
	OpOr                                  // ||
	OpBackground                          // &
	OpSemicolon                           // ;
	OpRedirectOut                         // >
	OpRedirectAppend                      // >>
	OpRedirectIn                          // <
	OpRedirectError                       // 2>
	OpRedirectErrorAppend                 // 2>>
	OpRedirectHereDoc                     // <<
	OpRedirectHereString                  // <<<
	OpRedirectDupOut                      // >&
	OpRedirectDupIn                       // <&
	OpLParen                              // (
	OpRParen                              // )
)

var operatorNames = map[Operator]string{
	OpPipe:                "|",
	OpPipeAnd:             "|&",
	OpAnd:                 "&&",
	OpOr:                  "||",
	OpBackground:          "&",
	OpSemicolon:           ";",
	OpRedirectOut:         ">",
	OpRedirectAppend:      ">>",
	OpRedirectIn:          "<",
	OpRedirectError:       "2>",
	OpRedirectErrorAppend: "2>>",
	OpRedirectHereDoc:     "<<",
	OpRedirectHereString:  "<<<",
	OpRedirectDupOut:      ">&",
	OpRedirectDupIn:       "<&",
	OpLParen:              "(",
	OpRParen:              ")",
}

func (op Operator) String() string { return operatorNames[op] }

// Token is one element of the flat stream consumed by the parser.
// Word is meaningful for WordToken, Op for OperatorToken. FD carries
// the explicit descriptor of operators written with a numeric prefix
// (2>, 2>>) and is -1 everywhere else.
type Token struct {
	Kind TokenKind
	Word Word
	Op   Operator
	FD   int
	Pos  int
}

func opToken(op Operator, fd, pos int) Token {
	return Token{Kind: OperatorToken, Op: op, FD: fd, Pos: pos}
}

// Characters that terminate an unquoted word. Backtick is absent: it
// terminates the current fragment but starts a substitution span within
// the same word.
const wordStoppers = " \t\n|&><;()"

type lexer struct {
	input string
	pos   int
}

// Lex splits input into tokens. Consecutive inline whitespace collapses
// into a single Space token, and trailing whitespace produces none.
func Lex(input string) []Token {
	l := &lexer{input: input}
	var tokens []Token
	pendingSpace := false
	emit := func(t Token) {
		if pendingSpace && len(tokens) > 0 {
			tokens = append(tokens, Token{Kind: SpaceToken, FD: -1, Pos: t.Pos})
		}
		pendingSpace = false
		tokens = append(tokens, t)
	}
	for l.pos < len(l.input) {
		pos := l.pos
		switch c := l.input[l.pos]; c {
		case ' ', '\t':
			for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
				l.pos++
			}
			pendingSpace = true
		case '\n':
			l.pos++
			pendingSpace = false
			tokens = append(tokens, Token{Kind: NewlineToken, FD: -1, Pos: pos})
		case '|', '&', ';', '>', '<', '(', ')':
			emit(l.operator(-1))
		default:
			emit(l.word())
		}
	}
	return tokens
}

// word scans one word starting at a non-terminator character. A word
// whose leading unquoted fragment is all digits and is immediately
// followed by '>' is not a word at all but a redirection operator
// carrying that descriptor.
func (l *lexer) word() Token {
	pos := l.pos
	var w Word
	var frag strings.Builder

	flushSimple := func() {
		if frag.Len() > 0 {
			w = append(w, WordPart{Simple, frag.String()})
			frag.Reset()
		}
	}

	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\':
			// The backslash stays in the fragment; the expander strips
			// it and copies the next character literally.
			frag.WriteByte(c)
			l.pos++
			if l.pos < len(l.input) {
				frag.WriteByte(l.input[l.pos])
				l.pos++
			}
		case c == '\'':
			flushSimple()
			l.pos++
			w = append(w, WordPart{SingleQuoted, l.scanSingleQuoted()})
		case c == '"':
			flushSimple()
			l.pos++
			w = append(w, WordPart{DoubleQuoted, l.scanDoubleQuoted()})
		case c == '`':
			flushSimple()
			w = append(w, WordPart{Simple, l.scanBackquoted()})
		case c == '$' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '(':
			flushSimple()
			w = append(w, WordPart{Simple, l.scanDollarParen()})
		case strings.IndexByte(wordStoppers, c) >= 0:
			if c == '>' && len(w) == 0 && allDigits(frag.String()) && frag.Len() > 0 {
				fd := atoi(frag.String())
				return l.operator(fd)
			}
			flushSimple()
			return Token{Kind: WordToken, Word: w, FD: -1, Pos: pos}
		default:
			frag.WriteByte(c)
			l.pos++
		}
	}
	flushSimple()
	return Token{Kind: WordToken, Word: w, FD: -1, Pos: pos}
}

// scanSingleQuoted consumes up to and including the closing quote.
// Every character in between is literal.
func (l *lexer) scanSingleQuoted() string {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '\'' {
		l.pos++
	}
	s := l.input[start:l.pos]
	if l.pos < len(l.input) {
		l.pos++ // closing quote
	}
	return s
}

// scanDoubleQuoted consumes up to and including the closing quote. A
// backslash before one of $ ` " \ keeps the pair together so that the
// escaped quote cannot close the string; the pair is preserved for the
// expander.
func (l *lexer) scanDoubleQuoted() string {
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\\' && l.pos+1 < len(l.input) {
			next := l.input[l.pos+1]
			if next == '$' || next == '`' || next == '"' || next == '\\' {
				sb.WriteByte(c)
				sb.WriteByte(next)
				l.pos += 2
				continue
			}
		}
		if c == '"' {
			l.pos++
			break
		}
		sb.WriteByte(c)
		l.pos++
	}
	return sb.String()
}

// scanBackquoted consumes a whole `...` span, including both backticks,
// and returns it as one fragment. Internal \` \\ \$ escapes are kept
// verbatim. The span is recognized again by the expander as a command
// substitution request; it is not broken into sub-tokens here.
func (l *lexer) scanBackquoted() string {
	var sb strings.Builder
	sb.WriteByte('`')
	l.pos++
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\\' && l.pos+1 < len(l.input) {
			sb.WriteByte(c)
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
			continue
		}
		l.pos++
		if c == '`' {
			sb.WriteByte('`')
			return sb.String()
		}
		sb.WriteByte(c)
	}
	// Unterminated span: take the rest of the input.
	sb.WriteByte('`')
	return sb.String()
}

// scanDollarParen consumes a whole $(...) span with balanced
// parentheses, returned as one fragment for the expander.
func (l *lexer) scanDollarParen() string {
	start := l.pos
	l.pos += 2 // $(
	depth := 1
	for l.pos < len(l.input) && depth > 0 {
		switch l.input[l.pos] {
		case '(':
			depth++
		case ')':
			depth--
		case '\\':
			if l.pos+1 < len(l.input) {
				l.pos++
			}
		}
		l.pos++
	}
	return l.input[start:l.pos]
}

// operator scans one operator token. fd is the descriptor parsed from a
// numeric prefix, or -1.
func (l *lexer) operator(fd int) Token {
	pos := l.pos
	switch c := l.input[l.pos]; c {
	case '>':
		l.pos++
		op := OpRedirectOut
		if l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '>':
				l.pos++
				op = OpRedirectAppend
			case '&':
				l.pos++
				op = OpRedirectDupOut
			}
		}
		if fd == 2 {
			switch op {
			case OpRedirectOut:
				op = OpRedirectError
			case OpRedirectAppend:
				op = OpRedirectErrorAppend
			}
		}
		return opToken(op, fd, pos)
	case '<':
		l.pos++
		op := OpRedirectIn
		if l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '<':
				l.pos++
				op = OpRedirectHereDoc
				if l.pos < len(l.input) && l.input[l.pos] == '<' {
					l.pos++
					op = OpRedirectHereString
				}
			case '&':
				l.pos++
				op = OpRedirectDupIn
			}
		}
		return opToken(op, fd, pos)
	case '|':
		l.pos++
		if l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '|':
				l.pos++
				return opToken(OpOr, fd, pos)
			case '&':
				l.pos++
				return opToken(OpPipeAnd, fd, pos)
			}
		}
		return opToken(OpPipe, fd, pos)
	case '&':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '&' {
			l.pos++
			return opToken(OpAnd, fd, pos)
		}
		return opToken(OpBackground, fd, pos)
	case ';':
		l.pos++
		return opToken(OpSemicolon, fd, pos)
	case '(':
		l.pos++
		return opToken(OpLParen, fd, pos)
	default: // ')'
		l.pos++
		return opToken(OpRParen, fd, pos)
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
