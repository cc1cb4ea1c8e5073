// Package parse turns a line of shell input into an abstract syntax
// tree, via a quoting-aware lexer and a recursive-descent parser.
//
// Precedence, lowest binding first: ";" sequencing, then "&&"/"||"
// (left-associative, one tier), then "|", then trailing redirection and
// backgrounding markers, then the bare command.
package parse

import (
	"fmt"
	"regexp"
	"strings"
)

// Parse assembles a token stream into an AST. The token slice is never
// mutated. Parsing fails fast: the first unmet expectation aborts the
// whole line.
func Parse(tokens []Token) (Node, error) {
	p := &parser{tokens: tokens}
	n, err := p.sequence()
	if err != nil {
		return nil, err
	}
	p.skipSeparators()
	if t := p.cur(); t != nil {
		return nil, p.errorf(t.Pos, "unexpected %v", describe(*t))
	}
	return n, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) cur() *Token {
	if p.pos < len(p.tokens) {
		return &p.tokens[p.pos]
	}
	return nil
}

func (p *parser) advance() { p.pos++ }

func (p *parser) skipSpaces() {
	for t := p.cur(); t != nil && t.Kind == SpaceToken; t = p.cur() {
		p.advance()
	}
}

// skipSeparators skips spaces, newlines and semicolons.
func (p *parser) skipSeparators() {
	for t := p.cur(); t != nil; t = p.cur() {
		if t.Kind == SpaceToken || t.Kind == NewlineToken ||
			(t.Kind == OperatorToken && t.Op == OpSemicolon) {
			p.advance()
			continue
		}
		return
	}
}

func (p *parser) atOp(op Operator) bool {
	t := p.cur()
	return t != nil && t.Kind == OperatorToken && t.Op == op
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &Error{Position: pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) lastPos() int {
	if len(p.tokens) == 0 {
		return 0
	}
	return p.tokens[len(p.tokens)-1].Pos
}

func describe(t Token) string {
	switch t.Kind {
	case WordToken:
		return fmt.Sprintf("word %q", t.Word.Raw())
	case OperatorToken:
		return fmt.Sprintf("operator %q", t.Op.String())
	case NewlineToken:
		return "newline"
	default:
		return "whitespace"
	}
}

// sequence = logical { (";" | newline) logical }
//
// A trailing background command also acts as a separator, so that
// "a & b" runs a detached and then b.
func (p *parser) sequence() (Node, error) {
	p.skipSeparators()
	if p.cur() == nil {
		return nil, p.errorf(p.lastPos(), "empty command")
	}
	left, err := p.logical()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpaces()
		t := p.cur()
		if t == nil {
			return left, nil
		}
		sep := t.Kind == NewlineToken || (t.Kind == OperatorToken && t.Op == OpSemicolon)
		if !sep {
			// "a & b": the & was consumed as a background suffix, and
			// what follows starts a new statement.
			if _, bg := left.(*Background); !bg || !p.startsCommand() {
				return left, nil
			}
		}
		p.skipSeparators()
		if !p.startsCommand() {
			// Trailing separator.
			return left, nil
		}
		right, err := p.logical()
		if err != nil {
			return nil, err
		}
		left = &Semicolon{Left: left, Right: right}
	}
}

func (p *parser) startsCommand() bool {
	t := p.cur()
	if t == nil {
		return false
	}
	return t.Kind == WordToken || (t.Kind == OperatorToken && t.Op == OpLParen)
}

// logical = pipeline { ("&&" | "||") pipeline }, strictly
// left-associative: a && b || c is (a && b) || c.
func (p *parser) logical() (Node, error) {
	left, err := p.pipeline()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpaces()
		var and bool
		switch {
		case p.atOp(OpAnd):
			and = true
		case p.atOp(OpOr):
			and = false
		default:
			return left, nil
		}
		opPos := p.cur().Pos
		opName := p.cur().Op.String()
		p.advance()
		p.skipSeparators()
		if !p.startsCommand() {
			return nil, p.errorf(opPos, "missing command after %q", opName)
		}
		right, err := p.pipeline()
		if err != nil {
			return nil, err
		}
		if and {
			left = &LogicalAnd{Left: left, Right: right}
		} else {
			left = &LogicalOr{Left: left, Right: right}
		}
	}
}

// pipeline = commandWithRedirects [ ("|" | "|&") pipeline ]
//
// Pipes nest to the right: the left operand is the command so far, the
// right is a fresh parse of the rest, which yields left-to-right data
// flow through the chain.
func (p *parser) pipeline() (Node, error) {
	left, err := p.commandWithRedirects()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if !p.atOp(OpPipe) && !p.atOp(OpPipeAnd) {
		return left, nil
	}
	stderr := p.atOp(OpPipeAnd)
	opPos := p.cur().Pos
	p.advance()
	p.skipSeparators()
	if !p.startsCommand() {
		return nil, p.errorf(opPos, "missing command after %q", "|")
	}
	right, err := p.pipeline()
	if err != nil {
		return nil, err
	}
	return &Pipe{Left: left, Right: right, Stderr: stderr}, nil
}

// commandWithRedirects parses a bare command or parenthesized subshell
// and then wraps it in zero or more trailing redirection and
// backgrounding markers.
func (p *parser) commandWithRedirects() (Node, error) {
	p.skipSpaces()
	var node Node
	var err error
	if p.atOp(OpLParen) {
		lparenPos := p.cur().Pos
		p.advance()
		inner, err := p.sequence()
		if err != nil {
			return nil, err
		}
		p.skipSeparators()
		if !p.atOp(OpRParen) {
			return nil, p.errorf(lparenPos, "missing closing parenthesis")
		}
		p.advance()
		node = &Subshell{Command: inner}
	} else {
		node, err = p.simple()
		if err != nil {
			return nil, err
		}
	}
	for {
		p.skipSpaces()
		t := p.cur()
		if t == nil || t.Kind != OperatorToken {
			return node, nil
		}
		switch t.Op {
		case OpRedirectOut, OpRedirectAppend, OpRedirectIn, OpRedirectError,
			OpRedirectErrorAppend, OpRedirectHereDoc, OpRedirectHereString,
			OpRedirectDupOut, OpRedirectDupIn:
			node, err = p.redirect(node, *t)
			if err != nil {
				return nil, err
			}
		case OpBackground:
			p.advance()
			node = &Background{Command: node}
		default:
			return node, nil
		}
	}
}

var assignPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*=`)

// simple = word { word }. A lone word of the form NAME=value is a
// variable assignment instead.
func (p *parser) simple() (Node, error) {
	var words []Word
	firstPos := p.lastPos()
	for {
		p.skipSpaces()
		t := p.cur()
		if t == nil || t.Kind != WordToken {
			break
		}
		if len(words) == 0 {
			firstPos = t.Pos
		}
		words = append(words, t.Word)
		p.advance()
	}
	if len(words) == 0 {
		if t := p.cur(); t != nil {
			return nil, p.errorf(t.Pos, "empty command before %v", describe(*t))
		}
		return nil, p.errorf(firstPos, "empty command")
	}
	if len(words) == 1 {
		if a, ok := splitAssignment(words[0]); ok {
			return a, nil
		}
		// Nil, not an empty slice, so argument-less commands compare
		// equal however they were constructed.
		return &Command{Name: words[0]}, nil
	}
	return &Command{Name: words[0], Args: words[1:]}, nil
}

// splitAssignment recognizes NAME=value in a word whose leading
// fragment is unquoted. The value keeps any further fragments of the
// word, so X="a b" assigns the double-quoted part.
func splitAssignment(w Word) (*Assignment, bool) {
	if len(w) == 0 || w[0].Kind != Simple {
		return nil, false
	}
	m := assignPattern.FindString(w[0].Text)
	if m == "" {
		return nil, false
	}
	name := m[:len(m)-1]
	var val Word
	if rest := w[0].Text[len(m):]; rest != "" {
		val = append(val, WordPart{Simple, rest})
	}
	val = append(val, w[1:]...)
	return &Assignment{Name: name, Value: val}, true
}

func defaultFD(op Operator) int {
	switch op {
	case OpRedirectOut, OpRedirectAppend, OpRedirectDupOut:
		return 1
	case OpRedirectError, OpRedirectErrorAppend:
		return 2
	default:
		return 0
	}
}

func redirectMode(op Operator) RedirectMode {
	switch op {
	case OpRedirectOut, OpRedirectError:
		return Overwrite
	case OpRedirectAppend, OpRedirectErrorAppend:
		return Append
	case OpRedirectIn:
		return Input
	case OpRedirectHereDoc:
		return HereDoc
	case OpRedirectHereString:
		return HereString
	case OpRedirectDupOut:
		return DupOutput
	default:
		return DupInput
	}
}

// redirect consumes one redirection operator plus its target and wraps
// node. The target word is inspected textually: a bare integer always
// means descriptor duplication, never a file named by digits.
func (p *parser) redirect(node Node, t Token) (Node, error) {
	p.advance()
	fd := t.FD
	if fd < 0 {
		fd = defaultFD(t.Op)
	}
	mode := redirectMode(t.Op)
	p.skipSpaces()
	w := p.cur()
	if w == nil || w.Kind != WordToken {
		return nil, p.errorf(t.Pos, "expected filename after redirection operator %q", t.Op.String())
	}
	p.advance()
	var target RedirectTarget
	switch mode {
	case HereDoc:
		content, err := p.collectHereDoc(t.Pos, w.Word.Raw())
		if err != nil {
			return nil, err
		}
		target = HereDocTarget{Content: content}
	case HereString:
		target = HereStringTarget{Content: w.Word.Raw() + "\n"}
	case DupOutput, DupInput:
		if !w.Word.IsBareInt() {
			return nil, p.errorf(w.Pos, "expected descriptor after %q", t.Op.String())
		}
		target = DescriptorTarget{FD: atoi(w.Word.Raw())}
	default:
		if w.Word.IsBareInt() {
			target = DescriptorTarget{FD: atoi(w.Word.Raw())}
		} else {
			target = FileTarget{Path: w.Word}
		}
	}
	return &Redirect{Command: node, FD: fd, Target: target, Mode: mode}, nil
}

// collectHereDoc consumes the heredoc body from the token stream: the
// lines after the next newline, up to a line equal to the delimiter.
// Body lines are reassembled from their tokens, so runs of whitespace
// inside them collapse to single spaces. Running out of tokens yields
// an Incomplete error so an interactive caller can read more lines.
func (p *parser) collectHereDoc(opPos int, delim string) (string, error) {
	incomplete := &Error{Position: opPos, Message: fmt.Sprintf("undelimited heredoc %q", delim), Incomplete: true}
	// Anything before the first newline is not part of the body.
	for {
		t := p.cur()
		if t == nil {
			return "", incomplete
		}
		if t.Kind == NewlineToken {
			p.advance()
			break
		}
		if t.Kind != SpaceToken {
			return "", p.errorf(t.Pos, "unexpected %v after heredoc delimiter", describe(*t))
		}
		p.advance()
	}
	var content strings.Builder
	var line strings.Builder
	for {
		t := p.cur()
		if t == nil {
			// A delimiter on the final line needs no trailing newline.
			if line.String() == delim {
				return content.String(), nil
			}
			return "", incomplete
		}
		p.advance()
		switch t.Kind {
		case NewlineToken:
			if line.String() == delim {
				return content.String(), nil
			}
			content.WriteString(line.String())
			content.WriteByte('\n')
			line.Reset()
		case SpaceToken:
			line.WriteByte(' ')
		case WordToken:
			// Source, not Raw: body lines are literal text, so quote
			// characters the lexer consumed must come back.
			line.WriteString(t.Word.Source())
		case OperatorToken:
			line.WriteString(t.Op.String())
		}
	}
}
