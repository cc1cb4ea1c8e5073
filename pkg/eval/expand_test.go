package eval

import (
	"testing"

	"minish/pkg/parse"
)

func testFrame() *frame {
	return &frame{
		variables:  map[string]string{"X": "5", "NAME": "world", "EMPTY": ""},
		aliases:    map[string]string{},
		lastStatus: 7,
	}
}

func sq(s string) parse.WordPart { return parse.WordPart{Kind: parse.SingleQuoted, Text: s} }
func dq(s string) parse.WordPart { return parse.WordPart{Kind: parse.DoubleQuoted, Text: s} }
func uq(s string) parse.WordPart { return parse.WordPart{Kind: parse.Simple, Text: s} }

func TestExpandWord(t *testing.T) {
	fm := testFrame()
	tests := []struct {
		name string
		word parse.Word
		want string
	}{
		{"empty word", parse.Word{}, ""},
		{"plain text", parse.Word{uq("abc")}, "abc"},
		{"single quotes are identity", parse.Word{sq(`$X \n ${NAME}`)}, `$X \n ${NAME}`},
		{"unquoted variable", parse.Word{uq("$X")}, "5"},
		{"braced variable", parse.Word{uq("${NAME}!")}, "world!"},
		{"unset variable is empty", parse.Word{uq("a${NOPE}b")}, "ab"},
		{"last status", parse.Word{uq("$?")}, "7"},
		{"backslash escapes next byte", parse.Word{uq(`a\ b\$X`)}, "a b$X"},
		{"backslash n is the letter n", parse.Word{uq(`\n`)}, "n"},
		{"trailing backslash dropped", parse.Word{uq(`x\`)}, "x"},
		{"double quoted variable", parse.Word{dq("hi $NAME")}, "hi world"},
		{"double quoted escape set", parse.Word{dq(`\$X \q \\`)}, `$X \q \`},
		{"lone dollar stays", parse.Word{uq("100$")}, "100$"},
		{"dollar before punctuation stays", parse.Word{uq("$.x")}, "$.x"},
		{"unclosed brace stays literal", parse.Word{uq("${X")}, "${X"},
		{"fragments concatenate in order", parse.Word{uq("a"), sq("b c"), dq("$X")}, "ab c5"},
		{"name chars stop at non-name byte", parse.Word{uq("$X/y")}, "5/y"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := fm.expandWord(test.word)
			if err != nil {
				t.Fatalf("expandWord error: %v", err)
			}
			if got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestSubstitutionSpan(t *testing.T) {
	tests := []struct {
		text string
		code string
		ok   bool
	}{
		{"`echo hi`", "echo hi", true},
		{"$(echo hi)", "echo hi", true},
		{"$(a $(b))", "a $(b)", true},
		{"plain", "", false},
		{"$", "", false},
		{"``", "", true},
	}
	for _, test := range tests {
		code, ok := substitutionSpan(test.text)
		if ok != test.ok || code != test.code {
			t.Errorf("substitutionSpan(%q) = %q, %v; want %q, %v",
				test.text, code, ok, test.code, test.ok)
		}
	}
}

func TestUnescapeBackquoted(t *testing.T) {
	tests := []struct{ in, want string }{
		{`echo hi`, `echo hi`},
		{"a \\` b", "a ` b"},
		{`\$X`, `$X`},
		{`\n`, `\n`},
	}
	for _, test := range tests {
		if got := unescapeBackquoted(test.in); got != test.want {
			t.Errorf("unescapeBackquoted(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestValidVarName(t *testing.T) {
	valid := []string{"x", "X", "_", "_a1", "PATH", "a_b_c"}
	invalid := []string{"", "1x", "a-b", "a.b", "a b", "$"}
	for _, s := range valid {
		if !validVarName(s) {
			t.Errorf("validVarName(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if validVarName(s) {
			t.Errorf("validVarName(%q) = true, want false", s)
		}
	}
}
