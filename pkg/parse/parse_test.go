package parse

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lit(texts ...string) Word {
	var w Word
	for _, t := range texts {
		w = append(w, WordPart{Simple, t})
	}
	return w
}

func cmd(name string, args ...string) *Command {
	c := &Command{Name: lit(name)}
	for _, a := range args {
		c.Args = append(c.Args, lit(a))
	}
	return c
}

var parseTests = []struct {
	name  string
	input string
	want  Node
}{
	{"simple command", "echo hello world", cmd("echo", "hello", "world")},
	{
		"quoted argument stays one word",
		`echo 'a b'`,
		&Command{Name: lit("echo"), Args: []Word{{WordPart{SingleQuoted, "a b"}}}},
	},
	{
		"sequence folds left",
		"a; b\nc",
		&Semicolon{&Semicolon{cmd("a"), cmd("b")}, cmd("c")},
	},
	{
		"trailing semicolon ignored",
		"a;",
		cmd("a"),
	},
	{
		"logical left associative",
		"a && b || c",
		&LogicalOr{&LogicalAnd{cmd("a"), cmd("b")}, cmd("c")},
	},
	{
		"pipes nest right",
		"a | b | c",
		&Pipe{Left: cmd("a"), Right: &Pipe{Left: cmd("b"), Right: cmd("c")}},
	},
	{
		"pipe binds tighter than and",
		"a | b && c",
		&LogicalAnd{&Pipe{Left: cmd("a"), Right: cmd("b")}, cmd("c")},
	},
	{
		"pipe with stderr",
		"a |& b",
		&Pipe{Left: cmd("a"), Right: cmd("b"), Stderr: true},
	},
	{
		"background",
		"sleep 5 &",
		&Background{cmd("sleep", "5")},
	},
	{
		"background acts as separator",
		"a & b",
		&Semicolon{&Background{cmd("a")}, cmd("b")},
	},
	{
		"stdout redirection",
		"echo hi > out.txt",
		&Redirect{Command: cmd("echo", "hi"), FD: 1, Target: FileTarget{lit("out.txt")}, Mode: Overwrite},
	},
	{
		"append redirection",
		"echo hi >> out.txt",
		&Redirect{Command: cmd("echo", "hi"), FD: 1, Target: FileTarget{lit("out.txt")}, Mode: Append},
	},
	{
		"stderr redirection",
		"cmd 2> err.txt",
		&Redirect{Command: cmd("cmd"), FD: 2, Target: FileTarget{lit("err.txt")}, Mode: Overwrite},
	},
	{
		"input redirection",
		"wc < data",
		&Redirect{Command: cmd("wc"), FD: 0, Target: FileTarget{lit("data")}, Mode: Input},
	},
	{
		"bare integer target is a descriptor",
		"echo x > 2",
		&Redirect{Command: cmd("echo", "x"), FD: 1, Target: DescriptorTarget{2}, Mode: Overwrite},
	},
	{
		"quoted integer target is a file",
		"echo x > '2'",
		&Redirect{Command: cmd("echo", "x"), FD: 1, Target: FileTarget{Word{WordPart{SingleQuoted, "2"}}}, Mode: Overwrite},
	},
	{
		"descriptor duplication",
		"cmd 2>&1",
		&Redirect{Command: cmd("cmd"), FD: 2, Target: DescriptorTarget{1}, Mode: DupOutput},
	},
	{
		"redirections stack",
		"cmd < in > out",
		&Redirect{
			Command: &Redirect{Command: cmd("cmd"), FD: 0, Target: FileTarget{lit("in")}, Mode: Input},
			FD:      1, Target: FileTarget{lit("out")}, Mode: Overwrite,
		},
	},
	{
		"here-string",
		"cat <<< hello",
		&Redirect{Command: cmd("cat"), FD: 0, Target: HereStringTarget{"hello\n"}, Mode: HereString},
	},
	{
		"heredoc",
		"cat <<EOF\nfirst line\nsecond\nEOF\n",
		&Redirect{Command: cmd("cat"), FD: 0, Target: HereDocTarget{"first line\nsecond\n"}, Mode: HereDoc},
	},
	{
		"heredoc delimiter on last line without newline",
		"cat <<EOF\nhi\nEOF",
		&Redirect{Command: cmd("cat"), FD: 0, Target: HereDocTarget{"hi\n"}, Mode: HereDoc},
	},
	{
		"heredoc body keeps quote characters",
		"cat <<EOF\n'a b' and \"c d\"\nEOF",
		&Redirect{Command: cmd("cat"), FD: 0, Target: HereDocTarget{"'a b' and \"c d\"\n"}, Mode: HereDoc},
	},
	{
		"assignment",
		"X=5",
		&Assignment{Name: "X", Value: lit("5")},
	},
	{
		"assignment with quoted value",
		`X="a b"`,
		&Assignment{Name: "X", Value: Word{WordPart{DoubleQuoted, "a b"}}},
	},
	{
		"assignment to empty",
		"X=",
		&Assignment{Name: "X", Value: nil},
	},
	{
		"assignment word with arguments is a command",
		"X=5 cmd",
		&Command{Name: lit("X=5"), Args: []Word{lit("cmd")}},
	},
	{
		"subshell",
		"(a; b)",
		&Subshell{&Semicolon{cmd("a"), cmd("b")}},
	},
	{
		"subshell with redirect suffix",
		"(a) > f",
		&Redirect{Command: &Subshell{cmd("a")}, FD: 1, Target: FileTarget{lit("f")}, Mode: Overwrite},
	},
	{
		"subshell in pipeline",
		"(a; b) | c",
		&Pipe{Left: &Subshell{&Semicolon{cmd("a"), cmd("b")}}, Right: cmd("c")},
	},
}

func TestParse(t *testing.T) {
	for _, test := range parseTests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse(Lex(test.input))
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", test.input, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Parse(%q) (-want+got):\n%v", test.input, diff)
			}
		})
	}
}

var parseErrorTests = []struct {
	name       string
	input      string
	incomplete bool
}{
	{"empty input", "", false},
	{"only separators", " ; \n ", false},
	{"leading pipe", "| a", false},
	{"trailing and", "a &&", false},
	{"trailing pipe", "a |", false},
	{"or operand missing", "a || ;", false},
	{"redirect without target", "a >", false},
	{"dup target not a descriptor", "a >& f", false},
	{"unclosed subshell", "(a; b", false},
	{"subshell close without open", "a )", false},
	{"heredoc without body", "cat <<EOF", true},
	{"heredoc missing delimiter", "cat <<EOF\nbody so far", true},
}

func TestParseErrors(t *testing.T) {
	for _, test := range parseErrorTests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(Lex(test.input))
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", test.input)
			}
			if got := IsIncomplete(err); got != test.incomplete {
				t.Errorf("IsIncomplete = %v, want %v (err: %v)", got, test.incomplete, err)
			}
		})
	}
}

// Argument-less commands carry a nil Args slice, the same shape a
// hand-built Command literal has.
func TestNoArgCommandHasNilArgs(t *testing.T) {
	n, err := Parse(Lex("ls"))
	if err != nil {
		t.Fatal(err)
	}
	c, ok := n.(*Command)
	if !ok {
		t.Fatalf("got %T, want *Command", n)
	}
	if c.Args != nil {
		t.Errorf("Args = %#v, want nil", c.Args)
	}
}

// A simple command survives a round trip: rendering its words back to
// text and re-parsing reproduces the same Command node.
func TestSimpleCommandRoundTrip(t *testing.T) {
	inputs := []string{
		"echo",
		"echo hello world",
		"ls -l -a /tmp",
		"grep pattern file.txt",
	}
	for _, input := range inputs {
		first, err := Parse(Lex(input))
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		c, ok := first.(*Command)
		if !ok {
			t.Fatalf("Parse(%q) = %T, want *Command", input, first)
		}
		parts := []string{c.Name.Raw()}
		for _, a := range c.Args {
			parts = append(parts, a.Raw())
		}
		second, err := Parse(Lex(strings.Join(parts, " ")))
		if err != nil {
			t.Fatalf("re-parse of %q: %v", input, err)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("round trip of %q (-first+second):\n%v", input, diff)
		}
	}
}

// Lexing and parsing are pure: the same input always yields the same
// tree, and the parser never mutates the token stream it reads.
func TestParseIsDeterministicAndNonMutating(t *testing.T) {
	for _, test := range parseTests {
		t.Run(test.name, func(t *testing.T) {
			tokens := Lex(test.input)
			before := make([]Token, len(tokens))
			copy(before, tokens)

			first, err := Parse(tokens)
			if err != nil {
				t.Fatal(err)
			}
			second, err := Parse(tokens)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("two parses of %q differ:\n%v", test.input, diff)
			}
			if diff := cmp.Diff(before, tokens); diff != "" {
				t.Errorf("Parse mutated the token stream:\n%v", diff)
			}
		})
	}
}

func TestPprintAST(t *testing.T) {
	n, err := Parse(Lex("echo hi | wc -l > out"))
	if err != nil {
		t.Fatal(err)
	}
	got := PprintAST(n)
	want := strings.Join([]string{
		`Pipe "|"`,
		"  Command echo hi",
		"  Redirect fd=1 mode=overwrite target=file:out",
		"    Command wc -l",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PprintAST (-want+got):\n%v", diff)
	}
}
