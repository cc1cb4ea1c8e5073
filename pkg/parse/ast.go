package parse

// The AST is a pure tree: every composite node exclusively owns its
// children, and a tree is produced once per input line and discarded
// after execution.

// Node is the interface implemented by all AST node types.
type Node interface {
	astNode()
}

// Command is one simple command: a name and its arguments, all left as
// unexpanded words until execution time.
type Command struct {
	Name Word
	Args []Word
}

// Pipe connects Left's stdout to Right's stdin. Right may itself be a
// Pipe, giving left-to-right data flow through right-nested nodes. When
// Stderr is set (the |& operator), Left's stderr is also sent into the
// pipe.
type Pipe struct {
	Left   Node
	Right  Node
	Stderr bool
}

// RedirectMode says how the target of a redirection is attached.
type RedirectMode int

const (
	Overwrite RedirectMode = iota
	Append
	Input
	HereDoc
	HereString
	DupOutput
	DupInput
)

// RedirectTarget is what a redirection points at: a file name (still a
// word, expanded at execution time), another descriptor, or literal
// content synthesized by the shell.
type RedirectTarget interface {
	redirectTarget()
}

type FileTarget struct{ Path Word }
type DescriptorTarget struct{ FD int }
type HereDocTarget struct{ Content string }
type HereStringTarget struct{ Content string }

func (FileTarget) redirectTarget()       {}
func (DescriptorTarget) redirectTarget() {}
func (HereDocTarget) redirectTarget()    {}
func (HereStringTarget) redirectTarget() {}

// Redirect rebinds descriptor FD of the enclosed command.
type Redirect struct {
	Command Node
	FD      int
	Target  RedirectTarget
	Mode    RedirectMode
}

// Background runs the enclosed command without waiting for it.
type Background struct {
	Command Node
}

// LogicalAnd runs Right only if Left succeeded.
type LogicalAnd struct {
	Left  Node
	Right Node
}

// LogicalOr runs Right only if Left failed.
type LogicalOr struct {
	Left  Node
	Right Node
}

// Subshell runs the enclosed command in an isolated copy of the
// session; its state mutations are invisible to the parent.
type Subshell struct {
	Command Node
}

// Semicolon runs Left, then Right; the result is Right's.
type Semicolon struct {
	Left  Node
	Right Node
}

// Assignment sets a session variable to the expansion of Value.
type Assignment struct {
	Name  string
	Value Word
}

func (*Command) astNode()    {}
func (*Pipe) astNode()       {}
func (*Redirect) astNode()   {}
func (*Background) astNode() {}
func (*LogicalAnd) astNode() {}
func (*LogicalOr) astNode()  {}
func (*Subshell) astNode()   {}
func (*Semicolon) astNode()  {}
func (*Assignment) astNode() {}
