// Package eval executes parsed shell input against a mutable session:
// an environment, a working directory, an alias table, a file table and
// the last exit status.
//
// The interpreter itself is single-threaded and synchronous; all
// parallelism is the OS scheduler's. Wherever a real POSIX shell would
// fork (the left side of a pipe, a backgrounded command, a subshell, a
// command substitution) this implementation runs the evaluation in a
// goroutine over a deep clone of the session, which gives the same
// isolation as copy-on-fork process semantics: child mutations never
// reach the parent. External commands are real processes spawned with
// the frame's file table, environment and working directory.
package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"minish/pkg/parse"
)

// History is the command-history collaborator consumed by the history
// builtin. A nil History degrades to an error message.
type History interface {
	List() ([]string, error)
}

// Evaler is a shell session. It is created once at startup and mutated
// by each evaluated statement.
type Evaler struct {
	variables  map[string]string
	aliases    map[string]string
	dir        string
	lastStatus int
	files      []*os.File
	history    History
	exitStatus *int
}

// StdFiles is the file table of a shell running on the process's own
// stdio.
var StdFiles = []*os.File{os.Stdin, os.Stdout, os.Stderr}

// NewEvaler returns a session seeded from the process environment and
// working directory, with files as descriptors 0, 1 and 2.
func NewEvaler(files []*os.File) *Evaler {
	if len(files) < 3 {
		panic("files must have at least 3 elements")
	}
	variables := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			variables[kv[:i]] = kv[i+1:]
		}
	}
	dir, err := os.Getwd()
	if err != nil {
		dir = "/"
	}
	return &Evaler{
		variables: variables,
		aliases:   make(map[string]string),
		dir:       dir,
		files:     files,
	}
}

// SetHistory wires a history store into the session.
func (ev *Evaler) SetHistory(h History) { ev.history = h }

// Dir returns the session's working directory.
func (ev *Evaler) Dir() string { return ev.dir }

// LastStatus returns the status of the last evaluated statement.
func (ev *Evaler) LastStatus() int { return ev.lastStatus }

// Getenv returns the session value of a variable, or "".
func (ev *Evaler) Getenv(name string) string { return ev.variables[name] }

// Setenv sets a session variable.
func (ev *Evaler) Setenv(name, value string) { ev.variables[name] = value }

// Exiting reports whether the exit builtin ran, and with what status.
func (ev *Evaler) Exiting() (int, bool) {
	if ev.exitStatus == nil {
		return 0, false
	}
	return *ev.exitStatus, true
}

// Eval lexes, parses and executes one chunk of input. Parse errors
// discard the whole input and yield status 2.
func (ev *Evaler) Eval(code string) int {
	n, err := parse.Parse(parse.Lex(code))
	if err != nil {
		fmt.Fprintln(ev.files[2], "minish:", err)
		ev.lastStatus = StatusSyntaxError
		return ev.lastStatus
	}
	return ev.Exec(n)
}

// Exec executes an already-parsed tree.
func (ev *Evaler) Exec(n parse.Node) int {
	fm := ev.frame()
	status, err := fm.exec(n)
	if err != nil {
		fmt.Fprintln(fm.diagFile, "minish:", err)
		if serr, ok := err.(*Error); ok {
			status = serr.Status()
		} else {
			status = StatusShellBug
		}
	}
	ev.dir = fm.dir
	ev.lastStatus = status
	ev.exitStatus = fm.exit
	return status
}

// frame is the per-evaluation view of the session. The top-level frame
// shares the Evaler's tables; cloned frames own deep copies.
type frame struct {
	variables map[string]string
	aliases   map[string]string
	dir       string
	files     []*os.File
	// Initial stderr: shell diagnostics ignore active redirections.
	diagFile *os.File
	// Initial stdin, so backgrounded commands can tell an inherited
	// pipe from the session's terminal.
	stdin      *os.File
	history    History
	lastStatus int
	// Set by the exit builtin; stops sequencing in this frame only, so
	// exit inside a subshell does not terminate the parent.
	exit *int
}

func (ev *Evaler) frame() *frame {
	return &frame{
		variables:  ev.variables,
		aliases:    ev.aliases,
		dir:        ev.dir,
		files:      cloneSlice(ev.files),
		diagFile:   ev.files[2],
		stdin:      ev.files[0],
		history:    ev.history,
		lastStatus: ev.lastStatus,
	}
}

func (fm *frame) cloneForSubshell() *frame {
	return &frame{
		variables:  cloneMap(fm.variables),
		aliases:    cloneMap(fm.aliases),
		dir:        fm.dir,
		files:      cloneSlice(fm.files),
		diagFile:   fm.diagFile,
		stdin:      fm.stdin,
		history:    fm.history,
		lastStatus: fm.lastStatus,
	}
}

// diag prints a shell diagnostic message to the saved initial stderr,
// bypassing active redirections.
func (fm *frame) diag(format string, args ...any) {
	fmt.Fprintf(fm.diagFile, "minish: "+format+"\n", args...)
}

// exec walks one AST node. The returned error is reserved for fatal
// conditions (internal bugs); ordinary failures are reported at the
// site that found them and surface only as a nonzero status.
func (fm *frame) exec(n parse.Node) (int, error) {
	switch n := n.(type) {
	case *parse.Command:
		return fm.runCommand(n)
	case *parse.Pipe:
		return fm.runPipe(n)
	case *parse.Redirect:
		return fm.runRedirect(n)
	case *parse.Background:
		return fm.runBackground(n)
	case *parse.LogicalAnd:
		return fm.runLogical(n.Left, n.Right, true)
	case *parse.LogicalOr:
		return fm.runLogical(n.Left, n.Right, false)
	case *parse.Subshell:
		sub := fm.cloneForSubshell()
		return sub.exec(n.Command)
	case *parse.Semicolon:
		return fm.runSemicolon(n)
	case *parse.Assignment:
		return fm.runAssignment(n)
	default:
		return StatusShellBug, errorf(InternalError, fmt.Sprintf("unknown node type %T", n), nil)
	}
}

func (fm *frame) runSemicolon(n *parse.Semicolon) (int, error) {
	status, err := fm.exec(n.Left)
	if err != nil {
		return status, err
	}
	fm.lastStatus = status
	if fm.exit != nil {
		return status, nil
	}
	status, err = fm.exec(n.Right)
	fm.lastStatus = status
	return status, err
}

func (fm *frame) runLogical(left, right parse.Node, wantZero bool) (int, error) {
	status, err := fm.exec(left)
	if err != nil {
		return status, err
	}
	fm.lastStatus = status
	if fm.exit != nil || (status == 0) != wantZero {
		// Short circuit.
		return status, nil
	}
	status, err = fm.exec(right)
	fm.lastStatus = status
	return status, err
}

func (fm *frame) runAssignment(n *parse.Assignment) (int, error) {
	value, err := fm.expandWord(n.Value)
	if err != nil {
		return fm.expansionFailure(err)
	}
	fm.variables[n.Name] = value
	return 0, nil
}

// expansionFailure reports a failed word expansion. Internal errors
// propagate; anything else fails the statement only.
func (fm *frame) expansionFailure(err error) (int, error) {
	if serr, ok := err.(*Error); ok && serr.Kind == InternalError {
		return StatusShellBug, err
	}
	fm.diag("%v", err)
	return StatusExpansionError, nil
}

func (fm *frame) runCommand(c *parse.Command) (int, error) {
	words := append([]parse.Word{c.Name}, c.Args...)
	// One-shot alias expansion on the command name as typed.
	if lit, ok := c.Name.Lit(); ok {
		if def, ok := fm.aliases[lit]; ok {
			words = append(aliasWords(def), c.Args...)
		}
	}
	if len(words) == 0 {
		return 0, nil
	}
	args := make([]string, len(words))
	for i, w := range words {
		s, err := fm.expandWord(w)
		if err != nil {
			return fm.expansionFailure(err)
		}
		args[i] = s
	}
	name := args[0]
	args = args[1:]

	if builtin, ok := builtins[name]; ok {
		return builtin(fm, args), nil
	}

	path, status := lookPath(name, fm.dir, fm.variables["PATH"])
	if status != 0 {
		if status == StatusCommandNotFound {
			fm.diag("%v: command not found", name)
		} else {
			fm.diag("%v: permission denied", name)
		}
		return status, nil
	}
	// argv[0] stays the name as typed.
	proc, err := os.StartProcess(path, append([]string{name}, args...), &os.ProcAttr{
		Dir:   fm.dir,
		Env:   envSlice(fm.variables),
		Files: fm.files,
	})
	if err != nil {
		fm.diag("%v: %v", name, err)
		return StatusCommandNotExecutable, nil
	}
	return fm.waitProcess(name, proc), nil
}

// aliasWords re-lexes an alias definition into words. Operators inside
// alias values are not honored.
func aliasWords(def string) []parse.Word {
	var words []parse.Word
	for _, t := range parse.Lex(def) {
		if t.Kind == parse.WordToken {
			words = append(words, t.Word)
		}
	}
	return words
}

// waitProcess blocks until the child terminates and translates its
// state into an exit status, mapping death by signal N to 128+N.
func (fm *frame) waitProcess(name string, proc *os.Process) int {
	state, err := proc.Wait()
	if err != nil {
		fm.diag("wait %v: %v", name, err)
		return StatusWaitError
	}
	if state.Exited() {
		return state.ExitCode()
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		if sig != syscall.SIGINT && sig != syscall.SIGPIPE {
			fm.diag("%v: terminated by %v", name, unix.SignalName(sig))
		}
		return StatusSignalBase + int(sig)
	}
	return StatusWaitOther
}

// runPipe connects Left's stdout (and stderr for |&) to Right's stdin.
// Left runs as a subshell in its own goroutine; Right runs in the
// current frame, so a builtin on the right of a pipe still affects the
// session. The pipeline's status is the rightmost command's; Left's
// failures are not surfaced (no pipefail).
func (fm *frame) runPipe(n *parse.Pipe) (int, error) {
	r, w, err := os.Pipe()
	if err != nil {
		fm.diag("unable to create pipe: %v", err)
		return StatusPipeError, nil
	}
	left := fm.cloneForSubshell()
	left.files[1] = w
	if n.Stderr {
		left.files[2] = w
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer w.Close()
		left.exec(n.Left)
	}()

	saved := cloneSlice(fm.files)
	fm.files[0] = r
	status, execErr := fm.exec(n.Right)
	fm.files = saved
	r.Close()
	<-done
	return status, execErr
}

// runRedirect resolves the target to an open file, swaps it into the
// frame's file table for the duration of the enclosed command, and
// restores the table on every exit path. Opened files are closed on
// every exit path as well: leaked descriptors across a long interactive
// session are the bug class this function exists to prevent.
func (fm *frame) runRedirect(n *parse.Redirect) (int, error) {
	src, cleanup, status, err := fm.redirectSource(n)
	if cleanup != nil {
		defer cleanup()
	}
	if status != 0 || err != nil {
		return status, err
	}

	saved := cloneSlice(fm.files)
	defer func() { fm.files = saved }()
	if n.FD >= len(fm.files) {
		grown := make([]*os.File, n.FD+1)
		copy(grown, fm.files)
		fm.files = grown
	}
	fm.files[n.FD] = src
	return fm.exec(n.Command)
}

// redirectSource opens or resolves the file that a redirection binds.
func (fm *frame) redirectSource(n *parse.Redirect) (src *os.File, cleanup func(), status int, err error) {
	switch t := n.Target.(type) {
	case parse.FileTarget:
		path, eerr := fm.expandWord(t.Path)
		if eerr != nil {
			status, err = fm.expansionFailure(eerr)
			return nil, nil, status, err
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(fm.dir, path)
		}
		var flag int
		switch n.Mode {
		case parse.Input:
			flag = os.O_RDONLY
		case parse.Append:
			flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		default:
			flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		if n.Mode != parse.Input {
			if merr := os.MkdirAll(filepath.Dir(path), 0o755); merr != nil {
				fm.diag("can't create directory for %v: %v", path, merr)
				return nil, nil, StatusRedirectionError, nil
			}
		}
		f, oerr := os.OpenFile(path, flag, 0o644)
		if oerr != nil {
			fm.diag("can't open redirection target: %v", oerr)
			return nil, nil, StatusRedirectionError, nil
		}
		return f, func() { f.Close() }, 0, nil
	case parse.DescriptorTarget:
		if t.FD < 0 || t.FD >= len(fm.files) || fm.files[t.FD] == nil {
			fm.diag("bad file descriptor: %v", t.FD)
			return nil, nil, StatusRedirectionError, nil
		}
		return fm.files[t.FD], nil, 0, nil
	case parse.HereDocTarget:
		return fm.synthesized(t.Content)
	case parse.HereStringTarget:
		return fm.synthesized(t.Content)
	default:
		return nil, nil, StatusShellBug, errorf(InternalError, fmt.Sprintf("unknown redirect target %T", n.Target), nil)
	}
}

// synthesized materializes heredoc or here-string content into an
// anonymous temporary file, already unlinked, open for reading at
// offset zero.
func (fm *frame) synthesized(content string) (*os.File, func(), int, error) {
	f, err := os.CreateTemp("", "minish-heredoc-*")
	if err != nil {
		fm.diag("can't create heredoc file: %v", err)
		return nil, nil, StatusRedirectionError, nil
	}
	// Unlink immediately; the open descriptor keeps the data alive.
	os.Remove(f.Name())
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		fm.diag("can't write heredoc: %v", err)
		return nil, nil, StatusRedirectionError, nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		fm.diag("can't rewind heredoc: %v", err)
		return nil, nil, StatusRedirectionError, nil
	}
	return f, func() { f.Close() }, 0, nil
}

// runBackground detaches the command: a cloned frame runs it in a
// goroutine and the parent reports success immediately. Stdin is
// rebound to /dev/null unless the command sits inside a pipeline and
// inherited a pipe end. The job gets duplicates of its descriptors, as
// a forked child would, so the parent closing a shared pipe end (the
// pipeline evaluator does this as soon as its own wait returns) cannot
// pull the job's stdio out from under it.
func (fm *frame) runBackground(n *parse.Background) (int, error) {
	bg := fm.cloneForSubshell()
	var owned []*os.File
	closeOwned := func() {
		for _, f := range owned {
			f.Close()
		}
	}
	for i, f := range bg.files {
		if f == nil {
			continue
		}
		if i == 0 && f == fm.stdin {
			devnull, err := os.Open(os.DevNull)
			if err != nil {
				closeOwned()
				fm.diag("can't open %v: %v", os.DevNull, err)
				return StatusRedirectionError, nil
			}
			bg.files[0] = devnull
			owned = append(owned, devnull)
			continue
		}
		fd, err := unix.Dup(int(f.Fd()))
		if err != nil {
			closeOwned()
			fm.diag("can't duplicate descriptor %v: %v", i, err)
			return StatusPipeError, nil
		}
		dup := os.NewFile(uintptr(fd), f.Name())
		bg.files[i] = dup
		owned = append(owned, dup)
	}
	go func() {
		defer closeOwned()
		bg.exec(n.Command)
	}()
	return 0, nil
}

func envSlice(variables map[string]string) []string {
	env := make([]string, 0, len(variables))
	for k, v := range variables {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

func cloneSlice[T any](s []T) []T {
	return append([]T(nil), s...)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	mm := make(map[K]V, len(m))
	for k, v := range m {
		mm[k] = v
	}
	return mm
}
