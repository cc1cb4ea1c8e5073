// Package shell is the interactive front end: a readline loop that
// feeds complete inputs to an evaluator, with multi-line continuation
// for unfinished heredocs and optional persistent history.
package shell

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"src.elv.sh/pkg/diag"

	"minish/pkg/eval"
	"minish/pkg/parse"
	"minish/pkg/store"
)

// Shell runs a REPL over an evaluator.
type Shell struct {
	ev *eval.Evaler
	rl *readline.Instance
	st *store.Store

	// PrintAST dumps each parsed tree before executing it.
	PrintAST bool
}

var (
	promptName = color.New(color.FgCyan, color.Bold)
	promptDir  = color.New(color.FgBlue)
)

// New sets up a Shell reading from the process terminal. The store may
// be nil, in which case history lives only in the readline buffer.
func New(ev *eval.Evaler, st *store.Store) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdin:       readline.NewCancelableStdin(os.Stdin),
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		HistoryFile: "",
	})
	if err != nil {
		return nil, err
	}
	sh := &Shell{ev: ev, rl: rl, st: st}
	if st != nil {
		ev.SetHistory(st)
		sh.preloadHistory()
	}
	return sh, nil
}

// preloadHistory seeds readline's in-memory history from the store so
// arrow-key recall works across sessions.
func (sh *Shell) preloadHistory() {
	cmds, err := sh.st.List()
	if err != nil {
		return
	}
	for _, cmd := range cmds {
		sh.rl.SaveHistory(cmd)
	}
}

// Run reads and evaluates inputs until EOF or the exit builtin, and
// returns the final status. The shell itself shrugs off the job-control
// signals that must only reach its children.
func (sh *Shell) Run() int {
	signal.Ignore(syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTSTP)
	defer sh.rl.Close()
	for {
		input, err := sh.read()
		switch {
		case err == io.EOF:
			return sh.ev.LastStatus()
		case err == readline.ErrInterrupt:
			continue
		case err != nil:
			fmt.Fprintln(os.Stderr, "minish:", err)
			return sh.ev.LastStatus()
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		sh.record(input)
		sh.evalOne(input)
		if status, ok := sh.ev.Exiting(); ok {
			return status
		}
	}
}

// read collects one complete input, prompting for more lines while the
// parser reports an unterminated heredoc.
func (sh *Shell) read() (string, error) {
	sh.rl.SetPrompt(sh.prompt())
	input, err := sh.rl.Readline()
	if err != nil {
		return "", err
	}
	for {
		_, perr := parse.Parse(parse.Lex(input))
		if !parse.IsIncomplete(perr) {
			return input, nil
		}
		sh.rl.SetPrompt("> ")
		line, err := sh.rl.Readline()
		if err != nil {
			// ^C or EOF mid-heredoc abandons the whole input.
			return "", err
		}
		input += "\n" + line
	}
}

func (sh *Shell) prompt() string {
	dir := sh.ev.Dir()
	if home := sh.ev.Getenv("HOME"); home != "" && strings.HasPrefix(dir, home) {
		dir = "~" + strings.TrimPrefix(dir, home)
	}
	return promptName.Sprint("minish") + " " + promptDir.Sprint(dir) + "$ "
}

// record saves the input in the readline buffer and, when a store is
// attached, on disk.
func (sh *Shell) record(input string) {
	sh.rl.SaveHistory(input)
	sh.saveCmd(input)
}

// saveCmd persists one input line. A failing write is reported but
// never interrupts the session.
func (sh *Shell) saveCmd(input string) {
	if sh.st == nil {
		return
	}
	if _, err := sh.st.AddCmd(input); err != nil {
		fmt.Fprintln(os.Stderr, "minish: history write failed:", err)
	}
}

func (sh *Shell) evalOne(input string) {
	n, err := parse.Parse(parse.Lex(input))
	if err != nil {
		showParseError(os.Stderr, input, err)
		return
	}
	if sh.PrintAST {
		fmt.Println(parse.PprintAST(n))
	}
	sh.ev.Exec(n)
}

// showParseError points at the offending position in the input.
func showParseError(w io.Writer, input string, err error) {
	perr, ok := err.(*parse.Error)
	if !ok {
		fmt.Fprintln(w, "minish:", err)
		return
	}
	ctx := diag.NewContext("input", input, diag.PointRanging(perr.Position))
	fmt.Fprintf(w, "minish: %s\n", perr.Message)
	fmt.Fprintf(w, "  %s\n", ctx.ShowCompact(""))
}
