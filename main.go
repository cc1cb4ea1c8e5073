// Minish is a small POSIX-style command shell. Run without arguments
// on a terminal it is interactive; given a script file, a -c string or
// piped input it runs non-interactively.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"src.elv.sh/pkg/sys"

	"minish/pkg/eval"
	"minish/pkg/parse"
	"minish/pkg/shell"
	"minish/pkg/store"
)

var (
	command     string
	printAST    bool
	historyPath string
	noHistory   bool
)

func main() {
	root := &cobra.Command{
		Use:           "minish [script]",
		Short:         "A small POSIX-style shell",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVarP(&command, "command", "c", "", "evaluate this string instead of reading input")
	root.Flags().BoolVar(&printAST, "print-ast", false, "print the parsed tree before executing")
	root.Flags().StringVar(&historyPath, "history", "", "history database path (default ~/.minish.db)")
	root.Flags().BoolVar(&noHistory, "no-history", false, "disable persistent history")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "minish:", err)
		os.Exit(2)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ev := eval.NewEvaler(eval.StdFiles)

	switch {
	case command != "":
		os.Exit(evalChunk(ev, command))
	case len(args) > 0:
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		os.Exit(evalChunk(ev, string(src)))
	case sys.IsATTY(os.Stdin.Fd()):
		os.Exit(interact(ev))
	default:
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		os.Exit(evalChunk(ev, string(src)))
	}
	return nil
}

// evalChunk runs one whole script and returns the process exit status:
// the status of the last statement, or the exit builtin's argument.
func evalChunk(ev *eval.Evaler, src string) int {
	if printAST {
		if n, err := parse.Parse(parse.Lex(src)); err == nil {
			fmt.Println(parse.PprintAST(n))
		}
	}
	status := ev.Eval(src)
	if exit, ok := ev.Exiting(); ok {
		return exit
	}
	return status
}

func interact(ev *eval.Evaler) int {
	var st *store.Store
	if !noHistory {
		path := historyPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err == nil {
				path = filepath.Join(home, ".minish.db")
			}
		}
		if path != "" {
			var err error
			st, err = store.Open(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, "minish: history disabled:", err)
			} else {
				defer st.Close()
			}
		}
	}

	sh, err := shell.New(ev, st)
	if err != nil {
		fmt.Fprintln(os.Stderr, "minish:", err)
		return 2
	}
	sh.PrintAST = printAST
	return sh.Run()
}
