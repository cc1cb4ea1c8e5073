package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Builtins run in-process against the current frame, with no fork. The
// dispatch contract: status 0 on success, nonzero plus a printed
// message on failure.
//
// The map is populated in init because typeCmd consults it through
// IsBuiltin; a package-level literal would be an initialization cycle.
var builtins map[string]func(*frame, []string) int

func init() {
	builtins = map[string]func(*frame, []string) int{
		"alias":   aliasCmd,
		"cd":      cd,
		"echo":    echo,
		"exit":    exitCmd,
		"export":  export,
		"false":   falseCmd,
		"history": historyCmd,
		"pwd":     pwd,
		"true":    trueCmd,
		"type":    typeCmd,
		"unalias": unalias,
		"unset":   unset,
	}
}

// IsBuiltin reports whether name dispatches to an in-process command.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func cd(fm *frame, args []string) int {
	var target string
	switch {
	case len(args) == 0:
		target = fm.variables["HOME"]
		if target == "" {
			fm.diag("cd: HOME not set")
			return StatusBuiltinError
		}
	case args[0] == "-":
		target = fm.variables["OLDPWD"]
		if target == "" {
			fm.diag("cd: OLDPWD not set")
			return StatusBuiltinError
		}
		fmt.Fprintln(fm.files[1], target)
	default:
		target = args[0]
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(fm.dir, target)
	}
	target = filepath.Clean(target)
	info, err := os.Stat(target)
	if err != nil {
		fm.diag("cd: %v: no such file or directory", target)
		return StatusBuiltinError
	}
	if !info.IsDir() {
		fm.diag("cd: %v: not a directory", target)
		return StatusBuiltinError
	}
	fm.variables["OLDPWD"] = fm.dir
	fm.dir = target
	fm.variables["PWD"] = target
	return 0
}

func pwd(fm *frame, args []string) int {
	fmt.Fprintln(fm.files[1], fm.dir)
	return 0
}

func echo(fm *frame, args []string) int {
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	fmt.Fprint(fm.files[1], strings.Join(args, " "))
	if newline {
		fmt.Fprintln(fm.files[1])
	}
	return 0
}

func exitCmd(fm *frame, args []string) int {
	status := fm.lastStatus
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fm.diag("exit: %v: numeric argument required", args[0])
			n = StatusSyntaxError
		}
		status = n & 0xff
	}
	fm.exit = &status
	return status
}

func export(fm *frame, args []string) int {
	// Every session variable is passed to children, so export reduces
	// to assignment.
	status := 0
	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		if !validVarName(name) {
			fm.diag("export: %v: not a valid identifier", name)
			status = StatusBuiltinError
			continue
		}
		if hasValue {
			fm.variables[name] = value
		}
	}
	return status
}

func unset(fm *frame, args []string) int {
	for _, name := range args {
		delete(fm.variables, name)
	}
	return 0
}

func aliasCmd(fm *frame, args []string) int {
	if len(args) == 0 {
		names := make([]string, 0, len(fm.aliases))
		for name := range fm.aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(fm.files[1], "alias %v='%v'\n", name, fm.aliases[name])
		}
		return 0
	}
	status := 0
	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		if hasValue {
			fm.aliases[name] = value
		} else if def, ok := fm.aliases[name]; ok {
			fmt.Fprintf(fm.files[1], "alias %v='%v'\n", name, def)
		} else {
			fm.diag("alias: %v: not found", name)
			status = StatusBuiltinError
		}
	}
	return status
}

func unalias(fm *frame, args []string) int {
	status := 0
	for _, name := range args {
		if _, ok := fm.aliases[name]; !ok {
			fm.diag("unalias: %v: not found", name)
			status = StatusBuiltinError
			continue
		}
		delete(fm.aliases, name)
	}
	return status
}

func trueCmd(*frame, []string) int  { return 0 }
func falseCmd(*frame, []string) int { return 1 }

func typeCmd(fm *frame, args []string) int {
	status := 0
	for _, name := range args {
		switch {
		case IsBuiltin(name):
			fmt.Fprintf(fm.files[1], "%v is a shell builtin\n", name)
		case fm.aliases[name] != "":
			fmt.Fprintf(fm.files[1], "%v is aliased to '%v'\n", name, fm.aliases[name])
		default:
			if path, st := lookPath(name, fm.dir, fm.variables["PATH"]); st == 0 {
				fmt.Fprintf(fm.files[1], "%v is %v\n", name, path)
			} else {
				fm.diag("type: %v: not found", name)
				status = StatusBuiltinError
			}
		}
	}
	return status
}

func historyCmd(fm *frame, args []string) int {
	if fm.history == nil {
		fm.diag("history: no history store in this session")
		return StatusBuiltinError
	}
	cmds, err := fm.history.List()
	if err != nil {
		fm.diag("history: %v", err)
		return StatusBuiltinError
	}
	for i, cmd := range cmds {
		fmt.Fprintf(fm.files[1], "%5d  %v\n", i+1, cmd)
	}
	return 0
}
