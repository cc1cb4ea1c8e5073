package parse

import (
	"fmt"
	"strings"
)

// PprintAST renders a parsed tree in an indented one-node-per-line
// form, for the --print-ast flag and for debugging.
func PprintAST(n Node) string {
	var sb strings.Builder
	pprint(&sb, "", n)
	return sb.String()
}

func pprint(sb *strings.Builder, indent string, n Node) {
	indent1 := indent + "  "
	switch n := n.(type) {
	case nil:
		sb.WriteString(indent + "nil\n")
	case *Command:
		fmt.Fprintf(sb, "%sCommand %s", indent, pprintWord(n.Name))
		for _, a := range n.Args {
			sb.WriteString(" " + pprintWord(a))
		}
		sb.WriteString("\n")
	case *Pipe:
		op := "|"
		if n.Stderr {
			op = "|&"
		}
		fmt.Fprintf(sb, "%sPipe %q\n", indent, op)
		pprint(sb, indent1, n.Left)
		pprint(sb, indent1, n.Right)
	case *Redirect:
		fmt.Fprintf(sb, "%sRedirect fd=%v mode=%v target=%v\n", indent, n.FD, pprintMode(n.Mode), pprintTarget(n.Target))
		pprint(sb, indent1, n.Command)
	case *Background:
		sb.WriteString(indent + "Background\n")
		pprint(sb, indent1, n.Command)
	case *LogicalAnd:
		sb.WriteString(indent + "LogicalAnd\n")
		pprint(sb, indent1, n.Left)
		pprint(sb, indent1, n.Right)
	case *LogicalOr:
		sb.WriteString(indent + "LogicalOr\n")
		pprint(sb, indent1, n.Left)
		pprint(sb, indent1, n.Right)
	case *Subshell:
		sb.WriteString(indent + "Subshell\n")
		pprint(sb, indent1, n.Command)
	case *Semicolon:
		sb.WriteString(indent + "Semicolon\n")
		pprint(sb, indent1, n.Left)
		pprint(sb, indent1, n.Right)
	case *Assignment:
		fmt.Fprintf(sb, "%sAssignment %v = %s\n", indent, n.Name, pprintWord(n.Value))
	default:
		fmt.Fprintf(sb, "%s%T\n", indent, n)
	}
}

func pprintWord(w Word) string {
	var sb strings.Builder
	for _, p := range w {
		switch p.Kind {
		case SingleQuoted:
			fmt.Fprintf(&sb, "'%s'", p.Text)
		case DoubleQuoted:
			fmt.Fprintf(&sb, "\"%s\"", p.Text)
		default:
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return `""`
	}
	return sb.String()
}

func pprintMode(m RedirectMode) string {
	switch m {
	case Overwrite:
		return "overwrite"
	case Append:
		return "append"
	case Input:
		return "input"
	case HereDoc:
		return "heredoc"
	case HereString:
		return "herestring"
	case DupOutput:
		return "dup-out"
	default:
		return "dup-in"
	}
}

func pprintTarget(t RedirectTarget) string {
	switch t := t.(type) {
	case FileTarget:
		return "file:" + pprintWord(t.Path)
	case DescriptorTarget:
		return fmt.Sprintf("fd:%v", t.FD)
	case HereDocTarget:
		return fmt.Sprintf("heredoc:%q", t.Content)
	case HereStringTarget:
		return fmt.Sprintf("herestring:%q", t.Content)
	default:
		return "?"
	}
}
