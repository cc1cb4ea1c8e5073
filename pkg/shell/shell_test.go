package shell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"minish/pkg/eval"
	"minish/pkg/parse"
	"minish/pkg/store"
)

func testEvaler(t *testing.T) *eval.Evaler {
	t.Helper()
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { devNull.Close() })
	return eval.NewEvaler([]*os.File{devNull, os.Stdout, os.Stderr})
}

func TestPromptAbbreviatesHome(t *testing.T) {
	ev := testEvaler(t)
	ev.Setenv("HOME", ev.Dir())
	sh := &Shell{ev: ev}
	assert.Contains(t, sh.prompt(), "~")
	assert.NotContains(t, sh.prompt(), ev.Dir())
}

func TestPromptOutsideHome(t *testing.T) {
	ev := testEvaler(t)
	ev.Setenv("HOME", "/nonexistent-home")
	sh := &Shell{ev: ev}
	assert.Contains(t, sh.prompt(), ev.Dir())
}

func TestSaveCmd(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	sh := &Shell{ev: testEvaler(t), st: st}

	sh.saveCmd("echo hi")
	cmds, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{"echo hi"}, cmds)

	// A closed store makes writes fail; the shell reports and carries on.
	st.Close()
	sh.saveCmd("echo again")

	sh.st = nil
	sh.saveCmd("no store at all")
}

func TestShowParseError(t *testing.T) {
	input := "echo |"
	_, err := parse.Parse(parse.Lex(input))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var sb strings.Builder
	showParseError(&sb, input, err)
	out := sb.String()
	assert.Contains(t, out, "minish:")
	assert.Contains(t, out, "missing command")
}
