package eval

import "testing"

func TestBuiltinTableRegistered(t *testing.T) {
	names := []string{
		"alias", "cd", "echo", "exit", "export", "false",
		"history", "pwd", "true", "type", "unalias", "unset",
	}
	for _, name := range names {
		if !IsBuiltin(name) {
			t.Errorf("IsBuiltin(%q) = false, want true", name)
		}
	}
	if IsBuiltin("definitely-not-a-builtin") {
		t.Error("IsBuiltin accepted an unregistered name")
	}
}
