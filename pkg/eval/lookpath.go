package eval

import (
	"os"
	"path/filepath"
	"strings"
)

// lookPath resolves a command name to an executable path. Unlike
// os/exec.LookPath it searches the PATH and working directory of the
// session rather than the shell process. The second return value is 0,
// [StatusCommandNotFound] or [StatusCommandNotExecutable].
func lookPath(name, wd, paths string) (string, int) {
	if strings.Contains(name, "/") {
		if !filepath.IsAbs(name) {
			name = filepath.Join(wd, name)
		}
		return name, checkExecutable(name)
	}
	status := StatusCommandNotFound
	for _, dir := range filepath.SplitList(paths) {
		if dir == "" || !filepath.IsAbs(dir) {
			// Skip relative entries for safety.
			continue
		}
		full := filepath.Join(dir, name)
		switch checkExecutable(full) {
		case 0:
			return full, 0
		case StatusCommandNotExecutable:
			status = StatusCommandNotExecutable
		}
	}
	return "", status
}

func checkExecutable(path string) int {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return StatusCommandNotFound
	}
	if info.Mode()&0o111 == 0 {
		return StatusCommandNotExecutable
	}
	return 0
}
