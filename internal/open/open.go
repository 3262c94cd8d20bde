// Package open jumps to a file's header inside a bundle with $EDITOR.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/s1f/internal/parse"
)

// HeaderLine returns the 1-based line of the header for path in text.
func HeaderLine(text string, files []parse.ExtractedFile, path string) (int, error) {
	want := strings.TrimPrefix(strings.ReplaceAll(path, `\`, "/"), "./")
	for _, f := range files {
		if f.Meta.Path == want {
			return strings.Count(text[:f.Offset], "\n") + 1, nil
		}
	}
	return 0, fmt.Errorf("file not in bundle: %s", path)
}

// Bundle opens bundlePath in $EDITOR (less when unset) at lineNum.
func Bundle(bundlePath string, lineNum int) error {
	if _, err := os.Stat(bundlePath); err != nil {
		return fmt.Errorf("file not found: %s", bundlePath)
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	cmd := command(editor, bundlePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func command(editor, filePath string, lineNum int) *exec.Cmd {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		fields = []string{"less"}
	}
	name, extra := fields[0], fields[1:]

	var args []string
	switch {
	case strings.Contains(name, "vim") || strings.Contains(name, "nano") || strings.Contains(name, "emacs"):
		args = []string{fmt.Sprintf("+%d", lineNum), filePath}
	case strings.Contains(name, "code"):
		args = []string{"--goto", filePath + ":" + strconv.Itoa(lineNum)}
	case strings.Contains(name, "less"):
		args = []string{"+" + strconv.Itoa(lineNum), filePath}
	default:
		args = []string{filePath}
	}
	return exec.Command(name, append(extra, args...)...)
}
