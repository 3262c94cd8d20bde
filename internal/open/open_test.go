package open

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/s1f/internal/parse"
	"github.com/Zuo-Peng/s1f/internal/parse/parsetest"
)

func TestHeaderLine(t *testing.T) {
	text := parsetest.Standard(
		parsetest.File{Path: "a.txt", Content: "one\ntwo\n"},
		parsetest.File{Path: "dir/b.txt", Content: "three"},
	)
	files := parse.NewParser(nil).Parse(text)
	require.Len(t, files, 2)

	line, err := HeaderLine(text, files, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, line)

	line, err = HeaderLine(text, files, `dir\b.txt`)
	require.NoError(t, err)
	assert.Equal(t, 5, line)

	_, err = HeaderLine(text, files, "missing.txt")
	assert.Error(t, err)
}

func TestCommand(t *testing.T) {
	tests := []struct {
		editor string
		want   []string
	}{
		{"vim", []string{"vim", "+12", "b.txt"}},
		{"nvim", []string{"nvim", "+12", "b.txt"}},
		{"less", []string{"less", "+12", "b.txt"}},
		{"code --wait", []string{"code", "--wait", "--goto", "b.txt:12"}},
		{"subl", []string{"subl", "b.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.editor, func(t *testing.T) {
			assert.Equal(t, tt.want, command(tt.editor, "b.txt", 12).Args)
		})
	}
}
