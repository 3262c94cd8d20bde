package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/s1f/internal/journal"
	"github.com/Zuo-Peng/s1f/internal/parse"
)

func sampleFiles() []parse.ExtractedFile {
	size := int64(5)
	mod := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	return []parse.ExtractedFile{
		{
			Meta:      parse.FileMetadata{Path: "src/a.txt", SizeBytes: &size, Modified: &mod, Encoding: "utf-8", ChecksumSHA256: strings.Repeat("ab", 32)},
			Content:   "hello",
			Separator: parse.SeparatorUUID,
		},
		{
			Meta:      parse.FileMetadata{Path: "docs/日本語.md", Encoding: "shift_jis", HadEncodingErrors: true},
			Content:   strings.Repeat("x", 2048),
			Separator: parse.SeparatorStandard,
		},
	}
}

func TestFileListTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FileList(&buf, sampleFiles(), FormatTable, false, 0))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "PATH"))
	assert.Contains(t, lines[1], "src/a.txt")
	assert.Contains(t, lines[1], "5 B")
	assert.Contains(t, lines[1], "abababababab")
	assert.NotContains(t, lines[1], strings.Repeat("ab", 7))
	assert.Contains(t, lines[2], "2.0 KiB")
	assert.Contains(t, lines[2], "shift_jis!")
	assert.Equal(t, "2 files, 2.0 KiB", lines[3])
	assert.NotContains(t, buf.String(), "\033[")
}

func TestFileListJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FileList(&buf, sampleFiles(), FormatJSON, false, 0))
	var got []Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "uuid", got[0].Format)
	assert.Equal(t, "2024-06-01T08:00:00Z", got[0].Modified)
	require.NotNil(t, got[0].RecordedSize)
	assert.EqualValues(t, 5, *got[0].RecordedSize)

	buf.Reset()
	require.NoError(t, FileList(&buf, sampleFiles(), FormatYAML, false, 0))
	var fromYAML []Entry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, got, fromYAML)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)
	f, err = ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestContent(t *testing.T) {
	f := parse.ExtractedFile{
		Meta:      parse.FileMetadata{Path: "a.go"},
		Content:   "package a\r\n\r\nfunc Hello() {}\r\n",
		Separator: parse.SeparatorDetailed,
	}
	out, hit := Content(f, ContentOptions{Query: "HELLO", LineNumbers: true})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "a.go [detailed]")
	assert.Equal(t, "1 package a", lines[1])
	assert.Equal(t, "3 func Hello() {}", lines[3])
	assert.Equal(t, 3, hit)

	colored, _ := Content(f, ContentOptions{Query: "hello", Color: true})
	assert.Contains(t, colored, colorBoldRed+"Hello"+colorReset)

	_, hit = Content(f, ContentOptions{Query: "absent"})
	assert.Equal(t, -1, hit)
}

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, wrapLine("abcdefg", 3))
	assert.Equal(t, []string{"日本", "語"}, wrapLine("日本語", 4))
	assert.Equal(t, []string{colorBoldRed + "ab", "c" + colorReset}, wrapLine(colorBoldRed+"abc"+colorReset, 2))
	assert.Equal(t, []string{""}, wrapLine("", 5))
	assert.Equal(t, []string{"unchanged"}, wrapLine("unchanged", 0))
}

func TestRuns(t *testing.T) {
	var buf bytes.Buffer
	Runs(&buf, nil, false)
	assert.Equal(t, "(no runs recorded)\n", buf.String())

	buf.Reset()
	Runs(&buf, []journal.Run{
		{ID: 2, StartedAt: time.Now(), Input: "b.txt", Dest: "out", Created: 3, Cancelled: true},
	}, false)
	assert.Contains(t, buf.String(), "#2")
	assert.Contains(t, buf.String(), "created=3")
	assert.Contains(t, buf.String(), "b.txt -> out (cancelled)")
}
