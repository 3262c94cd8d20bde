package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/s1f/internal/journal"
	"github.com/Zuo-Peng/s1f/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorHeader  = "\033[1;34m" // bold blue
	colorDim     = "\033[2m"
	colorBoldRed = "\033[1;31m" // keyword highlights
	colorFailed  = "\033[31m"
)

// Format selects how listings are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want table, json or yaml)", s)
}

// Entry is the listing view of one parsed file.
type Entry struct {
	Path              string `json:"path" yaml:"path"`
	Format            string `json:"format" yaml:"format"`
	Size              int    `json:"size" yaml:"size"`
	RecordedSize      *int64 `json:"recorded_size,omitempty" yaml:"recorded_size,omitempty"`
	Modified          string `json:"modified,omitempty" yaml:"modified,omitempty"`
	Encoding          string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	HadEncodingErrors bool   `json:"had_encoding_errors,omitempty" yaml:"had_encoding_errors,omitempty"`
	LineEndings       string `json:"line_endings,omitempty" yaml:"line_endings,omitempty"`
	Checksum          string `json:"checksum_sha256,omitempty" yaml:"checksum_sha256,omitempty"`
}

func Entries(files []parse.ExtractedFile) []Entry {
	out := make([]Entry, len(files))
	for i, f := range files {
		e := Entry{
			Path:              f.Meta.Path,
			Format:            string(f.Separator),
			Size:              len(f.Content),
			RecordedSize:      f.Meta.SizeBytes,
			Encoding:          f.Meta.Encoding,
			HadEncodingErrors: f.Meta.HadEncodingErrors,
			LineEndings:       f.Meta.LineEndings,
			Checksum:          f.Meta.ChecksumSHA256,
		}
		if f.Meta.Modified != nil {
			e.Modified = f.Meta.Modified.Format("2006-01-02T15:04:05Z07:00")
		}
		out[i] = e
	}
	return out
}

// FileList prints the files of a bundle. Table output is colored when color
// is set and its path column is cut to width (0 = no limit).
func FileList(w io.Writer, files []parse.ExtractedFile, format Format, color bool, width int) error {
	entries := Entries(files)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	}

	pathW := len("PATH")
	for _, e := range entries {
		if n := runewidth.StringWidth(e.Path); n > pathW {
			pathW = n
		}
	}
	if width > 0 {
		// size, format, encoding and checksum columns take about 52 cells
		if limit := width - 52; limit >= 16 && pathW > limit {
			pathW = limit
		}
	}

	header := padRight("PATH", pathW) + "  " + fmt.Sprintf("%9s  %-9s  %-12s  %s", "SIZE", "FORMAT", "ENCODING", "CHECKSUM")
	if color {
		header = colorHeader + header + colorReset
	}
	fmt.Fprintln(w, header)

	var total uint64
	for _, e := range entries {
		total += uint64(e.Size)
		enc := orDash(e.Encoding)
		if e.HadEncodingErrors {
			enc += "!"
		}
		sum := orDash(e.Checksum)
		if len(sum) > 12 {
			sum = sum[:12]
		}
		path := padRight(runewidth.Truncate(e.Path, pathW, "…"), pathW)
		fmt.Fprintf(w, "%s  %9s  %-9s  %-12s  %s\n", path, humanize.IBytes(uint64(e.Size)), e.Format, enc, sum)
	}

	footer := fmt.Sprintf("%d files, %s", len(entries), humanize.IBytes(total))
	if color {
		footer = colorDim + footer + colorReset
	}
	fmt.Fprintln(w, footer)
	return nil
}

// Runs prints the extraction history.
func Runs(w io.Writer, runs []journal.Run, color bool) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "(no runs recorded)")
		return
	}
	for _, r := range runs {
		line := fmt.Sprintf("#%-4d %s  created=%d overwritten=%d failed=%d skipped=%d  %s -> %s",
			r.ID, humanize.Time(r.StartedAt), r.Created, r.Overwritten, r.Failed, r.Skipped, r.Input, r.Dest)
		if r.Cancelled {
			line += " (cancelled)"
		}
		if color && (r.Failed > 0 || r.Cancelled) {
			line = colorFailed + line + colorReset
		}
		fmt.Fprintln(w, line)
	}
}

type ContentOptions struct {
	Width       int    // wrap width (0 = no wrap)
	Query       string // highlighted case-insensitively
	LineNumbers bool
	Color       bool
}

// Content renders one file's text for the terminal. It returns the rendered
// text and the 0-based output line of the first query hit (-1 if none).
func Content(f parse.ExtractedFile, opts ContentOptions) (string, int) {
	var b strings.Builder
	lineCount := 0
	hitLine := -1

	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	title := fmt.Sprintf("--- %s [%s] %s ---", f.Meta.Path, f.Separator, humanize.IBytes(uint64(len(f.Content))))
	if opts.Color {
		title = colorDim + title + colorReset
	}
	writeLine(title)

	lines := strings.Split(strings.TrimSuffix(f.Content, "\n"), "\n")
	numW := len(fmt.Sprint(len(lines)))
	lowerQuery := strings.ToLower(opts.Query)
	for i, l := range lines {
		l = strings.TrimSuffix(l, "\r")
		if hitLine < 0 && opts.Query != "" && strings.Contains(strings.ToLower(l), lowerQuery) {
			hitLine = lineCount
		}
		if opts.Color {
			l = highlightKeywords(l, opts.Query)
		}
		if opts.LineNumbers {
			num := fmt.Sprintf("%*d ", numW, i+1)
			if opts.Color {
				num = colorDim + num + colorReset
			}
			l = num + l
		}
		writeLine(l)
	}
	return b.String(), hitLine
}

// highlightKeywords wraps case-insensitive matches of the query terms in bold red.
func highlightKeywords(text, query string) string {
	for _, term := range strings.Fields(query) {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// wrapLine breaks a line into pieces of at most maxWidth visible columns,
// skipping ANSI escape sequences when measuring.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		if r == '\t' {
			r = ' '
		}
		rw := runewidth.RuneWidth(r)
		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}
		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}
	if len(result) == 0 {
		return []string{""}
	}
	return result
}

func padRight(s string, w int) string {
	if n := runewidth.StringWidth(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
