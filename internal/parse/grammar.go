package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Zuo-Peng/s1f/internal/integrity"
)

// Grammar recognizes one separator format.
//
// Pattern only locates candidate headers; ParseMatch validates the candidate
// at loc (the submatch index slice) and builds the match. ExtractContent
// returns the content of m's block, given the next surviving match in
// document order (nil for the last).
type Grammar interface {
	Type() SeparatorType
	Pattern() *regexp.Regexp
	ParseMatch(text string, loc []int) (*SeparatorMatch, error)
	ExtractContent(text string, m *SeparatorMatch, next *SeparatorMatch) Block
}

// Block is the content of one file block.
type Block struct {
	Content  string
	End      int   // offset in the bundle where this block stops
	Warn     error // non-fatal anomaly such as a missing end marker
	Repaired bool  // trailing-CR artifact was stripped
}

// nextBounded is implemented by grammars whose content runs to the next header.
type nextBounded interface {
	boundedByNext()
}

// DefaultGrammars returns all supported formats in tie-break order.
func DefaultGrammars() []Grammar {
	return []Grammar{
		uuidGrammar{},
		boundaryGrammar{},
		markdownGrammar{},
		detailedGrammar{},
		standardGrammar{},
	}
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

func setEncoding(meta *FileMetadata, raw string) {
	name, hadErrors := integrity.StripErrorSuffix(raw)
	meta.Encoding = name
	if hadErrors {
		meta.HadEncodingErrors = true
	}
}

func trimLeadingEOL(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	return strings.TrimPrefix(s, "\n")
}

func trimTrailingEOL(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}

func boundEnd(text string, next *SeparatorMatch) int {
	if next != nil {
		return next.Start
	}
	return len(text)
}

// parseTimestamp accepts ISO-8601 as written by the bundler. Values without
// a zone are taken in loc.
func parseTimestamp(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "+00:00"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	return nil
}

// metadataFromJSON normalizes the JSON bag embedded in a header.
func metadataFromJSON(raw string) (FileMetadata, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var bag map[string]any
	if err := dec.Decode(&bag); err != nil {
		return FileMetadata{}, fmt.Errorf("metadata json: %w", err)
	}
	if bag == nil {
		return FileMetadata{}, fmt.Errorf("metadata json: not an object")
	}

	var meta FileMetadata
	meta.Path = normalizePath(stringField(bag, "original_filepath", "path"))
	meta.ChecksumSHA256 = strings.ToLower(stringField(bag, "checksum_sha256", "checksum"))
	meta.SizeBytes = intField(bag, "size_bytes", "size")
	meta.Modified = parseTimestamp(stringField(bag, "timestamp_utc_iso", "modified"), time.UTC)
	meta.LineEndings = stringField(bag, "line_endings")
	meta.Type = stringField(bag, "type")
	if enc := stringField(bag, "encoding"); enc != "" {
		setEncoding(&meta, enc)
	}
	if v, ok := bag["had_encoding_errors"].(bool); ok && v {
		meta.HadEncodingErrors = true
	}
	return meta, nil
}

func stringField(bag map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := bag[k].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func intField(bag map[string]any, keys ...string) *int64 {
	for _, k := range keys {
		switch v := bag[k].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return &n
			}
			if f, err := v.Float64(); err == nil {
				n := int64(f)
				return &n
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}
