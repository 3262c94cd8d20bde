package parse

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const fence = "```"

var markdownPattern = regexp.MustCompile(`(?m)^## (.+?)\r?\n` +
	`\*\*Date Modified:\*\* (.*?) \| \*\*Size:\*\* (.*?) \| \*\*Type:\*\* (.*?)` +
	`(?: \| \*\*Encoding:\*\* (.*?))?` +
	`(?: \| \*\*Checksum \(SHA256\):\*\* ([0-9a-fA-F]{64}))?\r?\n` +
	`\r?\n` +
	fence + `([^\r\n` + "`" + `]*)\r?\n`)

var errMissingFence = errors.New("closing code fence not found")

type markdownGrammar struct{}

func (markdownGrammar) Type() SeparatorType     { return SeparatorMarkdown }
func (markdownGrammar) Pattern() *regexp.Regexp { return markdownPattern }

func (markdownGrammar) ParseMatch(text string, loc []int) (*SeparatorMatch, error) {
	group := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}
	meta := FileMetadata{
		Path:           normalizePath(group(1)),
		Modified:       parseTimestamp(group(2), time.Local),
		Type:           strings.TrimSpace(group(4)),
		ChecksumSHA256: strings.ToLower(group(6)),
	}
	if enc := group(5); enc != "" {
		setEncoding(&meta, enc)
	}
	return &SeparatorMatch{
		Type:         SeparatorMarkdown,
		Start:        loc[0],
		End:          loc[1],
		HeaderLength: loc[1] - loc[0],
		Metadata:     meta,
	}, nil
}

// ExtractContent takes everything up to the last closing fence before the
// next header. The line terminator before the fence stays with the content.
// When the region holds no fence, the closing fence is looked for further on,
// right before the next Markdown header or the end of the text, so that
// look-alike headers inside the code block do not cut it short.
func (markdownGrammar) ExtractContent(text string, m *SeparatorMatch, next *SeparatorMatch) Block {
	end := boundEnd(text, next)
	region := text[m.End:end]
	if i := lastFence(region); i >= 0 {
		return Block{Content: region[:i], End: end}
	}
	if next != nil {
		if i, stop := fenceBeforeMarkdownHeader(text, end); i >= 0 {
			return Block{Content: text[m.End:i], End: stop}
		}
	}
	return Block{Content: region, End: end, Warn: errMissingFence}
}

// lastFence returns the offset of the last line in s that is a bare fence.
func lastFence(s string) int {
	search := s
	for {
		i := strings.LastIndex(search, fence)
		if i < 0 {
			return -1
		}
		if (i == 0 || search[i-1] == '\n') && strings.TrimSpace(restOfLine(s[i+len(fence):])) == "" {
			return i
		}
		search = search[:i]
	}
}

// fenceBeforeMarkdownHeader scans forward from pos for a fence line that is
// followed only by blank lines and then a Markdown header or EOF. It returns
// the fence offset and the offset where the block stops.
func fenceBeforeMarkdownHeader(text string, pos int) (int, int) {
	for pos < len(text) {
		i := strings.Index(text[pos:], fence)
		if i < 0 {
			return -1, -1
		}
		at := pos + i
		pos = at + len(fence)
		if at > 0 && text[at-1] != '\n' {
			continue
		}
		if strings.TrimSpace(restOfLine(text[pos:])) != "" {
			continue
		}
		after := strings.TrimLeft(text[pos:], " \t\r\n")
		stop := len(text) - len(after)
		if after == "" {
			return at, len(text)
		}
		if loc := markdownPattern.FindStringIndex(text[stop:]); loc != nil && loc[0] == 0 {
			return at, stop
		}
	}
	return -1, -1
}

func restOfLine(s string) string {
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		return s[:nl]
	}
	return s
}
