package parse

import (
	"regexp"
	"strings"
)

// ======= path/to/file.go | CHECKSUM_SHA256: <hex> ======
var standardPattern = regexp.MustCompile(`(?m)^======= (.+?)(?: \| CHECKSUM_SHA256: ([0-9a-fA-F]{64}))?[ \t]*======\r?$`)

type standardGrammar struct{}

func (standardGrammar) Type() SeparatorType     { return SeparatorStandard }
func (standardGrammar) Pattern() *regexp.Regexp { return standardPattern }
func (standardGrammar) boundedByNext()          {}

func (standardGrammar) ParseMatch(text string, loc []int) (*SeparatorMatch, error) {
	m := &SeparatorMatch{
		Type:  SeparatorStandard,
		Start: loc[0],
		End:   loc[1],
		Metadata: FileMetadata{
			Path: normalizePath(text[loc[2]:loc[3]]),
		},
	}
	if loc[4] >= 0 {
		m.Metadata.ChecksumSHA256 = strings.ToLower(text[loc[4]:loc[5]])
	}
	return m, nil
}

func (standardGrammar) ExtractContent(text string, m *SeparatorMatch, next *SeparatorMatch) Block {
	return spacedContent(text, m, next)
}

// spacedContent drops the header's own line terminator and, unless this is
// the last block, the single spacer line terminator before the next header.
func spacedContent(text string, m *SeparatorMatch, next *SeparatorMatch) Block {
	end := boundEnd(text, next)
	content := trimLeadingEOL(text[m.End:end])
	if next != nil {
		content = trimTrailingEOL(content)
	}
	return Block{Content: content, End: end}
}
