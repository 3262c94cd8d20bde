package parse

import (
	"regexp"
	"strings"
	"time"
)

// DetailedRule is the full-width banner rule of the Detailed format.
var DetailedRule = strings.Repeat("=", 88)

var detailedPattern = regexp.MustCompile(`(?m)^` + DetailedRule + `\r?\n` +
	`== FILE: (.+?)\r?\n` +
	`== DATE: (.*?) \| SIZE: (.*?) \| TYPE: (.*?)\r?\n` +
	`(?:== ENCODING: (.*?)\r?\n)?` +
	`(?:== CHECKSUM_SHA256: ([0-9a-fA-F]{64})\r?\n)?` +
	DetailedRule + `\r?$`)

type detailedGrammar struct{}

func (detailedGrammar) Type() SeparatorType     { return SeparatorDetailed }
func (detailedGrammar) Pattern() *regexp.Regexp { return detailedPattern }
func (detailedGrammar) boundedByNext()          {}

func (detailedGrammar) ParseMatch(text string, loc []int) (*SeparatorMatch, error) {
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
		Type:         SeparatorDetailed,
		Start:        loc[0],
		End:          loc[1],
		HeaderLength: loc[1] - loc[0],
		Metadata:     meta,
	}, nil
}

func (detailedGrammar) ExtractContent(text string, m *SeparatorMatch, next *SeparatorMatch) Block {
	return spacedContent(text, m, next)
}
