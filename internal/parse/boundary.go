package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// BoundaryToken frames every line of the legacy machine-readable header.
const BoundaryToken = "# PYM1F-BOUNDARY-99C5F740A78D4ABC82E3F9882D5A281E"

var (
	boundaryPattern = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(BoundaryToken) + `\r?\n` +
		`# FILE: (.+?)\r?\n` +
		regexp.QuoteMeta(BoundaryToken) + `\r?\n` +
		`# METADATA: (\{.*\})\r?\n` +
		regexp.QuoteMeta(BoundaryToken) + `\r?\n`)

	boundaryEndPattern = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(BoundaryToken) + `\r?\n` +
		`# END FILE\r?\n` +
		regexp.QuoteMeta(BoundaryToken) + `\r?$`)
)

var errMissingEndBoundary = errors.New("END FILE boundary not found")

type boundaryGrammar struct{}

func (boundaryGrammar) Type() SeparatorType     { return SeparatorBoundary }
func (boundaryGrammar) Pattern() *regexp.Regexp { return boundaryPattern }

func (boundaryGrammar) ParseMatch(text string, loc []int) (*SeparatorMatch, error) {
	meta, err := metadataFromJSON(text[loc[4]:loc[5]])
	if err != nil {
		return nil, fmt.Errorf("boundary header: %w", err)
	}
	meta.Path = normalizePath(text[loc[2]:loc[3]])

	end := loc[1]
	if strings.HasPrefix(text[end:], "\r\n") {
		end += 2
	}
	return &SeparatorMatch{
		Type:         SeparatorBoundary,
		Start:        loc[0],
		End:          end,
		HeaderLength: end - loc[0],
		Metadata:     meta,
	}, nil
}

func (boundaryGrammar) ExtractContent(text string, m *SeparatorMatch, next *SeparatorMatch) Block {
	if loc := boundaryEndPattern.FindStringIndex(text[m.End:]); loc != nil {
		content := trimTrailingEOL(text[m.End : m.End+loc[0]])
		stop := m.End + loc[1]
		return Block{Content: content, End: stop}
	}
	end := boundEnd(text, next)
	return Block{Content: text[m.End:end], End: end, Warn: errMissingEndBoundary}
}
