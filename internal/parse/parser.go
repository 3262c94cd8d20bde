package parse

import (
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Zuo-Peng/s1f/internal/integrity"
)

// maxAbsorb bounds how many following headers a checksummed block may
// swallow while looking for content that matches its checksum.
const maxAbsorb = 32

// Parser splits a bundle into files using every known grammar.
type Parser struct {
	Grammars []Grammar
	Logger   *log.Logger
}

// NewParser returns a parser for all five formats.
func NewParser(logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Parser{Grammars: DefaultGrammars(), Logger: logger}
}

func (p *Parser) logger() *log.Logger {
	if p.Logger == nil {
		return log.New(io.Discard)
	}
	return p.Logger
}

func (p *Parser) grammars() []Grammar {
	if len(p.Grammars) == 0 {
		return DefaultGrammars()
	}
	return p.Grammars
}

type rankedMatch struct {
	*SeparatorMatch
	grammar Grammar
}

// Matches runs every grammar over text and returns the surviving headers in
// document order. Candidates whose metadata cannot be parsed, or whose path
// is empty, are dropped with a warning.
func (p *Parser) Matches(text string) []*SeparatorMatch {
	ranked := p.collect(text)
	out := make([]*SeparatorMatch, len(ranked))
	for i, r := range ranked {
		out[i] = r.SeparatorMatch
	}
	return out
}

func (p *Parser) collect(text string) []rankedMatch {
	logger := p.logger()
	var matches []rankedMatch
	for _, g := range p.grammars() {
		for _, loc := range g.Pattern().FindAllStringSubmatchIndex(text, -1) {
			m, err := g.ParseMatch(text, loc)
			if err != nil {
				logger.Warn("skipping separator", "format", g.Type(), "offset", loc[0], "err", err)
				continue
			}
			if strings.TrimSpace(m.Metadata.Path) == "" {
				logger.Warn("skipping separator with empty path", "format", g.Type(), "offset", loc[0])
				continue
			}
			matches = append(matches, rankedMatch{SeparatorMatch: m, grammar: g})
		}
	}
	// grammars were appended in tie-break order, so a stable sort keeps it
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	return matches
}

// Parse returns every file in text in document order. An empty result means
// no separator was recognized.
func (p *Parser) Parse(text string) []ExtractedFile {
	logger := p.logger()
	matches := p.collect(text)

	var files []ExtractedFile
	cursor := 0
	for i := 0; i < len(matches); i++ {
		m := matches[i]
		if m.Start < cursor {
			logger.Debug("separator inside previous block, treating as content", "format", m.Type, "offset", m.Start, "path", m.Metadata.Path)
			continue
		}

		ni := nextAfter(matches, i, m.End)
		block := m.grammar.ExtractContent(text, m.SeparatorMatch, matchAt(matches, ni))
		if block.Warn != nil {
			logger.Warn("incomplete block", "format", m.Type, "path", m.Metadata.Path, "offset", m.Start, "err", block.Warn)
		}
		if block.Repaired {
			logger.Debug("stripped trailing carriage return", "path", m.Metadata.Path)
		}
		if _, ok := m.grammar.(nextBounded); ok && ni < len(matches) {
			block = p.absorbLookalikes(text, m, matches, ni, block)
		}

		files = append(files, ExtractedFile{
			Meta:      m.Metadata,
			Content:   block.Content,
			Separator: m.Type,
			Offset:    m.Start,
		})
		if block.End > cursor {
			cursor = block.End
		}
	}
	return files
}

// absorbLookalikes extends a checksummed block over following headers when
// its content up to the next header does not hash to the recorded checksum
// but a longer span does. The headers inside that span were file content.
func (p *Parser) absorbLookalikes(text string, m rankedMatch, matches []rankedMatch, ni int, block Block) Block {
	want := m.Metadata.ChecksumSHA256
	if want == "" || integrity.SHA256Hex([]byte(block.Content)) == want {
		return block
	}
	for j := ni + 1; j <= len(matches) && j-ni <= maxAbsorb; j++ {
		candidate := m.grammar.ExtractContent(text, m.SeparatorMatch, matchAt(matches, j))
		if integrity.SHA256Hex([]byte(candidate.Content)) == want {
			p.logger().Debug("separator look-alikes absorbed into content", "path", m.Metadata.Path, "count", j-ni)
			return candidate
		}
	}
	return block
}

func nextAfter(matches []rankedMatch, i, pos int) int {
	for j := i + 1; j < len(matches); j++ {
		if matches[j].Start >= pos {
			return j
		}
	}
	return len(matches)
}

func matchAt(matches []rankedMatch, i int) *SeparatorMatch {
	if i < len(matches) {
		return matches[i].SeparatorMatch
	}
	return nil
}
