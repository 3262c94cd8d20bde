package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/s1f/internal/integrity"
)

const (
	uuidBeginMeta    = "--- PYMK1F_BEGIN_FILE_METADATA_BLOCK_"
	uuidEndMeta      = "--- PYMK1F_END_FILE_METADATA_BLOCK_"
	uuidBeginContent = "--- PYMK1F_BEGIN_FILE_CONTENT_BLOCK_"
	uuidEndContent   = "--- PYMK1F_END_FILE_CONTENT_BLOCK_"
	uuidMarkerTail   = " ---"
	uuidJSONLabel    = "METADATA_JSON:"
)

// Only the begin marker is matched by the pattern. The rest of the header is
// walked by hand because every marker must repeat the same UUID.
var uuidPattern = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(uuidBeginMeta) + `([0-9A-Za-z-]+)` + regexp.QuoteMeta(uuidMarkerTail) + `\r?$`)

var errMissingEndContent = errors.New("end-content marker not found")

type uuidGrammar struct{}

func (uuidGrammar) Type() SeparatorType     { return SeparatorUUID }
func (uuidGrammar) Pattern() *regexp.Regexp { return uuidPattern }

func uuidMarker(prefix, id string) string {
	return prefix + id + uuidMarkerTail
}

func (uuidGrammar) ParseMatch(text string, loc []int) (*SeparatorMatch, error) {
	id := text[loc[2]:loc[3]]
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("uuid header: %w", err)
	}

	pos := skipEOL(text, loc[1])
	label, next := readLine(text, pos)
	if strings.TrimSpace(label) != uuidJSONLabel {
		return nil, fmt.Errorf("uuid header: expected %s line", uuidJSONLabel)
	}
	pos = next

	endMeta := uuidMarker(uuidEndMeta, id)
	rel := strings.Index(text[pos:], endMeta)
	if rel < 0 {
		return nil, fmt.Errorf("uuid header: end-metadata marker for %s not found", id)
	}
	raw := text[pos : pos+rel]
	meta, err := metadataFromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("uuid header: %w", err)
	}

	pos = skipEOL(text, pos+rel+len(endMeta))
	line, next := readLine(text, pos)
	if strings.TrimRight(line, "\r") != uuidMarker(uuidBeginContent, id) {
		return nil, fmt.Errorf("uuid header: begin-content marker for %s not found", id)
	}

	return &SeparatorMatch{
		Type:         SeparatorUUID,
		Start:        loc[0],
		End:          next,
		HeaderLength: next - loc[0],
		UUID:         id,
		Metadata:     meta,
	}, nil
}

// ExtractContent looks for this block's own end-content marker anywhere after
// the header. Only the '\n' before the marker is framing, so a CR left by the
// bundler is handled by the trailing-CR repair.
func (uuidGrammar) ExtractContent(text string, m *SeparatorMatch, next *SeparatorMatch) Block {
	endContent := uuidMarker(uuidEndContent, m.UUID)
	rel := strings.Index(text[m.End:], endContent)
	if rel < 0 {
		end := boundEnd(text, next)
		return Block{Content: text[m.End:end], End: end, Warn: errMissingEndContent}
	}

	content := strings.TrimSuffix(text[m.End:m.End+rel], "\n")
	stop := m.End + rel + len(endContent)
	content, repaired := integrity.RepairTrailingCR(content, m.Metadata.SizeBytes, m.Metadata.ChecksumSHA256)
	return Block{Content: content, End: stop, Repaired: repaired}
}

func skipEOL(text string, pos int) int {
	if strings.HasPrefix(text[pos:], "\r\n") {
		return pos + 2
	}
	if strings.HasPrefix(text[pos:], "\n") {
		return pos + 1
	}
	return pos
}

// readLine returns the line at pos without its '\n' and the offset after it.
func readLine(text string, pos int) (string, int) {
	if nl := strings.IndexByte(text[pos:], '\n'); nl >= 0 {
		return text[pos : pos+nl], pos + nl + 1
	}
	return text[pos:], len(text)
}
