package parse

import (
	"fmt"
	"time"
)

// SeparatorType names the grammar that recognized a file header.
type SeparatorType string

const (
	SeparatorUUID     SeparatorType = "uuid"
	SeparatorBoundary SeparatorType = "boundary"
	SeparatorMarkdown SeparatorType = "markdown"
	SeparatorDetailed SeparatorType = "detailed"
	SeparatorStandard SeparatorType = "standard"
)

// FileMetadata describes one reconstructed file as recorded in its header.
type FileMetadata struct {
	Path              string     `json:"path" yaml:"path"` // forward-slash relative path
	ChecksumSHA256    string     `json:"checksum_sha256,omitempty" yaml:"checksum_sha256,omitempty"`
	SizeBytes         *int64     `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	Modified          *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	Encoding          string     `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	LineEndings       string     `json:"line_endings,omitempty" yaml:"line_endings,omitempty"`
	Type              string     `json:"type,omitempty" yaml:"type,omitempty"`
	HadEncodingErrors bool       `json:"had_encoding_errors,omitempty" yaml:"had_encoding_errors,omitempty"`
}

// ExtractedFile pairs metadata with the content as decoded from the bundle.
type ExtractedFile struct {
	Meta      FileMetadata
	Content   string
	Separator SeparatorType
	Offset    int // start of the header in the bundle text
}

// SeparatorMatch is a header recognized by one grammar.
type SeparatorMatch struct {
	Type         SeparatorType
	Start        int
	End          int
	HeaderLength int
	UUID         string // only set by the UUID grammar
	Metadata     FileMetadata
}

func (m *SeparatorMatch) String() string {
	return fmt.Sprintf("%s@%d %q", m.Type, m.Start, m.Metadata.Path)
}
