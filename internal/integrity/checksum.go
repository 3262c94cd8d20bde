package integrity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ChecksumStatus is the outcome of comparing written bytes with a recorded checksum.
type ChecksumStatus int

const (
	ChecksumSkipped ChecksumStatus = iota
	ChecksumMatch
	ChecksumMatchNormalized // matched only after LF normalization
	ChecksumMismatch
)

func (s ChecksumStatus) String() string {
	switch s {
	case ChecksumMatch:
		return "match"
	case ChecksumMatchNormalized:
		return "match-normalized"
	case ChecksumMismatch:
		return "mismatch"
	default:
		return "skipped"
	}
}

// SHA256Hex returns the lowercase hex SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum compares data against expected. An empty expected checksum
// yields ChecksumSkipped. On a direct mismatch the data is LF-normalized and
// hashed again once; actual is always the checksum of data as given.
func VerifyChecksum(data []byte, expected string) (status ChecksumStatus, actual string) {
	actual = SHA256Hex(data)
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected == "" {
		return ChecksumSkipped, actual
	}
	if actual == expected {
		return ChecksumMatch, actual
	}
	if SHA256Hex(NormalizeLineEndings(data)) == expected {
		return ChecksumMatchNormalized, actual
	}
	return ChecksumMismatch, actual
}

// NormalizeLineEndings converts CRLF and lone CR to LF.
func NormalizeLineEndings(data []byte) []byte {
	out := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}

// RepairTrailingCR compensates for one known bundler artifact: content that
// gained a single trailing carriage return. It returns the stripped content
// and true only when size and checksum are both known, the UTF-8 content is
// exactly one byte longer than size, ends in '\r', and the stripped content
// matches both size and checksum. Any other discrepancy is left untouched.
func RepairTrailingCR(content string, size *int64, checksum string) (string, bool) {
	checksum = strings.ToLower(strings.TrimSpace(checksum))
	if size == nil || checksum == "" {
		return content, false
	}
	if int64(len(content)) != *size+1 || !strings.HasSuffix(content, "\r") {
		return content, false
	}
	stripped := content[:len(content)-1]
	if int64(len(stripped)) != *size || SHA256Hex([]byte(stripped)) != checksum {
		return content, false
	}
	return stripped, true
}
