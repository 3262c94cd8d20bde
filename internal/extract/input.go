package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding/charmap"
)

const (
	sniffLen        = 8 << 10
	maxNonPrintable = 0.30
	utf8BOM         = "\xef\xbb\xbf"
)

// ReadBundle loads the whole bundle as text. Bundles that are not valid UTF-8
// are decoded as ISO-8859-1, which accepts any byte sequence.
func ReadBundle(path string, logger *log.Logger) (string, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &InputError{Path: path, Err: err}
	}
	return DecodeBundle(path, data, logger)
}

// DecodeBundle applies the ReadBundle checks to bytes already in memory.
func DecodeBundle(path string, data []byte, logger *log.Logger) (string, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", &InputError{Path: path, Err: ErrEmptyInput}
	}
	if looksBinary(data) {
		return "", &InputError{Path: path, Err: ErrBinaryInput}
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if utf8.Valid(data) {
		return string(data), nil
	}

	logger.Warn("input is not valid utf-8, decoding as iso-8859-1", "path", path)
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", &InputError{Path: path, Err: fmt.Errorf("decode iso-8859-1: %w", err)}
	}
	return string(decoded), nil
}

// looksBinary samples the head of data for NUL bytes or a high share of
// control characters.
func looksBinary(data []byte) bool {
	sample := data
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	control := 0
	for _, b := range sample {
		if isControl(b) {
			control++
		}
	}
	return float64(control)/float64(len(sample)) > maxNonPrintable
}

func isControl(b byte) bool {
	switch b {
	case '\t', '\n', '\r', '\f', '\v', '\b':
		return false
	}
	return b < 0x20 || b == 0x7f
}

// IsInputError reports whether err is a problem with the bundle itself.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie) || errors.Is(err, ErrNoSeparators)
}
