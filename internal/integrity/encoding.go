package integrity

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ConversionErrorSuffix is appended by the bundler to encodings that could
// not be decoded cleanly.
const ConversionErrorSuffix = "(with conversion errors)"

const utf8Name = "utf-8"

// Python-style names the bundler may record that the IANA and WHATWG indexes
// do not know under that spelling.
var encodingAliases = map[string]string{
	"utf8":      utf8Name,
	"latin-1":   "iso-8859-1",
	"latin1":    "iso-8859-1",
	"l1":        "iso-8859-1",
	"utf-16-le": "utf-16le",
	"utf-16-be": "utf-16be",
	"utf-32-le": "utf-32le",
	"utf-32-be": "utf-32be",
	"cp1250":    "windows-1250",
	"cp1251":    "windows-1251",
	"cp1252":    "windows-1252",
	"cp1253":    "windows-1253",
	"cp1254":    "windows-1254",
	"cp437":     "ibm437",
	"cp850":     "ibm850",
	"ascii":     "us-ascii",
	"sjis":      "shift_jis",
	"shift-jis": "shift_jis",
}

// Choice is a resolved write encoding.
type Choice struct {
	Name string
	Enc  encoding.Encoding
}

// IsUTF8 reports whether content can be written without transcoding.
func (c Choice) IsUTF8() bool {
	return c.Name == utf8Name
}

// UTF8 is the fallback encoding.
var UTF8 = Choice{Name: utf8Name, Enc: unicode.UTF8}

// StripErrorSuffix removes the conversion-error marker from an encoding name
// and reports whether it was present.
func StripErrorSuffix(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, ConversionErrorSuffix) {
		return strings.TrimSpace(strings.TrimSuffix(name, ConversionErrorSuffix)), true
	}
	return name, false
}

func canonicalName(name string) string {
	n, _ := StripErrorSuffix(name)
	n = strings.ToLower(n)
	n = strings.ReplaceAll(n, "_", "-")
	if alias, ok := encodingAliases[n]; ok {
		return alias
	}
	return n
}

// Lookup resolves an encoding name to a transcoder.
func Lookup(name string) (Choice, error) {
	n := canonicalName(name)
	switch n {
	case "":
		return Choice{}, fmt.Errorf("empty encoding name")
	case utf8Name:
		return UTF8, nil
	case "utf-8-sig":
		return Choice{Name: n, Enc: unicode.UTF8BOM}, nil
	}
	if enc, err := ianaindex.IANA.Encoding(n); err == nil && enc != nil {
		return Choice{Name: n, Enc: enc}, nil
	}
	if enc, err := htmlindex.Get(n); err == nil && enc != nil {
		return Choice{Name: n, Enc: enc}, nil
	}
	return Choice{}, fmt.Errorf("unknown encoding %q", name)
}

// Resolver picks the write encoding for each file.
type Resolver struct {
	target          *Choice
	respectEncoding bool
	logger          *log.Logger
}

// NewResolver validates target (may be empty) up front so that a bad
// override is a configuration error rather than a per-file failure.
func NewResolver(target string, respectEncoding bool, logger *log.Logger) (*Resolver, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Resolver{respectEncoding: respectEncoding, logger: logger}
	if strings.TrimSpace(target) != "" {
		c, err := Lookup(target)
		if err != nil {
			return nil, fmt.Errorf("target encoding: %w", err)
		}
		r.target = &c
	}
	return r, nil
}

// Resolve applies override > original (when respected and resolvable) > UTF-8.
func (r *Resolver) Resolve(path, original string) Choice {
	if r.target != nil {
		return *r.target
	}
	if r.respectEncoding && strings.TrimSpace(original) != "" {
		c, err := Lookup(original)
		if err == nil {
			return c
		}
		r.logger.Warn("unresolvable original encoding, writing utf-8", "path", path, "encoding", original)
	}
	return UTF8
}

// Encode converts content to bytes in c. Strict encoding is tried first; on
// failure unsupported characters are replaced and a warning is logged.
func (r *Resolver) Encode(path, content string, c Choice) ([]byte, error) {
	if c.Enc == nil || c.IsUTF8() {
		return []byte(content), nil
	}
	b, err := c.Enc.NewEncoder().Bytes([]byte(content))
	if err == nil {
		return b, nil
	}
	r.logger.Warn("content not representable, replacing characters", "path", path, "encoding", c.Name, "err", err)
	b, err = encoding.ReplaceUnsupported(c.Enc.NewEncoder()).Bytes([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("encode %s as %s: %w", path, c.Name, err)
	}
	return b, nil
}
