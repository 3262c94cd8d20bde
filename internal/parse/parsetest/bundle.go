// Package parsetest builds bundles in every separator format for tests.
package parsetest

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/s1f/internal/integrity"
)

// File is one entry of a test bundle.
type File struct {
	Path     string
	Content  string
	Encoding string
	Modified time.Time

	// Checksum embeds the SHA-256 of Content (or Sum when set).
	Checksum bool
	Sum      string

	// CRArtifact makes the UUID writer frame the end marker with "\r\n",
	// reproducing the trailing carriage return artifact.
	CRArtifact bool
}

// DetailedRule matches the banner rule of the Detailed format.
var DetailedRule = strings.Repeat("=", 88)

// BoundaryToken matches the legacy boundary token.
const BoundaryToken = "# PYM1F-BOUNDARY-99C5F740A78D4ABC82E3F9882D5A281E"

func (f File) sum() string {
	if !f.Checksum {
		return ""
	}
	if f.Sum != "" {
		return f.Sum
	}
	return integrity.SHA256Hex([]byte(f.Content))
}

func (f File) date() string {
	if f.Modified.IsZero() {
		return "2025-01-01 00:00:00"
	}
	return f.Modified.Format("2006-01-02 15:04:05")
}

func (f File) ext() string {
	return path.Ext(f.Path)
}

// Standard writes the minimal one-line banner format.
func Standard(files ...File) string {
	var b strings.Builder
	for i, f := range files {
		b.WriteString("======= " + f.Path)
		if s := f.sum(); s != "" {
			b.WriteString(" | CHECKSUM_SHA256: " + s)
		}
		b.WriteString(" ======\n")
		b.WriteString(f.Content)
		if i < len(files)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Detailed writes the full-width banner format.
func Detailed(files ...File) string {
	var b strings.Builder
	for i, f := range files {
		b.WriteString(DetailedRule + "\n")
		b.WriteString("== FILE: " + f.Path + "\n")
		fmt.Fprintf(&b, "== DATE: %s | SIZE: %d B | TYPE: %s\n", f.date(), len(f.Content), f.ext())
		if f.Encoding != "" {
			b.WriteString("== ENCODING: " + f.Encoding + "\n")
		}
		if s := f.sum(); s != "" {
			b.WriteString("== CHECKSUM_SHA256: " + s + "\n")
		}
		b.WriteString(DetailedRule + "\n")
		b.WriteString(f.Content)
		if i < len(files)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown writes the fenced-code format. Content without a final newline
// gets one, as the bundler does.
func Markdown(files ...File) string {
	var b strings.Builder
	for _, f := range files {
		b.WriteString("## " + f.Path + "\n")
		fmt.Fprintf(&b, "**Date Modified:** %s | **Size:** %d B | **Type:** %s", f.date(), len(f.Content), f.ext())
		if f.Encoding != "" {
			b.WriteString(" | **Encoding:** " + f.Encoding)
		}
		if s := f.sum(); s != "" {
			b.WriteString(" | **Checksum (SHA256):** " + s)
		}
		b.WriteString("\n\n```" + strings.TrimPrefix(f.ext(), ".") + "\n")
		b.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}
	return b.String()
}

type jsonMeta struct {
	OriginalFilepath string `json:"original_filepath,omitempty"`
	Timestamp        string `json:"timestamp_utc_iso,omitempty"`
	Type             string `json:"type,omitempty"`
	SizeBytes        int    `json:"size_bytes"`
	Checksum         string `json:"checksum_sha256,omitempty"`
	Encoding         string `json:"encoding,omitempty"`
}

func (f File) jsonMeta(withPath bool) jsonMeta {
	m := jsonMeta{
		Type:      f.ext(),
		SizeBytes: len(f.Content),
		Checksum:  f.sum(),
		Encoding:  f.Encoding,
	}
	if withPath {
		m.OriginalFilepath = f.Path
	}
	if !f.Modified.IsZero() {
		m.Timestamp = f.Modified.UTC().Format("2006-01-02T15:04:05Z")
	}
	return m
}

// Boundary writes the legacy boundary-marker format.
func Boundary(files ...File) string {
	var b strings.Builder
	for _, f := range files {
		raw, _ := json.Marshal(f.jsonMeta(false))
		b.WriteString(BoundaryToken + "\n")
		b.WriteString("# FILE: " + f.Path + "\n")
		b.WriteString(BoundaryToken + "\n")
		b.WriteString("# METADATA: " + string(raw) + "\n")
		b.WriteString(BoundaryToken + "\n")
		b.WriteString(f.Content + "\n")
		b.WriteString(BoundaryToken + "\n# END FILE\n" + BoundaryToken + "\n\n")
	}
	return b.String()
}

// UUID writes the UUID-delimited block format.
func UUID(files ...File) string {
	var b strings.Builder
	for _, f := range files {
		id := uuid.NewString()
		raw, _ := json.MarshalIndent(f.jsonMeta(true), "", "    ")
		eol := "\n"
		if f.CRArtifact {
			eol = "\r\n"
		}
		b.WriteString("--- PYMK1F_BEGIN_FILE_METADATA_BLOCK_" + id + " ---\n")
		b.WriteString("METADATA_JSON:\n")
		b.WriteString(string(raw) + "\n")
		b.WriteString("--- PYMK1F_END_FILE_METADATA_BLOCK_" + id + " ---\n")
		b.WriteString("--- PYMK1F_BEGIN_FILE_CONTENT_BLOCK_" + id + " ---\n")
		b.WriteString(f.Content + eol)
		b.WriteString("--- PYMK1F_END_FILE_CONTENT_BLOCK_" + id + " ---\n\n")
	}
	return b.String()
}
