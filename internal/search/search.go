// Package search finds text inside the files of a parsed bundle.
package search

import (
	"path"
	"strings"

	"github.com/Zuo-Peng/s1f/internal/parse"
)

type Result struct {
	Path    string
	Line    int // 1-based line within the file
	Snippet string
}

type Options struct {
	Query   string
	Glob    string // "" = all files, matched against the forward-slash path
	Limit   int    // 0 = no limit
	Context int    // snippet characters around the hit, default 30
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 || len(lower) != len(text) {
		// no match, or case folding changed byte offsets
		return plainSnippet(text, query, contextChars)
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func plainSnippet(text, _ string, contextChars int) string {
	if len([]rune(text)) > contextChars*2 {
		return string([]rune(text)[:contextChars*2]) + "..."
	}
	return text
}

// Matches reports whether f contains query, ignoring case.
func Matches(f parse.ExtractedFile, query string) bool {
	return query == "" || strings.Contains(strings.ToLower(f.Content), strings.ToLower(query))
}

// Search returns every matching line, in bundle order.
func Search(files []parse.ExtractedFile, opts Options) ([]Result, error) {
	if opts.Context <= 0 {
		opts.Context = 30
	}
	if opts.Glob != "" {
		if _, err := path.Match(opts.Glob, ""); err != nil {
			return nil, err
		}
	}
	qLower := strings.ToLower(opts.Query)

	var results []Result
	for _, f := range files {
		if opts.Glob != "" {
			if ok, _ := path.Match(opts.Glob, f.Meta.Path); !ok {
				if ok, _ := path.Match(opts.Glob, path.Base(f.Meta.Path)); !ok {
					continue
				}
			}
		}
		if !Matches(f, opts.Query) {
			continue
		}
		for i, line := range strings.Split(f.Content, "\n") {
			line = strings.TrimSuffix(line, "\r")
			if !strings.Contains(strings.ToLower(line), qLower) {
				continue
			}
			results = append(results, Result{
				Path:    f.Meta.Path,
				Line:    i + 1,
				Snippet: makeSnippet(line, opts.Query, opts.Context),
			})
			if opts.Limit > 0 && len(results) >= opts.Limit {
				return results, nil
			}
		}
	}
	return results, nil
}

// Filter keeps files whose path contains every whitespace-separated term,
// ignoring case.
func Filter(files []parse.ExtractedFile, terms string) []int {
	fields := strings.Fields(strings.ToLower(terms))
	var out []int
	for i, f := range files {
		p := strings.ToLower(f.Meta.Path)
		ok := true
		for _, t := range fields {
			if !strings.Contains(p, t) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}
