package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/s1f/internal/parse"
)

func file(p, content string) parse.ExtractedFile {
	return parse.ExtractedFile{Meta: parse.FileMetadata{Path: p}, Content: content}
}

var files = []parse.ExtractedFile{
	file("src/main.go", "package main\n\nfunc main() {\n\tprintln(\"Hello\")\n}\n"),
	file("src/util.go", "package util\r\n// hello helper\r\n"),
	file("README.md", "# Project\nnothing here\n"),
}

func TestSearch(t *testing.T) {
	got, err := Search(files, Options{Query: "hello"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Result{Path: "src/main.go", Line: 4, Snippet: "\tprintln(\">>>Hello<<<\")"}, got[0])
	assert.Equal(t, Result{Path: "src/util.go", Line: 2, Snippet: "// >>>hello<<< helper"}, got[1])
}

func TestSearchGlobAndLimit(t *testing.T) {
	got, err := Search(files, Options{Query: "package", Glob: "*.go"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = Search(files, Options{Query: "package", Glob: "src/util.go"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "src/util.go", got[0].Path)

	got, err = Search(files, Options{Query: "package", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = Search(files, Options{Query: "x", Glob: "[bad"})
	assert.Error(t, err)
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "...lo >>>wor<<<ld ...", makeSnippet("aaaaa hello world bbbbb", "wor", 3))
	assert.Equal(t, "abcdef...", makeSnippet("abcdefghij", "zzz", 3))
	assert.Equal(t, "short", makeSnippet("short", "zzz", 30))
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []int{0, 1}, Filter(files, "SRC"))
	assert.Equal(t, []int{1}, Filter(files, "src util"))
	assert.Equal(t, []int{0, 1, 2}, Filter(files, ""))
	assert.Empty(t, Filter(files, "nope"))
}
