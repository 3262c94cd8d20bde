// Package scan walks an extracted tree and compares it with a bundle.
package scan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Zuo-Peng/s1f/internal/integrity"
	"github.com/Zuo-Peng/s1f/internal/parse"
	"github.com/Zuo-Peng/s1f/internal/pathsafe"
)

type FileInfo struct {
	Path  string // forward-slash, relative to the root
	Mtime int64
	Size  int64
}

// Walk lists regular files below root. Unreadable directories are skipped.
func Walk(root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:  filepath.ToSlash(rel),
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	return files, err
}

// ProblemKind classifies a difference between bundle and tree.
type ProblemKind string

const (
	Missing  ProblemKind = "missing"
	Differs  ProblemKind = "differs"
	Extra    ProblemKind = "extra"
	Rejected ProblemKind = "unsafe-path"
)

type Problem struct {
	Kind   ProblemKind
	Path   string
	Detail string
}

func (p Problem) String() string {
	if p.Detail == "" {
		return fmt.Sprintf("%-11s %s", p.Kind, p.Path)
	}
	return fmt.Sprintf("%-11s %s (%s)", p.Kind, p.Path, p.Detail)
}

type Report struct {
	Checked  int
	OK       int
	Problems []Problem
}

func (r *Report) Clean() bool { return len(r.Problems) == 0 }

func (r *Report) String() string {
	return fmt.Sprintf("checked=%d ok=%d problems=%d", r.Checked, r.OK, len(r.Problems))
}

// Verify compares every file of the bundle with its copy below root. A file
// is fine when its bytes equal the content encoded as resolver would write
// it, or when they match the recorded checksum. When extra is set, files
// below root that the bundle does not mention are reported too.
func Verify(files []parse.ExtractedFile, root string, resolver *integrity.Resolver, extra bool) (*Report, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	rep := &Report{}
	known := make(map[string]bool, len(files))

	for _, f := range files {
		rep.Checked++
		target, err := pathsafe.Join(root, f.Meta.Path)
		if err != nil {
			rep.Problems = append(rep.Problems, Problem{Kind: Rejected, Path: f.Meta.Path, Detail: err.Error()})
			continue
		}
		if rel, err := filepath.Rel(absRoot, target); err == nil {
			known[filepath.ToSlash(rel)] = true
		}

		disk, err := os.ReadFile(target)
		if err != nil {
			rep.Problems = append(rep.Problems, Problem{Kind: Missing, Path: f.Meta.Path})
			continue
		}

		want, err := resolver.Encode(f.Meta.Path, f.Content, resolver.Resolve(f.Meta.Path, f.Meta.Encoding))
		if err == nil && bytes.Equal(disk, want) {
			rep.OK++
			continue
		}
		if st, _ := integrity.VerifyChecksum(disk, f.Meta.ChecksumSHA256); st == integrity.ChecksumMatch || st == integrity.ChecksumMatchNormalized {
			rep.OK++
			continue
		}
		rep.Problems = append(rep.Problems, Problem{
			Kind:   Differs,
			Path:   f.Meta.Path,
			Detail: fmt.Sprintf("%d bytes on disk, %d expected", len(disk), len(want)),
		})
	}

	if extra {
		onDisk, err := Walk(root)
		if err != nil {
			return nil, err
		}
		sort.Slice(onDisk, func(i, j int) bool { return onDisk[i].Path < onDisk[j].Path })
		for _, fi := range onDisk {
			if !known[fi.Path] {
				rep.Problems = append(rep.Problems, Problem{Kind: Extra, Path: fi.Path})
			}
		}
	}
	return rep, nil
}
