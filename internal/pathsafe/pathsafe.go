// Package pathsafe decides whether a path taken from a bundle header may be
// written below the destination directory.
package pathsafe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmpty     = errors.New("empty path")
	ErrAbsolute  = errors.New("absolute path")
	ErrTraversal = errors.New("path traversal")
	ErrOutside   = errors.New("path escapes destination")
	ErrInvalid   = errors.New("invalid path")
)

// PathError describes why a candidate path was rejected.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("unsafe path %q: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Validate checks that candidate is relative, has no ".." segment and stays
// inside root once joined, also after following symlinks that already exist
// below root. Backslashes count as separators.
func Validate(candidate, root string) error {
	if _, err := resolve(candidate, root); err != nil {
		return err
	}
	return nil
}

// IsSafe is the boolean form of Validate.
func IsSafe(candidate, root string) bool {
	return Validate(candidate, root) == nil
}

// Join validates candidate and returns its native path below root.
func Join(root, candidate string) (string, error) {
	return resolve(candidate, root)
}

func resolve(candidate, root string) (string, error) {
	reject := func(err error) (string, error) {
		return "", &PathError{Path: candidate, Err: err}
	}

	if strings.TrimSpace(candidate) == "" {
		return reject(ErrEmpty)
	}
	if strings.ContainsRune(candidate, 0) {
		return reject(ErrInvalid)
	}

	p := strings.ReplaceAll(candidate, `\`, "/")
	switch {
	case strings.HasPrefix(p, "/"):
		// covers "/etc", "\x" and UNC forms "//host" and "\\host"
		return reject(ErrAbsolute)
	case hasDriveLetter(p):
		return reject(ErrAbsolute)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return reject(ErrTraversal)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve destination %s: %w", root, err)
	}
	target := filepath.Join(absRoot, filepath.FromSlash(p))
	if !below(absRoot, target) {
		return reject(ErrOutside)
	}

	realRoot, err := evalExisting(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve destination %s: %w", root, err)
	}
	realTarget, err := evalExisting(target)
	if err != nil {
		return reject(fmt.Errorf("%w: %v", ErrOutside, err))
	}
	if !below(realRoot, realTarget) {
		return reject(ErrOutside)
	}
	return target, nil
}

// below reports whether p is strictly inside root.
func below(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// evalExisting follows symlinks in the deepest existing ancestor of p and
// appends the missing rest unchanged. A dangling link is an error.
func evalExisting(p string) (string, error) {
	cur, rest := p, ""
	for {
		_, err := os.Lstat(cur)
		if err == nil {
			resolved, err := filepath.EvalSymlinks(cur)
			if err != nil {
				return "", err
			}
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
