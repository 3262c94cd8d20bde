package extract

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput       = errors.New("input file is empty")
	ErrBinaryInput      = errors.New("input file looks binary")
	ErrNoSeparators     = errors.New("no recognizable file separators found")
	ErrInvalidOptions   = errors.New("invalid options")
	ErrCancelled        = errors.New("extraction cancelled")
	ErrExtractionFailed = errors.New("extraction had failures")
)

// InputError reports a bundle that cannot be read or is not a bundle at all.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
