package extract

import (
	"fmt"
	"time"

	"github.com/Zuo-Peng/s1f/internal/integrity"
	"github.com/Zuo-Peng/s1f/internal/parse"
)

// Status is what happened to one file.
type Status string

const (
	StatusCreated     Status = "created"
	StatusOverwritten Status = "overwritten"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// FileOutcome records the write of one parsed file.
type FileOutcome struct {
	Path     string
	Target   string // native path written, empty when rejected
	Status   Status
	Bytes    int
	Encoding string
	Checksum integrity.ChecksumStatus
	Err      error
}

// Result summarizes a run.
type Result struct {
	FilesCreated     int
	FilesOverwritten int
	FilesFailed      int
	FilesSkipped     int // existing files left alone; not part of TotalFiles
	Cancelled        bool
	ExecutionTime    time.Duration

	Files  []FileOutcome         // in bundle order
	Parsed []parse.ExtractedFile // everything the parser returned
}

func (r *Result) TotalFiles() int {
	return r.FilesCreated + r.FilesOverwritten + r.FilesFailed
}

func (r *Result) ExtractedCount() int {
	return r.FilesCreated + r.FilesOverwritten
}

// SuccessRate is the extracted share of TotalFiles as a percentage.
func (r *Result) SuccessRate() float64 {
	total := r.TotalFiles()
	if total == 0 {
		return 0
	}
	return float64(r.ExtractedCount()) * 100 / float64(total)
}

// Success means files were processed, none failed and the run was not
// cancelled. A run that skipped every file because it already existed is a
// success.
func (r *Result) Success() bool {
	return len(r.Files) > 0 && r.FilesFailed == 0 && !r.Cancelled
}

func (r *Result) String() string {
	s := fmt.Sprintf("created=%d overwritten=%d failed=%d skipped=%d success_rate=%.1f%% time=%s",
		r.FilesCreated, r.FilesOverwritten, r.FilesFailed, r.FilesSkipped,
		r.SuccessRate(), r.ExecutionTime.Round(time.Millisecond))
	if r.Cancelled {
		s += " (cancelled)"
	}
	return s
}

func (r *Result) add(o FileOutcome) {
	switch o.Status {
	case StatusCreated:
		r.FilesCreated++
	case StatusOverwritten:
		r.FilesOverwritten++
	case StatusSkipped:
		r.FilesSkipped++
	case StatusFailed:
		r.FilesFailed++
	}
}
