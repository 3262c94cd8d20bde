// Package extract reconstructs the files of a bundle below a destination
// directory.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/s1f/internal/integrity"
	"github.com/Zuo-Peng/s1f/internal/parse"
	"github.com/Zuo-Peng/s1f/internal/pathsafe"
)

// DefaultWorkers is the write concurrency when Options.Workers is unset.
const DefaultWorkers = 10

// TimestampMode selects the modification time of written files.
type TimestampMode string

const (
	TimestampOriginal TimestampMode = "original"
	TimestampCurrent  TimestampMode = "current"
)

// ParseTimestampMode accepts "original", "current" or "" (original).
func ParseTimestampMode(s string) (TimestampMode, error) {
	switch TimestampMode(s) {
	case "", TimestampOriginal:
		return TimestampOriginal, nil
	case TimestampCurrent:
		return TimestampCurrent, nil
	}
	return "", fmt.Errorf("%w: timestamp mode %q (want original or current)", ErrInvalidOptions, s)
}

type Options struct {
	Input string
	Dest  string

	ListOnly       bool
	Force          bool
	TimestampMode  TimestampMode
	IgnoreChecksum bool
	StrictChecksum bool // checksum mismatch counts the file as failed

	RespectEncoding bool
	TargetEncoding  string

	Workers int

	// Confirm is asked before overwriting an existing file when Force is
	// off. Setting it limits the run to one worker.
	Confirm func(path string) bool

	Logger *log.Logger

	// OnParsed and OnFileDone are called from the collecting goroutine.
	OnParsed   func(files []parse.ExtractedFile)
	OnFileDone func(FileOutcome)
}

func (o *Options) validate() error {
	if o.Input == "" {
		return fmt.Errorf("%w: no input file", ErrInvalidOptions)
	}
	if o.Dest == "" {
		o.Dest = "."
	}
	mode, err := ParseTimestampMode(string(o.TimestampMode))
	if err != nil {
		return err
	}
	o.TimestampMode = mode
	if o.RespectEncoding && o.TargetEncoding != "" {
		return fmt.Errorf("%w: respect-encoding and target-encoding are mutually exclusive", ErrInvalidOptions)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidOptions)
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Confirm != nil {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// Run parses opts.Input and writes every file below opts.Dest. Per-file
// problems are counted in the result and never abort the run. The returned
// error is non-nil only when the bundle could not be used at all, or on
// cancellation, in which case the partial result is still returned.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	resolver, err := integrity.NewResolver(opts.TargetEncoding, opts.RespectEncoding, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	text, err := ReadBundle(opts.Input, logger)
	if err != nil {
		return nil, err
	}
	files := parse.NewParser(logger).Parse(text)
	res := &Result{Parsed: files}
	if len(files) == 0 {
		res.ExecutionTime = time.Since(start)
		return res, &InputError{Path: opts.Input, Err: ErrNoSeparators}
	}
	logger.Debug("parsed bundle", "path", opts.Input, "files", len(files))
	if opts.OnParsed != nil {
		opts.OnParsed(files)
	}
	if opts.ListOnly {
		res.ExecutionTime = time.Since(start)
		return res, nil
	}

	if err := os.MkdirAll(opts.Dest, 0o755); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", opts.Dest, err)
	}

	w := &writer{opts: opts, resolver: resolver, logger: logger}
	res.Files = make([]FileOutcome, len(files))
	done := make(chan int, len(files))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	go func() {
		// blocks with the same path are written in order by one worker
		for _, group := range groupByPath(files) {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				for _, i := range group {
					if ctx.Err() != nil {
						res.Files[i] = FileOutcome{Path: files[i].Meta.Path, Status: StatusCancelled}
					} else {
						res.Files[i] = w.write(files[i])
					}
					done <- i
				}
				return nil
			})
		}
		_ = g.Wait()
		close(done)
	}()

	// single collector: worker slots are only read after their index arrives
	seen := make([]bool, len(files))
	for i := range done {
		seen[i] = true
		res.add(res.Files[i])
		if opts.OnFileDone != nil {
			opts.OnFileDone(res.Files[i])
		}
	}
	for i, ok := range seen {
		if !ok {
			res.Files[i] = FileOutcome{Path: files[i].Meta.Path, Status: StatusCancelled}
		}
	}
	res.ExecutionTime = time.Since(start)

	if ctx.Err() != nil {
		res.Cancelled = true
		logger.Warn("extraction interrupted", "written", res.ExtractedCount())
		return res, ErrCancelled
	}
	return res, nil
}

// groupByPath returns file indexes grouped by target path, in order of first
// appearance.
func groupByPath(files []parse.ExtractedFile) [][]int {
	slot := make(map[string]int, len(files))
	var groups [][]int
	for i, f := range files {
		key := filepath.Clean(filepath.FromSlash(f.Meta.Path))
		if j, ok := slot[key]; ok {
			groups[j] = append(groups[j], i)
			continue
		}
		slot[key] = len(groups)
		groups = append(groups, []int{i})
	}
	return groups
}

type writer struct {
	opts     Options
	resolver *integrity.Resolver
	logger   *log.Logger
}

func (w *writer) write(f parse.ExtractedFile) FileOutcome {
	out := FileOutcome{Path: f.Meta.Path}
	fail := func(err error) FileOutcome {
		out.Status = StatusFailed
		out.Err = err
		w.logger.Error("failed to extract file", "path", f.Meta.Path, "err", err)
		return out
	}

	target, err := pathsafe.Join(w.opts.Dest, f.Meta.Path)
	if err != nil {
		return fail(err)
	}
	out.Target = target

	status := StatusCreated
	info, err := os.Lstat(target)
	switch {
	case err == nil && info.Mode()&fs.ModeSymlink != 0:
		return fail(fmt.Errorf("%s is a symlink", target))
	case err == nil && info.IsDir():
		return fail(fmt.Errorf("%s is a directory", target))
	case err == nil:
		if !w.opts.Force && (w.opts.Confirm == nil || !w.opts.Confirm(f.Meta.Path)) {
			w.logger.Info("file exists, skipping", "path", f.Meta.Path)
			out.Status = StatusSkipped
			return out
		}
		status = StatusOverwritten
	case !errors.Is(err, fs.ErrNotExist):
		return fail(err)
	}

	choice := w.resolver.Resolve(f.Meta.Path, f.Meta.Encoding)
	out.Encoding = choice.Name
	data, err := w.resolver.Encode(f.Meta.Path, f.Content, choice)
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fail(fmt.Errorf("create directory: %w", err))
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fail(fmt.Errorf("write: %w", err))
	}
	out.Bytes = len(data)

	if w.opts.TimestampMode == TimestampOriginal && f.Meta.Modified != nil {
		if err := os.Chtimes(target, *f.Meta.Modified, *f.Meta.Modified); err != nil {
			w.logger.Warn("could not set modification time", "path", f.Meta.Path, "err", err)
		}
	}

	if !w.opts.IgnoreChecksum && f.Meta.ChecksumSHA256 != "" {
		st, actual := integrity.VerifyChecksum(data, f.Meta.ChecksumSHA256)
		out.Checksum = st
		switch st {
		case integrity.ChecksumMatchNormalized:
			w.logger.Debug("checksum matches after line ending normalization", "path", f.Meta.Path)
		case integrity.ChecksumMismatch:
			w.logger.Warn("checksum mismatch", "path", f.Meta.Path, "expected", f.Meta.ChecksumSHA256, "actual", actual)
			if w.opts.StrictChecksum {
				return fail(fmt.Errorf("checksum mismatch: expected %s, got %s", f.Meta.ChecksumSHA256, actual))
			}
		}
	}

	out.Status = status
	w.logger.Debug("wrote file", "path", f.Meta.Path, "bytes", len(data), "status", status)
	return out
}
