package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/s1f/internal/config"
	"github.com/Zuo-Peng/s1f/internal/extract"
	"github.com/Zuo-Peng/s1f/internal/journal"
	"github.com/Zuo-Peng/s1f/internal/parse"
	"github.com/Zuo-Peng/s1f/internal/render"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *log.Logger
	stdin  io.Reader
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix:          "s1f",
		Level:           level,
		ReportTimestamp: a.verbose,
		TimeFormat:      time.TimeOnly,
	})
	if a.stdin == nil {
		a.stdin = cmd.InOrStdin()
	}
	return nil
}

type extractFlags struct {
	input          string
	dest           string
	listOnly       bool
	force          bool
	timestampMode  string
	ignoreChecksum bool
	strictChecksum bool
	respect        bool
	target         string
	workers        int
	interactive    bool
	format         string
	noJournal      bool
}

func rootCmd() *cobra.Command {
	a := &app{}
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "s1f [INPUT [DEST]]",
		Short: "s1f - split a combined file back into the files it was built from",
		Long: `Reconstructs files from a bundle written in any of the supported separator
formats (UUID blocks, boundary markers, Markdown, Detailed and Standard banners).

Paths that would leave DEST are rejected, existing files are kept unless
--force is given, and embedded SHA-256 checksums are verified after writing.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.input == "" && len(args) > 0 {
				f.input = args[0]
			}
			if f.dest == "" && len(args) > 1 {
				f.dest = args[1]
			}
			if f.input == "" {
				return usageError{errors.New("no input file given")}
			}
			if f.dest == "" {
				f.dest = "."
			}
			return runExtract(cmd, a, f)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")
	pf.StringVar(&a.configPath, "config", "", "Config file (default $S1F_CONFIG or ~/.config/s1f/config.toml)")

	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "Bundle to split")
	fl.StringVarP(&f.dest, "destination", "d", "", "Directory to write into (default .)")
	fl.BoolVarP(&f.listOnly, "list", "l", false, "List the files in the bundle without writing")
	fl.BoolVarP(&f.force, "force", "f", false, "Overwrite existing files")
	fl.StringVar(&f.timestampMode, "timestamp-mode", "", "Modification time of written files: original (default) or current")
	fl.BoolVar(&f.ignoreChecksum, "ignore-checksum", false, "Do not verify embedded checksums")
	fl.BoolVar(&f.strictChecksum, "strict-checksum", false, "Count checksum mismatches as failures")
	fl.BoolVar(&f.respect, "respect-encoding", false, "Write files in the encoding recorded in the bundle")
	fl.StringVar(&f.target, "target-encoding", "", "Write all files in this encoding")
	fl.IntVar(&f.workers, "workers", 0, "Concurrent writers (default from config, 10)")
	fl.BoolVar(&f.interactive, "interactive", false, "Ask before overwriting existing files")
	fl.StringVar(&f.format, "format", "table", "Listing format: table, json or yaml")
	fl.BoolVar(&f.noJournal, "no-journal", false, "Do not record this run in the journal")
	cmd.MarkFlagsMutuallyExclusive("respect-encoding", "target-encoding")
	cmd.MarkFlagsMutuallyExclusive("force", "interactive")

	cmd.AddCommand(listCmd(a))
	cmd.AddCommand(grepCmd(a))
	cmd.AddCommand(browseCmd(a))
	cmd.AddCommand(openCmd(a))
	cmd.AddCommand(verifyCmd(a))
	cmd.AddCommand(historyCmd(a))
	cmd.AddCommand(doctorCmd(a))
	return cmd
}

// options merges config values with the flags given on the command line.
func (f extractFlags) options(cmd *cobra.Command, cfg *config.Config) extract.Options {
	changed := cmd.Flags().Changed
	opts := extract.Options{
		Input:           f.input,
		Dest:            f.dest,
		ListOnly:        f.listOnly,
		Force:           f.force,
		TimestampMode:   extract.TimestampMode(cfg.TimestampMode),
		IgnoreChecksum:  cfg.IgnoreChecksum || f.ignoreChecksum,
		StrictChecksum:  cfg.StrictChecksum || f.strictChecksum,
		RespectEncoding: cfg.RespectEncoding,
		TargetEncoding:  cfg.TargetEncoding,
		Workers:         cfg.Workers,
	}
	if changed("timestamp-mode") {
		opts.TimestampMode = extract.TimestampMode(f.timestampMode)
	}
	if changed("respect-encoding") {
		opts.RespectEncoding = f.respect
		if f.respect {
			opts.TargetEncoding = ""
		}
	}
	if changed("target-encoding") {
		opts.TargetEncoding = f.target
		opts.RespectEncoding = false
	}
	if changed("workers") {
		opts.Workers = f.workers
	}
	return opts
}

func runExtract(cmd *cobra.Command, a *app, f extractFlags) error {
	format, err := render.ParseFormat(f.format)
	if err != nil {
		return usageError{err}
	}
	opts := f.options(cmd, a.cfg)
	opts.Logger = a.logger
	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	if f.interactive {
		if !isTerminal(a.stdin) {
			return usageError{errors.New("--interactive needs a terminal on stdin")}
		}
		opts.Confirm = confirmer(a.stdin, stderr)
	}

	var bar *progressbar.ProgressBar
	if !opts.ListOnly && !a.verbose && !f.interactive && isTerminal(stderr) {
		opts.OnParsed = func(files []parse.ExtractedFile) {
			bar = progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(stderr),
				progressbar.OptionSetDescription("extracting"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		opts.OnFileDone = func(extract.FileOutcome) {
			_ = bar.Add(1)
		}
	}

	started := time.Now()
	res, err := extract.Run(cmd.Context(), opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if res == nil {
		return err
	}

	if opts.ListOnly && err == nil {
		return render.FileList(out, res.Parsed, format, isTerminal(out), terminalWidth(out))
	}
	if len(res.Files) > 0 {
		recordRun(a, f, opts, started, res)
	}
	fmt.Fprintf(out, "%s\n", res)
	if err != nil {
		return err
	}
	if res.FilesFailed > 0 {
		return fmt.Errorf("%w: %d of %d files failed", extract.ErrExtractionFailed, res.FilesFailed, res.TotalFiles())
	}
	if res.ExtractedCount() == 0 && res.FilesSkipped > 0 {
		a.logger.Info("nothing written, all files already exist (use --force to overwrite)", "skipped", res.FilesSkipped)
	}
	return nil
}

// recordRun writes the run to the journal. Journal problems never fail the run.
func recordRun(a *app, f extractFlags, opts extract.Options, started time.Time, res *extract.Result) {
	if f.noJournal || !a.cfg.Journal {
		return
	}
	db, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		a.logger.Warn("journal unavailable", "path", a.cfg.JournalPath, "err", err)
		return
	}
	defer db.Close()
	if _, err := db.Record(opts.Input, opts.Dest, started, res); err != nil {
		a.logger.Warn("could not record run", "err", err)
	}
}

// confirmer prompts once per existing file. Callers must not prompt
// concurrently; extract limits itself to one worker when Confirm is set.
func confirmer(in io.Reader, prompt io.Writer) func(string) bool {
	r := bufio.NewReader(in)
	var mu sync.Mutex
	return func(path string) bool {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(prompt, "%s exists. Overwrite? [y/N] ", path)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(v any) int {
	f, ok := v.(*os.File)
	if !ok {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// loadBundle reads and parses a bundle for the read-only subcommands.
func loadBundle(ctx context.Context, a *app, path string) (string, []parse.ExtractedFile, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	text, err := extract.ReadBundle(path, a.logger)
	if err != nil {
		return "", nil, err
	}
	files := parse.NewParser(a.logger).Parse(text)
	if len(files) == 0 {
		return "", nil, &extract.InputError{Path: path, Err: extract.ErrNoSeparators}
	}
	return text, files, nil
}
