package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/s1f/internal/config"
	"github.com/Zuo-Peng/s1f/internal/integrity"
	"github.com/Zuo-Peng/s1f/internal/journal"
)

// doctorEncodings are the names bundles most often record.
var doctorEncodings = []string{"utf-8", "utf-16-le", "latin-1", "cp1252", "shift_jis", "gb2312"}

func doctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: show config, journal and encoding support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := a.cfg

			fmt.Fprintln(out, "=== Config ===")
			if cfg.Path != "" {
				fmt.Fprintf(out, "  File: %s (OK)\n", cfg.Path)
			} else if p, err := config.DefaultPath(); err == nil {
				fmt.Fprintf(out, "  File: %s (not present, using defaults)\n", p)
			}
			fmt.Fprintf(out, "  Workers:        %d\n", cfg.Workers)
			fmt.Fprintf(out, "  Timestamp mode: %s\n", cfg.TimestampMode)
			switch {
			case cfg.TargetEncoding != "":
				fmt.Fprintf(out, "  Encoding:       %s (forced)\n", cfg.TargetEncoding)
			case cfg.RespectEncoding:
				fmt.Fprintln(out, "  Encoding:       as recorded in the bundle")
			default:
				fmt.Fprintln(out, "  Encoding:       utf-8")
			}
			fmt.Fprintf(out, "  Checksums:      %s\n", checksumPolicy(cfg))

			fmt.Fprintln(out, "\n=== Journal ===")
			checkJournal(out, cfg)

			fmt.Fprintln(out, "\n=== Encodings ===")
			for _, name := range doctorEncodings {
				if c, err := integrity.Lookup(name); err != nil {
					fmt.Fprintf(out, "  %-10s NOT SUPPORTED\n", name)
				} else {
					fmt.Fprintf(out, "  %-10s OK (%s)\n", name, c.Name)
				}
			}

			fmt.Fprintln(out, "\n=== Terminal ===")
			fmt.Fprintf(out, "  stdout is a terminal: %t\n", isTerminal(out))
			if clipboard.Unsupported {
				fmt.Fprintln(out, "  Clipboard: NOT AVAILABLE (browse prints paths instead)")
			} else {
				fmt.Fprintln(out, "  Clipboard: OK")
			}
			return nil
		},
	}
}

func checksumPolicy(cfg *config.Config) string {
	switch {
	case cfg.IgnoreChecksum:
		return "ignored"
	case cfg.StrictChecksum:
		return "strict"
	default:
		return "warn on mismatch"
	}
}

func checkJournal(out io.Writer, cfg *config.Config) {
	if !cfg.Journal {
		fmt.Fprintln(out, "  Status: disabled")
		return
	}
	fmt.Fprintf(out, "  Path: %s\n", cfg.JournalPath)
	info, err := os.Stat(cfg.JournalPath)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "  Status: NOT FOUND (created on the first extraction)")
		return
	}
	db, err := journal.Open(cfg.JournalPath)
	if err != nil {
		fmt.Fprintf(out, "  Status: ERROR (%v)\n", err)
		return
	}
	defer db.Close()

	runs, err := db.RunCount()
	if err != nil {
		fmt.Fprintf(out, "  count runs: %v\n", err)
		return
	}
	files, err := db.FileCount()
	if err != nil {
		fmt.Fprintf(out, "  count files: %v\n", err)
		return
	}
	schema, _ := db.SchemaVersion()
	fmt.Fprintf(out, "  Runs:   %d\n", runs)
	fmt.Fprintf(out, "  Files:  %d\n", files)
	fmt.Fprintf(out, "  Schema: v%s\n", schema)
	fmt.Fprintf(out, "  Size:   %s\n", humanize.IBytes(uint64(info.Size())))
}
