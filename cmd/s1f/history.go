package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/s1f/internal/journal"
	"github.com/Zuo-Peng/s1f/internal/render"
)

func historyCmd(a *app) *cobra.Command {
	var limit int
	var runID int64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent extraction runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := os.Stat(a.cfg.JournalPath); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "(no runs recorded)")
				return nil
			}
			db, err := journal.Open(a.cfg.JournalPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if runID > 0 {
				rows, err := db.Files(runID)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					return fmt.Errorf("run #%d not found", runID)
				}
				for _, r := range rows {
					line := fmt.Sprintf("%-11s %8s  %s", r.Status, humanize.IBytes(uint64(r.Bytes)), r.Path)
					if r.Checksum != "" {
						line += "  checksum=" + r.Checksum
					}
					if r.Error != "" {
						line += "  " + r.Error
					}
					fmt.Fprintln(out, line)
				}
				return nil
			}

			runs, err := db.Recent(limit)
			if err != nil {
				return err
			}
			render.Runs(out, runs, isTerminal(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	cmd.Flags().Int64Var(&runID, "files", 0, "Show the per-file outcomes of this run")
	return cmd
}
