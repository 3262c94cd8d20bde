package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/s1f/internal/tui"
)

func browseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <bundle> [query]",
		Short: "Browse a bundle in an interactive panel",
		Long:  `Opens a two-pane view: files on the left, a preview of the selected file on the right. Type to filter by path or content; Enter copies the path.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !isTerminal(out) {
				return usageError{errors.New("browse needs a terminal")}
			}
			_, files, err := loadBundle(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			query := ""
			if len(args) > 1 {
				query = args[1]
			}
			return tui.Run(filepath.Base(args[0]), files, query, out)
		},
	}
}
