package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/s1f/internal/render"
)

func listCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list <bundle>",
		Short: "Show the files a bundle contains",
		Long:  `Prints path, size, separator format, encoding and checksum of every file in the bundle. Nothing is written.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return usageError{err}
			}
			_, files, err := loadBundle(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return render.FileList(out, files, f, isTerminal(out), terminalWidth(out))
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json or yaml")
	return cmd
}
