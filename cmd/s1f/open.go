package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/s1f/internal/open"
)

func openCmd(a *app) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "open <bundle> <path>",
		Short: "Open the bundle in $EDITOR at a file's header",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, files, err := loadBundle(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			line, err := open.HeaderLine(text, files, args[1])
			if err != nil {
				return err
			}
			if printOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d\n", args[0], line)
				return nil
			}
			a.logger.Debug("opening bundle", "path", args[0], "line", line)
			return open.Bundle(args[0], line)
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print bundle:line instead of starting the editor")
	return cmd
}
