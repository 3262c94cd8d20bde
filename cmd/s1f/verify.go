package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/s1f/internal/extract"
	"github.com/Zuo-Peng/s1f/internal/integrity"
	"github.com/Zuo-Peng/s1f/internal/scan"
)

var errVerifyFailed = errors.New("tree does not match bundle")

func verifyCmd(a *app) *cobra.Command {
	var extra, respect bool
	var target string

	cmd := &cobra.Command{
		Use:   "verify <bundle> <dir>",
		Short: "Check that an extracted tree matches its bundle",
		Long:  `Compares every file of the bundle with its copy below dir. Exits 1 when a file is missing or differs, or with --extra when dir holds files the bundle does not mention.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, files, err := loadBundle(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("respect-encoding") && !cmd.Flags().Changed("target-encoding") {
				respect, target = a.cfg.RespectEncoding, a.cfg.TargetEncoding
			}
			resolver, err := integrity.NewResolver(target, respect, a.logger)
			if err != nil {
				return fmt.Errorf("%w: %v", extract.ErrInvalidOptions, err)
			}
			rep, err := scan.Verify(files, args[1], resolver, extra)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range rep.Problems {
				fmt.Fprintln(out, p)
			}
			fmt.Fprintln(out, rep)
			if !rep.Clean() {
				return fmt.Errorf("%w: %d problems", errVerifyFailed, len(rep.Problems))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&extra, "extra", false, "Also report files below dir that are not in the bundle")
	cmd.Flags().BoolVar(&respect, "respect-encoding", false, "Expect files in the encoding recorded in the bundle")
	cmd.Flags().StringVar(&target, "target-encoding", "", "Expect all files in this encoding")
	cmd.MarkFlagsMutuallyExclusive("respect-encoding", "target-encoding")
	return cmd
}
