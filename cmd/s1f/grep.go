package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/s1f/internal/search"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func plainSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", "")
	return strings.ReplaceAll(snippet, "<<<", "")
}

func grepCmd(a *app) *cobra.Command {
	var glob string
	var limit, context int

	cmd := &cobra.Command{
		Use:   "grep <bundle> <query>",
		Short: "Search the contents of a bundle",
		Long: `Case-insensitive search over every file of the bundle. Output is TSV:
  path, line, snippet

Combine with fzf and open:
  s1f grep bundle.txt TODO | fzf --ansi --delimiter='\t' \
    --bind 'enter:execute(s1f open bundle.txt {1})'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, files, err := loadBundle(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			results, err := search.Search(files, search.Options{
				Query:   args[1],
				Glob:    glob,
				Limit:   limit,
				Context: context,
			})
			if err != nil {
				return usageError{fmt.Errorf("--glob: %w", err)}
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No matches.")
				return nil
			}

			out := cmd.OutOrStdout()
			color := isTerminal(out)
			for _, r := range results {
				snippet := strings.ReplaceAll(r.Snippet, "\t", " ")
				path := r.Path
				if color {
					snippet = colorizeSnippet(snippet)
					fmt.Fprintf(out, "%s\t%s%d%s\t%s\n", sColorBlue+path+sColorReset, sColorDim, r.Line, sColorReset, snippet)
					continue
				}
				// path stays the first field for {1} in fzf bindings
				fmt.Fprintf(out, "%s\t%d\t%s\n", path, r.Line, plainSnippet(snippet))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&glob, "glob", "", "Only search files whose path or name matches this pattern")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results (0 = no limit)")
	cmd.Flags().IntVar(&context, "context", 30, "Characters of context around each hit")
	return cmd
}
