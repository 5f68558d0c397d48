package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"dbperf/bench"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render saved benchmark reports",
	}

	var input, output string
	markdown := &cobra.Command{
		Use:   "markdown",
		Short: "Convert a bench.json report to a Markdown table",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := bench.ReadJSONFile(input)
			if err != nil {
				return err
			}
			if err := bench.WriteFile(output, func(w io.Writer) error { return bench.Markdown(w, results) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote markdown table to %s\n", output)
			return nil
		},
	}
	markdown.Flags().StringVar(&input, "input", "", "bench.json path")
	markdown.Flags().StringVar(&output, "output", "", "output markdown path")
	_ = markdown.MarkFlagRequired("input")
	_ = markdown.MarkFlagRequired("output")

	var resultsDir, db, outDir string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Summarize <results>/<db>/<scale>/bench.json across scales",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := bench.CollectScales(resultsDir, db, func(path string, err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[WARN] read %s: %v\n", path, err)
			})
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, "summary.md")
			if err := bench.WriteFile(path, func(w io.Writer) error { return bench.SummaryMarkdown(w, data) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote summary markdown to %s\n", path)
			return nil
		},
	}
	summary.Flags().StringVar(&resultsDir, "results", "results", "results root directory")
	summary.Flags().StringVar(&db, "db", "mysql", "database kind subdirectory")
	summary.Flags().StringVar(&outDir, "output", "", "output directory")
	_ = summary.MarkFlagRequired("output")

	cmd.AddCommand(markdown, summary)
	return cmd
}
