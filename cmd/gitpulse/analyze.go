package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/aggregate"
	"github.com/gitpulse/gitpulse/internal/github"
	"github.com/gitpulse/gitpulse/internal/output"
)

var (
	analyzeFormat string
	analyzeOut    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <owner/repo>",
	Short: "Aggregate and score a repository's commit history",
	Long: `Fetch every branch of the repository, merge commit histories with
cross-branch deduplication, classify and score each commit, and print the
resulting activity report.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "table", "output format (table, json)")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "output", "o", "", "write the report to a file instead of stdout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	owner, repo, err := github.ParseFullName(args[0])
	if err != nil {
		return err
	}

	client, err := github.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := aggregate.NewBuilder(client, cfg, logger).Build(ctx, owner, repo)
	if err != nil {
		return fmt.Errorf("aggregating %s/%s: %w", owner, repo, err)
	}
	logger.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Debug("report built")

	out := os.Stdout
	if analyzeOut != "" {
		f, err := os.Create(analyzeOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	return output.Render(out, report, output.Format(analyzeFormat))
}
