package aggregate

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gitpulse/gitpulse/internal/classify"
	"github.com/gitpulse/gitpulse/internal/config"
	"github.com/gitpulse/gitpulse/internal/scoring"
	"github.com/gitpulse/gitpulse/internal/temporal"
	"github.com/gitpulse/gitpulse/internal/types"
)

// Fetcher is the slice of the forge client the builder needs. The concrete
// implementation lives in internal/github; tests substitute a fake.
type Fetcher interface {
	FetchRepository(ctx context.Context, owner, repo string) (*types.Repository, error)
	FetchBranches(ctx context.Context, owner, repo string) ([]types.Branch, error)
	ListCommitSHAs(ctx context.Context, owner, repo, branch string) ([]string, error)
	FetchCommitDetails(ctx context.Context, owner, repo string, shas []string) map[string]*types.Commit
	CountBranchFiles(ctx context.Context, owner, repo, branch string) (int, error)
	FetchMergedPulls(ctx context.Context, owner, repo, base string, updatedSince time.Time) ([]types.PullRequest, error)
	RateLimit() *types.RateLimitInfo
}

// Builder runs one aggregation pass: fetch, merge, annotate, window, report.
type Builder struct {
	fetcher Fetcher
	logger  *logrus.Logger
	fetch   config.FetchConfig
	report  config.ReportConfig

	now func() time.Time
}

// NewBuilder creates a report builder backed by the given fetcher.
func NewBuilder(fetcher Fetcher, cfg *config.Config, logger *logrus.Logger) *Builder {
	return &Builder{
		fetcher: fetcher,
		logger:  logger,
		fetch:   cfg.Fetch,
		report:  cfg.Report,
		now:     time.Now,
	}
}

// Build aggregates the repository's history across all branches into a single
// report. Repository resolution failure is fatal; a branch whose listing
// fails is carried in the report with FetchError set so the result stays
// well formed. Detail-fetch failures for individual commits drop those
// commits only.
func (b *Builder) Build(ctx context.Context, owner, repo string) (*types.Report, error) {
	meta, err := b.fetcher.FetchRepository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	branches, err := b.fetcher.FetchBranches(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	b.logger.WithFields(logrus.Fields{
		"repo":     meta.FullName,
		"branches": len(branches),
	}).Info("starting aggregation pass")

	set := NewMergedSet()
	reports := make([]types.BranchReport, 0, len(branches))

	for _, branch := range branches {
		reports = append(reports, b.mergeBranch(ctx, owner, repo, meta, branch, set))
	}

	commits := set.Commits()
	for _, c := range commits {
		s := scoring.Score(c)
		c.Scores = &s
	}

	now := b.now().UTC()
	report := &types.Report{
		Repository:  *meta,
		GeneratedAt: now,
		Branches:    reports,
		Commits:     commits,
		Developers:  BuildDevelopers(commits),
		Windows:     temporal.Aggregate(commits, temporal.DefaultWindows(now)),
		Recent:      recentCommits(commits, b.report.RecentCommits),
		RateLimit:   b.fetcher.RateLimit(),
	}

	b.logger.WithFields(logrus.Fields{
		"repo":       meta.FullName,
		"commits":    len(commits),
		"developers": len(report.Developers),
	}).Info("aggregation pass complete")
	return report, nil
}

// mergeBranch lists one branch, fetches detail for identifiers not yet in the
// merged set, and folds the results in listing order. Commits already known
// from an earlier branch only gain membership; their annotations are never
// recomputed.
func (b *Builder) mergeBranch(ctx context.Context, owner, repo string, meta *types.Repository, branch types.Branch, set *MergedSet) types.BranchReport {
	br := types.BranchReport{
		Name:      branch.Name,
		Protected: branch.Protected,
		IsDefault: branch.Name == meta.DefaultBranch,
	}

	shas, err := b.fetcher.ListCommitSHAs(ctx, owner, repo, branch.Name)
	if err != nil {
		b.logger.WithError(err).WithField("branch", branch.Name).Warn("branch listing failed, skipping")
		br.FetchError = err.Error()
		return br
	}

	totalFiles := 0
	if n, err := b.fetcher.CountBranchFiles(ctx, owner, repo, branch.Name); err != nil {
		b.logger.WithError(err).WithField("branch", branch.Name).Debug("branch file count unavailable")
	} else {
		totalFiles = n
	}

	var unknown []string
	for _, sha := range shas {
		if !set.Known(sha) {
			unknown = append(unknown, sha)
		}
	}
	details := b.fetcher.FetchCommitDetails(ctx, owner, repo, unknown)

	for _, sha := range shas {
		if set.Observe(branch.Name, sha) {
			br.TotalCommits++
			continue
		}
		c, ok := details[sha]
		if !ok {
			continue
		}
		cls := classify.Classify(c.Message, len(c.Files), totalFiles)
		c.Classification = &cls
		set.Insert(branch.Name, c)
		br.TotalCommits++
	}

	if pulls, err := b.fetcher.FetchMergedPulls(ctx, owner, repo, branch.Name, b.now().UTC().Add(-b.fetch.PullWindow)); err != nil {
		b.logger.WithError(err).WithField("branch", branch.Name).Debug("merged pull scan failed")
	} else {
		br.MergedPulls = pulls
	}
	return br
}

// recentCommits returns up to n commits ordered newest first.
func recentCommits(commits []*types.Commit, n int) []*types.Commit {
	sorted := make([]*types.Commit, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
