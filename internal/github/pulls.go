package github

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/gitpulse/gitpulse/internal/types"
)

// FetchMergedPulls returns merged pull requests targeting base that were
// updated since updatedSince. The closed-PR listing is sorted by update time
// descending, so the scan short-circuits as soon as a whole page falls
// outside the window instead of paging through history.
func (c *Client) FetchMergedPulls(ctx context.Context, owner, repo, base string, updatedSince time.Time) ([]types.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var numbers []int
	for {
		lctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		if err := c.limiter.Wait(lctx); err != nil {
			cancel()
			return nil, err
		}
		prs, resp, err := c.gh.PullRequests.List(lctx, owner, repo, opts)
		cancel()
		c.observeRate(resp)
		if err != nil {
			return nil, c.apiError(err, "list closed pull requests")
		}

		olderFound := false
		for _, pr := range prs {
			if pr.GetUpdatedAt().Time.Before(updatedSince) {
				olderFound = true
				continue
			}
			if pr.MergedAt == nil || pr.GetBase().GetRef() != base {
				continue
			}
			numbers = append(numbers, pr.GetNumber())
		}

		if olderFound || len(prs) == 0 || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if len(numbers) == 0 {
		return nil, nil
	}
	return c.fetchPullDetails(ctx, owner, repo, numbers), nil
}

// fetchPullDetails fans detail lookups out on the worker pool. Individual
// failures are dropped, mirroring the commit-detail batch contract.
func (c *Client) fetchPullDetails(ctx context.Context, owner, repo string, numbers []int) []types.PullRequest {
	var mu sync.Mutex
	out := make([]types.PullRequest, 0, len(numbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for _, num := range numbers {
		num := num
		g.Go(func() error {
			pr, err := c.fetchPullDetail(gctx, owner, repo, num)
			if err != nil {
				c.logger.WithError(err).WithField("number", num).Warn("Dropping pull request detail")
				return nil
			}
			mu.Lock()
			out = append(out, *pr)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Pool completion order is arbitrary; sort for reproducible reports.
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out
}

func (c *Client) fetchPullDetail(ctx context.Context, owner, repo string, number int) (*types.PullRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pr, resp, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	c.observeRate(resp)
	if err != nil {
		return nil, c.apiError(err, fmt.Sprintf("fetch pull request #%d", number))
	}

	out := &types.PullRequest{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		AuthorLogin:  pr.GetUser().GetLogin(),
		BaseRef:      pr.GetBase().GetRef(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
	}
	if pr.MergedAt != nil {
		t := pr.GetMergedAt().Time
		out.MergedAt = &t
	}
	if pr.ClosedAt != nil {
		t := pr.GetClosedAt().Time
		out.ClosedAt = &t
	}
	return out, nil
}
