// Package github is the fetch layer: paginated, retried, rate-limit-aware
// access to the GitHub REST API. It owns the request-scoped commit-detail
// cache so a commit reachable from many branches is fetched exactly once.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gitpulse/gitpulse/internal/config"
	apierrors "github.com/gitpulse/gitpulse/internal/errors"
	"github.com/gitpulse/gitpulse/internal/types"
)

// ErrTreeTruncated signals that the recursive tree listing was too large to
// return completely. Callers treat the file total as unknown, never as zero.
var ErrTreeTruncated = apierrors.New(apierrors.ErrorTypeTruncated, "tree listing truncated")

const perPage = 100

// Client wraps the GitHub API client with rate limiting, transport-level
// retry and the shared detail caches.
type Client struct {
	gh          *github.Client
	limiter     *rate.Limiter
	logger      *logrus.Logger
	cfg         config.FetchConfig
	details     *detailCache
	treeCounts *detailCache

	mu       sync.Mutex
	lastRate *types.RateLimitInfo
}

// NewClient creates a client from configuration. The retry transport sits
// under go-github so every GET gets the same backoff policy.
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	httpClient := &http.Client{Transport: newRetryTransport(nil)}

	gh := github.NewClient(httpClient)
	if cfg.GitHub.Token != "" {
		gh = gh.WithAuthToken(cfg.GitHub.Token)
	}
	if cfg.GitHub.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.GitHub.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		gh.BaseURL = base
	}

	return &Client{
		gh:         gh,
		limiter:    rate.NewLimiter(rate.Limit(cfg.GitHub.RateLimit), 1),
		logger:     logger,
		cfg:        cfg.Fetch,
		details:    newDetailCache(),
		treeCounts: newDetailCache(),
	}, nil
}

// ParseFullName splits an "owner/repo" name, rejecting malformed input.
func ParseFullName(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apierrors.Newf(apierrors.ErrorTypeValidation,
			"invalid repository name %q, expected \"owner/repo\"", fullName)
	}
	return parts[0], parts[1], nil
}

// RateLimit returns the most recently observed rate limit headers. The
// client never self-throttles on these; backoff policy belongs to callers.
func (c *Client) RateLimit() *types.RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRate
}

// FetchRepository gets repository metadata. A failure here is fatal to the
// whole aggregation, so the typed error distinguishes not-found/forbidden
// from transient upstream trouble.
func (c *Client) FetchRepository(ctx context.Context, owner, repo string) (*types.Repository, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	c.observeRate(resp)
	if err != nil {
		return nil, c.apiError(err, "fetch repository")
	}

	return &types.Repository{
		Owner:         owner,
		Name:          repo,
		FullName:      r.GetFullName(),
		URL:           r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
	}, nil
}

// FetchBranches lists all branches, paginated 100 at a time. The listing
// order is preserved so downstream merging stays deterministic.
func (c *Client) FetchBranches(ctx context.Context, owner, repo string) ([]types.Branch, error) {
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var all []types.Branch
	for {
		lctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		if err := c.limiter.Wait(lctx); err != nil {
			cancel()
			return nil, err
		}
		branches, resp, err := c.gh.Repositories.ListBranches(lctx, owner, repo, opts)
		cancel()
		c.observeRate(resp)
		if err != nil {
			return nil, c.apiError(err, "list branches")
		}

		for _, b := range branches {
			all = append(all, types.Branch{
				Name:      b.GetName(),
				Protected: b.GetProtected(),
				HeadSHA:   b.GetCommit().GetSHA(),
			})
		}

		if c.cfg.MaxBranches > 0 && len(all) >= c.cfg.MaxBranches {
			all = all[:c.cfg.MaxBranches]
			break
		}
		if len(branches) == 0 || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListCommitSHAs returns the full newest-first SHA list reachable from a
// branch. Items without a SHA are skipped rather than failing the listing.
func (c *Client) ListCommitSHAs(ctx context.Context, owner, repo, branch string) ([]string, error) {
	opts := &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var shas []string
	for {
		lctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		if err := c.limiter.Wait(lctx); err != nil {
			cancel()
			return nil, err
		}
		commits, resp, err := c.gh.Repositories.ListCommits(lctx, owner, repo, opts)
		cancel()
		c.observeRate(resp)
		if err != nil {
			return nil, c.apiError(err, fmt.Sprintf("list commits for %s", branch))
		}

		for _, commit := range commits {
			if sha := commit.GetSHA(); sha != "" {
				shas = append(shas, sha)
			}
		}

		if len(commits) == 0 || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return shas, nil
}

// CountCommits derives the total commit count of a branch from a one-item
// page by reading the trailing-page pagination hint, avoiding a full walk.
func (c *Client) CountCommits(ctx context.Context, owner, repo, branch string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	opts := &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: 1},
	}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	c.observeRate(resp)
	if err != nil {
		return 0, c.apiError(err, fmt.Sprintf("count commits for %s", branch))
	}

	if resp.LastPage > 0 {
		return resp.LastPage, nil
	}
	return len(commits), nil
}

// FetchCommitDetail returns the full detail for one commit, cached for the
// client's lifetime. Concurrent callers for the same SHA share one request.
func (c *Client) FetchCommitDetail(ctx context.Context, owner, repo, sha string) (*types.Commit, error) {
	v, err := c.details.getOrFetch(ctx, sha, func() (interface{}, error) {
		return c.fetchCommitDetail(ctx, owner, repo, sha)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Commit), nil
}

func (c *Client) fetchCommitDetail(ctx context.Context, owner, repo, sha string) (*types.Commit, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rc, resp, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	c.observeRate(resp)
	if err != nil {
		return nil, c.apiError(err, fmt.Sprintf("fetch commit %s", shortSHA(sha)))
	}

	return c.convertCommit(rc), nil
}

// FetchCommitDetails fetches a batch of commit details on the bounded worker
// pool. Failures for individual SHAs are logged and dropped; the returned
// map holds only the successes, keyed by SHA since completion order differs
// from request order.
func (c *Client) FetchCommitDetails(ctx context.Context, owner, repo string, shas []string) map[string]*types.Commit {
	out := make(map[string]*types.Commit, len(shas))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for _, sha := range shas {
		sha := sha
		g.Go(func() error {
			detail, err := c.FetchCommitDetail(gctx, owner, repo, sha)
			if err != nil {
				c.logger.WithError(err).WithField("sha", shortSHA(sha)).Warn("Dropping commit detail")
				return nil
			}
			mu.Lock()
			out[sha] = detail
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait is the join barrier before merging.
	_ = g.Wait()
	return out
}

// CountBranchFiles returns the number of blobs reachable from a branch head
// by traversing the recursive git tree. Returns ErrTreeTruncated when the
// listing was incomplete; the total must then be treated as unknown. Counts
// are cached per branch for the client's lifetime.
func (c *Client) CountBranchFiles(ctx context.Context, owner, repo, branch string) (int, error) {
	key := fmt.Sprintf("%s/%s@%s", owner, repo, branch)
	v, err := c.treeCounts.getOrFetch(ctx, key, func() (interface{}, error) {
		return c.countBranchFiles(ctx, owner, repo, branch)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (c *Client) countBranchFiles(ctx context.Context, owner, repo, branch string) (int, error) {
	bctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	if err := c.limiter.Wait(bctx); err != nil {
		cancel()
		return 0, err
	}
	b, resp, err := c.gh.Repositories.GetBranch(bctx, owner, repo, branch, 2)
	cancel()
	c.observeRate(resp)
	if err != nil {
		return 0, c.apiError(err, fmt.Sprintf("get branch %s", branch))
	}
	sha := b.GetCommit().GetSHA()
	if sha == "" {
		return 0, apierrors.Newf(apierrors.ErrorTypeUpstream, "branch %s has no head commit", branch)
	}

	// The recursive tree call gets the longer bulk timeout.
	tctx, cancel := context.WithTimeout(ctx, c.cfg.TreeTimeout)
	defer cancel()
	if err := c.limiter.Wait(tctx); err != nil {
		return 0, err
	}
	tree, resp, err := c.gh.Git.GetTree(tctx, owner, repo, sha, true)
	c.observeRate(resp)
	if err != nil {
		return 0, c.apiError(err, fmt.Sprintf("fetch tree for %s", branch))
	}
	if tree.GetTruncated() {
		return 0, ErrTreeTruncated
	}

	count := 0
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			count++
		}
	}
	return count, nil
}

// convertCommit maps the API detail record onto the internal commit shape.
// Only the first message line is kept; patches are capped.
func (c *Client) convertCommit(rc *github.RepositoryCommit) *types.Commit {
	commit := rc.GetCommit()
	author := commit.GetAuthor()
	committer := commit.GetCommitter()
	stats := rc.GetStats()

	out := &types.Commit{
		SHA:            rc.GetSHA(),
		AuthorName:     author.GetName(),
		AuthorEmail:    author.GetEmail(),
		AuthorLogin:    rc.GetAuthor().GetLogin(),
		CommitterName:  committer.GetName(),
		CommitterEmail: committer.GetEmail(),
		CommitterLogin: rc.GetCommitter().GetLogin(),
		Message:        firstLine(commit.GetMessage()),
		Timestamp:      author.GetDate().Time.UTC(),
		Additions:      stats.GetAdditions(),
		Deletions:      stats.GetDeletions(),
		Changes:        stats.GetTotal(),
	}

	for _, f := range rc.Files {
		patch := f.GetPatch()
		if c.cfg.MaxPatchBytes > 0 && len(patch) > c.cfg.MaxPatchBytes {
			patch = patch[:c.cfg.MaxPatchBytes]
		}
		out.Files = append(out.Files, types.FileChange{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Changes:   f.GetChanges(),
			Patch:     patch,
		})
	}

	return out
}

// observeRate records the rate limit headers from a response.
func (c *Client) observeRate(resp *github.Response) {
	if resp == nil {
		return
	}
	info := &types.RateLimitInfo{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
	}
	c.mu.Lock()
	c.lastRate = info
	c.mu.Unlock()

	if info.Limit > 0 && info.Remaining < 100 {
		c.logger.WithFields(logrus.Fields{
			"remaining": info.Remaining,
			"limit":     info.Limit,
		}).Warn("GitHub rate limit running low")
	}
}

// apiError converts go-github failures into the typed error taxonomy,
// keeping upstream status and message verbatim.
func (c *Client) apiError(err error, op string) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		typed := apierrors.FromStatus(ghErr.Response.StatusCode, ghErr.Message)
		return fmt.Errorf("%s: %w", op, typed)
	}
	return fmt.Errorf("%s: %w", op, apierrors.Wrap(err, apierrors.ErrorTypeNetwork, "network failure"))
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
