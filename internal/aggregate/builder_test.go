package aggregate

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitpulse/gitpulse/internal/config"
	apierrors "github.com/gitpulse/gitpulse/internal/errors"
	"github.com/gitpulse/gitpulse/internal/types"
)

type fakeFetcher struct {
	repo     *types.Repository
	repoErr  error
	branches []types.Branch

	shas     map[string][]string
	shaErr   map[string]error
	details  map[string]*types.Commit
	files    map[string]int
	filesErr map[string]error
	pulls    map[string][]types.PullRequest

	detailRequests map[string]int
}

func (f *fakeFetcher) FetchRepository(ctx context.Context, owner, repo string) (*types.Repository, error) {
	if f.repoErr != nil {
		return nil, f.repoErr
	}
	return f.repo, nil
}

func (f *fakeFetcher) FetchBranches(ctx context.Context, owner, repo string) ([]types.Branch, error) {
	return f.branches, nil
}

func (f *fakeFetcher) ListCommitSHAs(ctx context.Context, owner, repo, branch string) ([]string, error) {
	if err := f.shaErr[branch]; err != nil {
		return nil, err
	}
	return f.shas[branch], nil
}

func (f *fakeFetcher) FetchCommitDetails(ctx context.Context, owner, repo string, shas []string) map[string]*types.Commit {
	if f.detailRequests == nil {
		f.detailRequests = make(map[string]int)
	}
	out := make(map[string]*types.Commit, len(shas))
	for _, sha := range shas {
		f.detailRequests[sha]++
		if c, ok := f.details[sha]; ok {
			cp := *c
			out[sha] = &cp
		}
	}
	return out
}

func (f *fakeFetcher) CountBranchFiles(ctx context.Context, owner, repo, branch string) (int, error) {
	if err := f.filesErr[branch]; err != nil {
		return 0, err
	}
	return f.files[branch], nil
}

func (f *fakeFetcher) FetchMergedPulls(ctx context.Context, owner, repo, base string, updatedSince time.Time) ([]types.PullRequest, error) {
	return f.pulls[base], nil
}

func (f *fakeFetcher) RateLimit() *types.RateLimitInfo {
	return &types.RateLimitInfo{Limit: 5000, Remaining: 4000}
}

func commitAt(sha, message string, ts time.Time, files int) *types.Commit {
	c := &types.Commit{
		SHA:         sha,
		AuthorName:  "Dev One",
		AuthorLogin: "dev1",
		Message:     message,
		Timestamp:   ts,
		Additions:   10,
		Deletions:   5,
		Changes:     15,
	}
	for i := 0; i < files; i++ {
		c.Files = append(c.Files, types.FileChange{Filename: string(rune('a'+i)) + ".go", Changes: 3})
	}
	return c
}

func newTestBuilder(f *fakeFetcher) *Builder {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	b := NewBuilder(f, config.Default(), logger)
	b.now = func() time.Time {
		return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	}
	return b
}

func TestBuildMergesSharedCommitsAcrossBranches(t *testing.T) {
	base := time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC)
	f := &fakeFetcher{
		repo: &types.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets", DefaultBranch: "main"},
		branches: []types.Branch{
			{Name: "main"},
			{Name: "dev"},
		},
		shas: map[string][]string{
			// Newest first, as the listing endpoint returns them.
			"main": {"e5", "d4", "c3", "b2", "a1"},
			"dev":  {"g7", "f6", "e5", "d4", "c3"},
		},
		details: map[string]*types.Commit{
			"a1": commitAt("a1", "initial import", base.Add(-96*time.Hour), 2),
			"b2": commitAt("b2", "fix crash on empty input", base.Add(-72*time.Hour), 1),
			"c3": commitAt("c3", "add export pipeline", base.Add(-48*time.Hour), 4),
			"d4": commitAt("d4", "tune cache sizing", base.Add(-24*time.Hour), 1),
			"e5": commitAt("e5", "rework scheduler", base, 5),
			"f6": commitAt("f6", "fix flaky retry", base.Add(-12*time.Hour), 1),
			"g7": commitAt("g7", "add webhooks", base.Add(2*time.Hour), 2),
		},
		files: map[string]int{"main": 20, "dev": 20},
		pulls: map[string][]types.PullRequest{
			"main": {{Number: 12, Title: "Rework scheduler", BaseRef: "main"}},
		},
	}

	report, err := newTestBuilder(f).Build(context.Background(), "acme", "widgets")
	require.NoError(t, err)

	// 5 + 5 listed, 3 shared: 7 distinct commits.
	assert.Len(t, report.Commits, 7)
	require.Len(t, report.Branches, 2)
	assert.Equal(t, 5, report.Branches[0].TotalCommits)
	assert.Equal(t, 5, report.Branches[1].TotalCommits)
	assert.True(t, report.Branches[0].IsDefault)
	assert.False(t, report.Branches[1].IsDefault)
	assert.Equal(t, []types.PullRequest{{Number: 12, Title: "Rework scheduler", BaseRef: "main"}}, report.Branches[0].MergedPulls)

	byID := make(map[string]*types.Commit)
	for _, c := range report.Commits {
		byID[c.SHA] = c
	}

	// Shared commits carry both branches; unique commits carry one.
	assert.Equal(t, []string{"main", "dev"}, byID["e5"].Branches)
	assert.Equal(t, []string{"main", "dev"}, byID["d4"].Branches)
	assert.Equal(t, []string{"main", "dev"}, byID["c3"].Branches)
	assert.Equal(t, []string{"main"}, byID["a1"].Branches)
	assert.Equal(t, []string{"dev"}, byID["g7"].Branches)

	// Detail was requested exactly once per identifier.
	for sha, n := range f.detailRequests {
		assert.Equalf(t, 1, n, "detail for %s requested %d times", sha, n)
	}
	assert.Len(t, f.detailRequests, 7)

	// Every commit is annotated.
	for _, c := range report.Commits {
		require.NotNil(t, c.Classification, c.SHA)
		require.NotNil(t, c.Scores, c.SHA)
	}
	assert.Equal(t, types.LabelBugFix, byID["b2"].Classification.Label)
	assert.Equal(t, types.LabelHighFeature, byID["e5"].Classification.Label) // 5/20 = 25%
	assert.Equal(t, types.LabelLowFeature, byID["d4"].Classification.Label)  // 1/20 = 5%

	require.Len(t, report.Developers, 1)
	assert.Equal(t, "dev1", report.Developers[0].Key)
	assert.Equal(t, 7, report.Developers[0].Commits)

	// Recent list is newest first.
	require.NotEmpty(t, report.Recent)
	assert.Equal(t, "g7", report.Recent[0].SHA)
	assert.Equal(t, "e5", report.Recent[1].SHA)

	assert.Len(t, report.Windows, 5)
	assert.NotNil(t, report.RateLimit)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestBuildBranchListingFailureIsPartial(t *testing.T) {
	ts := time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC)
	f := &fakeFetcher{
		repo:     &types.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets", DefaultBranch: "main"},
		branches: []types.Branch{{Name: "main"}, {Name: "broken"}},
		shas:     map[string][]string{"main": {"a1"}},
		shaErr: map[string]error{
			"broken": apierrors.New(apierrors.ErrorTypeUpstream, "listing failed with status 500"),
		},
		details: map[string]*types.Commit{"a1": commitAt("a1", "add parser", ts, 1)},
		files:   map[string]int{"main": 10},
	}

	report, err := newTestBuilder(f).Build(context.Background(), "acme", "widgets")
	require.NoError(t, err)

	require.Len(t, report.Branches, 2)
	assert.Empty(t, report.Branches[0].FetchError)
	assert.Equal(t, "listing failed with status 500", report.Branches[1].FetchError)
	assert.Zero(t, report.Branches[1].TotalCommits)
	assert.Len(t, report.Commits, 1)
}

func TestBuildRepositoryFailureIsFatal(t *testing.T) {
	f := &fakeFetcher{repoErr: apierrors.New(apierrors.ErrorTypeNotFound, "repository not found")}
	_, err := newTestBuilder(f).Build(context.Background(), "acme", "gone")
	require.Error(t, err)
	assert.True(t, apierrors.IsNotFound(err))
}

func TestBuildDroppedDetailSkipsCommit(t *testing.T) {
	ts := time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC)
	f := &fakeFetcher{
		repo:     &types.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets", DefaultBranch: "main"},
		branches: []types.Branch{{Name: "main"}},
		shas:     map[string][]string{"main": {"a1", "missing"}},
		details:  map[string]*types.Commit{"a1": commitAt("a1", "add parser", ts, 1)},
		files:    map[string]int{"main": 10},
	}

	report, err := newTestBuilder(f).Build(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Len(t, report.Commits, 1)
	assert.Equal(t, 1, report.Branches[0].TotalCommits)
}

func TestBuildUnknownFileTotalUsesFallback(t *testing.T) {
	ts := time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC)
	f := &fakeFetcher{
		repo:     &types.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets", DefaultBranch: "main"},
		branches: []types.Branch{{Name: "main"}},
		shas:     map[string][]string{"main": {"a1"}},
		details:  map[string]*types.Commit{"a1": commitAt("a1", "add parser", ts, 2)},
		filesErr: map[string]error{"main": apierrors.New(apierrors.ErrorTypeTruncated, "tree listing truncated")},
	}

	report, err := newTestBuilder(f).Build(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	require.Len(t, report.Commits, 1)

	cls := report.Commits[0].Classification
	require.NotNil(t, cls)
	assert.Equal(t, types.LabelLowFeature, cls.Label)
	assert.Nil(t, cls.FilesPercent)
	assert.Nil(t, cls.TotalFiles)
}
