// Package temporal buckets merged commits into fixed relative time windows
// and produces per-window roll-ups. Windows are half-open [since, until)
// intervals in UTC and may overlap, so one commit can land in several of
// them; membership depends on the commit timestamp alone.
package temporal

import (
	"sort"
	"time"

	"github.com/gitpulse/gitpulse/internal/types"
)

// DefaultWindows returns the standard reporting windows relative to now.
// "Yesterday" is anchored to UTC midnight; the sliding windows are anchored
// to now itself; "All time" starts at the Unix epoch.
func DefaultWindows(now time.Time) []types.TimeWindow {
	now = now.UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return []types.TimeWindow{
		{Label: "Yesterday", Since: todayStart.AddDate(0, 0, -1), Until: todayStart},
		{Label: "Last 5 days", Since: now.AddDate(0, 0, -5), Until: now},
		{Label: "Weekly", Since: now.AddDate(0, 0, -7), Until: now},
		{Label: "Monthly", Since: now.AddDate(0, 0, -30), Until: now},
		{Label: "All time", Since: time.Unix(0, 0).UTC(), Until: now},
	}
}

// Aggregate computes the roll-up for each window over the merged commit set.
//
// Contributors inside a window are grouped by the name+email pair as reported
// on the commit, falling back to committer fields and then "Unknown". This is
// a different grouping than the login-first canonical developer key used for
// repo-wide rollups; the two conventions feed different report sections and
// are deliberately not unified.
func Aggregate(commits []*types.Commit, windows []types.TimeWindow) []types.WindowStats {
	out := make([]types.WindowStats, 0, len(windows))
	for _, w := range windows {
		out = append(out, aggregateWindow(commits, w))
	}
	return out
}

func aggregateWindow(commits []*types.Commit, w types.TimeWindow) types.WindowStats {
	stats := types.WindowStats{Window: w}
	byPair := make(map[string]*types.ContributorStats)

	for _, c := range commits {
		if !w.Contains(c.Timestamp) {
			continue
		}

		changes := c.Changes
		if changes == 0 {
			changes = c.Additions + c.Deletions
		}

		stats.TotalCommits++
		stats.TotalAdditions += c.Additions
		stats.TotalDeletions += c.Deletions
		stats.TotalChanges += changes

		name, email := contributorPair(c)
		key := name + "|" + email
		entry, ok := byPair[key]
		if !ok {
			entry = &types.ContributorStats{Name: name, Email: email}
			byPair[key] = entry
		}
		entry.Commits++
		entry.Additions += c.Additions
		entry.Deletions += c.Deletions
		entry.Changes += changes
	}

	stats.Contributors = make([]types.ContributorStats, 0, len(byPair))
	for _, entry := range byPair {
		stats.Contributors = append(stats.Contributors, *entry)
	}
	// Deterministic output: most commits first, then name.
	sort.Slice(stats.Contributors, func(i, j int) bool {
		a, b := stats.Contributors[i], stats.Contributors[j]
		if a.Commits != b.Commits {
			return a.Commits > b.Commits
		}
		return a.Name < b.Name
	})

	return stats
}

func contributorPair(c *types.Commit) (name, email string) {
	name = c.AuthorName
	if name == "" {
		name = c.CommitterName
	}
	if name == "" {
		name = "Unknown"
	}
	email = c.AuthorEmail
	if email == "" {
		email = c.CommitterEmail
	}
	return name, email
}
