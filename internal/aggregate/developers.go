package aggregate

import (
	"math"
	"sort"

	"github.com/gitpulse/gitpulse/internal/identity"
	"github.com/gitpulse/gitpulse/internal/types"
)

// BuildDevelopers rolls the merged commit set up per canonical identity key.
// Every counter is recomputed from the constituent commits on each call, so
// re-running over the same set yields identical totals. The result is sorted
// by commit count descending, then key, for stable output.
func BuildDevelopers(commits []*types.Commit) []*types.Developer {
	byKey := make(map[string]*types.Developer)
	files := make(map[string]map[string]struct{})
	branches := make(map[string]map[string]struct{})
	highRisk := make(map[string]int)
	lowComplexity := make(map[string]int)
	qualitySum := make(map[string]int)

	for _, c := range commits {
		key, display := identity.Resolve(identity.Identity{
			AuthorLogin:    c.AuthorLogin,
			CommitterLogin: c.CommitterLogin,
			AuthorName:     c.AuthorName,
			CommitterName:  c.CommitterName,
		})

		dev, ok := byKey[key]
		if !ok {
			dev = &types.Developer{Key: key, DisplayName: display}
			byKey[key] = dev
			files[key] = make(map[string]struct{})
			branches[key] = make(map[string]struct{})
		}

		dev.Commits++
		dev.Additions += c.Additions
		dev.Deletions += c.Deletions
		dev.Changes += commitChanges(c)
		dev.CommitSHAs = append(dev.CommitSHAs, c.SHA)

		for _, f := range c.Files {
			files[key][f.Filename] = struct{}{}
		}
		for _, b := range c.Branches {
			branches[key][b] = struct{}{}
		}

		if s := c.Scores; s != nil {
			qualitySum[key] += s.CodeQuality
			if s.Risk == types.RatingHigh {
				highRisk[key]++
			}
			if s.Complexity == types.RatingLow {
				lowComplexity[key]++
			}
		}
	}

	out := make([]*types.Developer, 0, len(byKey))
	for key, dev := range byKey {
		dev.FilesTouched = len(files[key])
		dev.Branches = sortedKeys(branches[key])
		dev.QualityPercent = round2(float64(qualitySum[key]) / float64(dev.Commits))
		dev.RiskPercent = round2(float64(highRisk[key]) / float64(dev.Commits) * 100)
		dev.SimplicityPercent = round2(float64(lowComplexity[key]) / float64(dev.Commits) * 100)
		out = append(out, dev)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Commits != out[j].Commits {
			return out[i].Commits > out[j].Commits
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func commitChanges(c *types.Commit) int {
	if c.Changes > 0 {
		return c.Changes
	}
	return c.Additions + c.Deletions
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v*100) / 100
}
