// Package scoring computes heuristic per-commit quality scores. Six
// independent dimensions start at a baseline of 50 and receive additive,
// order-independent adjustments from message keywords, file path prefixes and
// change magnitude, then clamp to [0,100]. A companion set of coarse ratings
// (impact, complexity, risk) comes from fixed thresholds on change size.
package scoring

import (
	"strings"

	"github.com/gitpulse/gitpulse/internal/types"
)

const baseline = 50

// Keyword groups checked against the lower-cased commit message.
var (
	perfKeywords     = []string{"optimize", "optimization", "perf", "performance", "speed up", "faster"}
	securityKeywords = []string{"security", "auth", "encryption", "vulnerability", "cve", "sanitize"}
	refactorKeywords = []string{"refactor", "cleanup", "clean up", "simplify", "restructure"}
	testKeywords     = []string{"test", "tests", "coverage", "spec"}
	docsKeywords     = []string{"docs", "documentation", "readme", "changelog"}
)

// Path prefixes that signal which dimension a change touches.
var (
	benchPrefixes = []string{"benchmarks/", "bench/", "perf/"}
	authPrefixes  = []string{"auth/", "security/", "crypto/"}
	testPrefixes  = []string{"tests/", "test/"}
	ciPrefixes    = []string{".github/workflows/"}
	docPrefixes   = []string{"docs/", "doc/"}
)

// Magnitude thresholds for the coarse ratings. The risk thresholds are part
// of the reporting contract and must not drift.
const (
	riskHighChanges   = 500
	riskHighFiles     = 30
	riskMediumChanges = 100
	riskMediumFiles   = 5

	impactHighChanges   = 300
	impactHighFiles     = 20
	impactMediumChanges = 50
	impactMediumFiles   = 3

	complexityHighChanges   = 400
	complexityHighFiles     = 25
	complexityMediumChanges = 80
	complexityMediumFiles   = 4
)

// Score computes the full score set for one commit.
func Score(c *types.Commit) types.CommitScores {
	msg := strings.ToLower(c.Message)
	files := len(c.Files)

	s := types.CommitScores{
		CodeQuality:     baseline,
		Performance:     baseline,
		Security:        baseline,
		Maintainability: baseline,
		Testing:         baseline,
		Documentation:   baseline,
	}

	// Message keyword signals.
	if containsAny(msg, perfKeywords) {
		s.Performance += 20
	}
	if containsAny(msg, securityKeywords) {
		s.Security += 20
	}
	if containsAny(msg, refactorKeywords) {
		s.Maintainability += 15
		s.CodeQuality += 10
	}
	if containsAny(msg, testKeywords) {
		s.Testing += 15
	}
	// Documentation is set directly: 80 on a docs keyword, baseline otherwise.
	if containsAny(msg, docsKeywords) {
		s.Documentation = 80
	}

	// Structural signals from file paths.
	if touchesAny(c.Files, benchPrefixes) {
		s.Performance += 10
	}
	if touchesAny(c.Files, authPrefixes) {
		s.Security += 10
	}
	if touchesAny(c.Files, testPrefixes) || touchesTestFiles(c.Files) {
		s.Testing += 15
	}
	if touchesAny(c.Files, ciPrefixes) {
		s.Testing += 5
		s.Maintainability += 5
	}
	if touchesAny(c.Files, docPrefixes) || touchesMarkdown(c.Files) {
		if s.Documentation < 80 {
			s.Documentation = 80
		}
	}

	// Magnitude signals.
	if c.Changes > 1000 || files > 50 {
		s.CodeQuality -= 15
	} else if c.Changes > 0 && c.Changes <= 50 && files <= 5 {
		// Small, contained diffs are easier to review and revert.
		s.CodeQuality += 10
	}
	if c.Deletions > c.Additions {
		s.Performance += 5
		s.Maintainability += 10
	}

	s.CodeQuality = clamp(s.CodeQuality)
	s.Performance = clamp(s.Performance)
	s.Security = clamp(s.Security)
	s.Maintainability = clamp(s.Maintainability)
	s.Testing = clamp(s.Testing)
	s.Documentation = clamp(s.Documentation)

	s.Impact = rate(c.Changes, files, impactHighChanges, impactHighFiles, impactMediumChanges, impactMediumFiles)
	s.Complexity = rate(c.Changes, files, complexityHighChanges, complexityHighFiles, complexityMediumChanges, complexityMediumFiles)
	s.Risk = rate(c.Changes, files, riskHighChanges, riskHighFiles, riskMediumChanges, riskMediumFiles)

	return s
}

// rate maps change magnitude to a coarse level: High when strictly above the
// high thresholds, Medium when at or above the medium ones, else Low.
func rate(changes, files, highChanges, highFiles, medChanges, medFiles int) types.RatingLevel {
	if changes > highChanges || files > highFiles {
		return types.RatingHigh
	}
	if changes >= medChanges || files >= medFiles {
		return types.RatingMedium
	}
	return types.RatingLow
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func containsAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

func touchesAny(files []types.FileChange, prefixes []string) bool {
	for _, f := range files {
		for _, p := range prefixes {
			if strings.HasPrefix(f.Filename, p) {
				return true
			}
		}
	}
	return false
}

func touchesTestFiles(files []types.FileChange) bool {
	for _, f := range files {
		name := f.Filename
		if strings.HasSuffix(name, "_test.go") || strings.Contains(name, ".test.") || strings.Contains(name, ".spec.") {
			return true
		}
	}
	return false
}

func touchesMarkdown(files []types.FileChange) bool {
	for _, f := range files {
		if strings.HasSuffix(f.Filename, ".md") {
			return true
		}
	}
	return false
}
