// Package classify labels commits as bug fixes or low/high impact features
// from the commit message and change footprint. Classification is a pure
// function of its inputs; no fetching happens here.
package classify

import (
	"math"
	"regexp"

	"github.com/gitpulse/gitpulse/internal/types"
)

// bugPattern matches whole bug-related words anywhere in the message,
// case-insensitively. A match short-circuits every other rule.
var bugPattern = regexp.MustCompile(`(?i)\b(fix|fixed|bug|bugs|hotfix|patch|revert|regression)\b`)

// highFeaturePercent is the inclusive boundary on the changed-files share
// above which a feature counts as high impact.
const highFeaturePercent = 15.0

// fallbackHighFiles is the changed-file threshold used when the branch file
// total is unknown (truncated or failed tree listing).
const fallbackHighFiles = 100

// Classify assigns exactly one label to a commit.
//
// totalFiles is the number of tracked files on the branch at classification
// time; pass totalFiles <= 0 when the tree listing was truncated or failed,
// which switches to the absolute changed-file fallback.
func Classify(message string, changedFiles, totalFiles int) types.Classification {
	if bugPattern.MatchString(message) {
		return types.Classification{Label: types.LabelBugFix}
	}

	if totalFiles > 0 {
		percent := round2(float64(changedFiles) / float64(totalFiles) * 100.0)
		label := types.LabelLowFeature
		if percent >= highFeaturePercent {
			label = types.LabelHighFeature
		}
		tf := totalFiles
		return types.Classification{
			Label:        label,
			FilesPercent: &percent,
			TotalFiles:   &tf,
		}
	}

	if changedFiles >= fallbackHighFiles {
		return types.Classification{Label: types.LabelHighFeature}
	}
	return types.Classification{Label: types.LabelLowFeature}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
