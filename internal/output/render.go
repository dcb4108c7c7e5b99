// Package output renders an aggregation report for human or machine
// consumption. Table rendering goes to the given writer so tests can capture
// it; JSON output is the full report, indented.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/gitpulse/gitpulse/internal/types"
)

// Format selects the report rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

var (
	highColor   = color.New(color.FgRed, color.Bold)
	mediumColor = color.New(color.FgYellow)
	lowColor    = color.New(color.FgGreen)
	dimColor    = color.New(color.FgHiBlack)
)

// Render writes the report in the requested format.
func Render(w io.Writer, report *types.Report, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, report)
	case FormatTable, "":
		return renderTables(w, report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderJSON(w io.Writer, report *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func renderTables(w io.Writer, report *types.Report) error {
	fmt.Fprintf(w, "Repository: %s (default branch %s)\n", report.Repository.FullName, report.Repository.DefaultBranch)
	fmt.Fprintf(w, "Generated:  %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Commits:    %d across %d branches, %d developers\n\n",
		len(report.Commits), len(report.Branches), len(report.Developers))

	if err := renderBranches(w, report.Branches); err != nil {
		return err
	}
	if err := renderDevelopers(w, report.Developers); err != nil {
		return err
	}
	if err := renderWindows(w, report.Windows); err != nil {
		return err
	}
	if err := renderRecent(w, report.Recent); err != nil {
		return err
	}

	if rl := report.RateLimit; rl != nil {
		fmt.Fprintf(w, "Rate limit: %d/%d remaining (resets %s)\n",
			rl.Remaining, rl.Limit, rl.Reset.Format("15:04:05 MST"))
	}
	return nil
}

func renderBranches(w io.Writer, branches []types.BranchReport) error {
	fmt.Fprintln(w, "Branches")
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Branch", "Default", "Protected", "Commits", "Merged PRs", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, b := range branches {
		status := lowColor.Sprint("ok")
		if b.FetchError != "" {
			status = highColor.Sprint(b.FetchError)
		}
		data = append(data, []string{
			b.Name,
			yesNo(b.IsDefault),
			yesNo(b.Protected),
			strconv.Itoa(b.TotalCommits),
			strconv.Itoa(len(b.MergedPulls)),
			status,
		})
	}
	return renderBulk(w, table, data)
}

func renderDevelopers(w io.Writer, devs []*types.Developer) error {
	fmt.Fprintln(w, "Developers")
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Developer", "Commits", "+", "-", "Files", "Quality", "Risk %", "Simplicity %"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, d := range devs {
		data = append(data, []string{
			d.DisplayName,
			strconv.Itoa(d.Commits),
			strconv.Itoa(d.Additions),
			strconv.Itoa(d.Deletions),
			strconv.Itoa(d.FilesTouched),
			fmt.Sprintf("%.2f", d.QualityPercent),
			fmt.Sprintf("%.2f", d.RiskPercent),
			fmt.Sprintf("%.2f", d.SimplicityPercent),
		})
	}
	return renderBulk(w, table, data)
}

func renderWindows(w io.Writer, windows []types.WindowStats) error {
	fmt.Fprintln(w, "Activity windows")
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Window", "Commits", "+", "-", "Changes", "Top contributor"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, ws := range windows {
		top := dimColor.Sprint("none")
		if len(ws.Contributors) > 0 {
			c := ws.Contributors[0]
			top = fmt.Sprintf("%s (%d)", c.Name, c.Commits)
		}
		data = append(data, []string{
			ws.Window.Label,
			strconv.Itoa(ws.TotalCommits),
			strconv.Itoa(ws.TotalAdditions),
			strconv.Itoa(ws.TotalDeletions),
			strconv.Itoa(ws.TotalChanges),
			top,
		})
	}
	return renderBulk(w, table, data)
}

func renderRecent(w io.Writer, commits []*types.Commit) error {
	fmt.Fprintln(w, "Recent commits")
	table := tablewriter.NewWriter(w)
	table.Header([]string{"SHA", "Date", "Author", "Label", "Risk", "Message"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, c := range commits {
		label, risk := "", ""
		if c.Classification != nil {
			label = labelText(c.Classification.Label)
		}
		if c.Scores != nil {
			risk = ratingText(c.Scores.Risk)
		}
		data = append(data, []string{
			shortSHA(c.SHA),
			c.Timestamp.Format("2006-01-02"),
			c.AuthorName,
			label,
			risk,
			truncate(c.Message, 60),
		})
	}
	return renderBulk(w, table, data)
}

func renderBulk(w io.Writer, table *tablewriter.Table, data [][]string) error {
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func labelText(label types.Label) string {
	switch label {
	case types.LabelBugFix:
		return mediumColor.Sprint("bug fix")
	case types.LabelHighFeature:
		return highColor.Sprint("high feature")
	case types.LabelLowFeature:
		return lowColor.Sprint("low feature")
	default:
		return string(label)
	}
}

func ratingText(level types.RatingLevel) string {
	switch level {
	case types.RatingHigh:
		return highColor.Sprint("high")
	case types.RatingMedium:
		return mediumColor.Sprint("medium")
	case types.RatingLow:
		return lowColor.Sprint("low")
	default:
		return string(level)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-1]) + "…"
}
