// Package observability provides formatted output utilities for the CLI:
// colored step progress and boxed summaries of brand profiles and
// leaderboards.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/pipeline"
	"github.com/jonathan/brandos/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
	bold   = color.New(color.Bold)
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
	// Verbose also prints step starts and skip reasons.
	Verbose bool
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Progress prints one pipeline step transition. It has the
// pipeline.ProgressCallback signature.
//
//nolint:errcheck // writing to the terminal; errors are not recoverable
func (p *Printer) Progress(ev pipeline.ProgressEvent) {
	switch ev.Status {
	case pipeline.StatusStarted:
		if p.Verbose {
			cyan.Fprintf(p.out, "→ %-16s %s\n", ev.Step, ev.Message)
		}
	case pipeline.StatusCompleted:
		green.Fprintf(p.out, "✓ %-16s ", ev.Step)
		fmt.Fprintln(p.out, ev.Message)
	case pipeline.StatusSkipped:
		if p.Verbose {
			faint.Fprintf(p.out, "- %-16s %s\n", ev.Step, ev.Message)
		}
	case pipeline.StatusFailed:
		yellow.Fprintf(p.out, "⚠ %-16s ", ev.Step)
		fmt.Fprintln(p.out, ev.Message)
	}
}

// Errorf prints an error line in red.
func (p *Printer) Errorf(format string, a ...any) {
	red.Fprintf(p.out, "✗ "+format+"\n", a...) //nolint:errcheck
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprint(p.out, "│ ")
	bold.Fprintf(p.out, "%-*s", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprint(p.out, " │\n")
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		line = truncate(line, boxWidth-4)
		pad := boxWidth - 4 - utf8.RuneCountInString(line)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", max(pad, 0)))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBrandReport outputs a human-readable summary of an analysis.
func (p *Printer) PrintBrandReport(r *types.BrandReport) {
	if r == nil {
		return
	}
	a := r.Profile.Analysis

	var sb strings.Builder
	fmt.Fprintf(&sb, "URL:       %s\n", r.URL)
	if a.BrandArchetype != "" {
		fmt.Fprintf(&sb, "Archetype: %s\n", a.BrandArchetype)
	}
	if a.BrandVoice != "" {
		fmt.Fprintf(&sb, "Voice:     %s\n", a.BrandVoice)
	}
	if r.Health != nil {
		fmt.Fprintf(&sb, "Health:    %.0f/100\n", r.Health.OverallScore)
	}
	if r.Design != nil && r.Design.PrimaryColor != "" {
		fmt.Fprintf(&sb, "Colors:    %s %s\n", r.Design.PrimaryColor, r.Design.SecondaryColor)
	}
	writeItems(&sb, "Value propositions", a.KeyValuePropositions)

	if len(r.Profile.Personas) > 0 {
		sb.WriteString("\nPersonas:\n")
		for _, persona := range r.Profile.Personas {
			fmt.Fprintf(&sb, "  • %s\n", persona.Role)
		}
	}
	if pos := r.Profile.Strategy.MarketPositioning; pos != "" {
		fmt.Fprintf(&sb, "\nPositioning: %s\n", pos)
	}
	writeItems(&sb, "Recommendations", a.StrategicRecommendations)
	if r.Audit != nil {
		verdict := "not AI-friendly"
		if r.Audit.AIFriendly {
			verdict = "AI-friendly"
		}
		fmt.Fprintf(&sb, "\nAudit: %s (readability %.0f)\n", verdict, r.Audit.ReadabilityScore)
	}

	p.printBox(r.BrandName, sb.String())
}

// PrintLeaderboard outputs the top of an AEO leaderboard, marking the brand.
func (p *Printer) PrintLeaderboard(brandName string, report *aeo.CompetitiveReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	if len(report.Leaderboard) == 0 {
		sb.WriteString("No brands were mentioned.\n")
	}
	for i, e := range report.Leaderboard {
		if i == 10 {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(report.Leaderboard)-i)
			break
		}
		marker := " "
		if strings.Contains(strings.ToLower(e.Name), strings.ToLower(brandName)) {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s%2d. %-24s SoV %5.1f%%  %s\n", marker, i+1, truncate(e.Name, 24), e.ShareOfVoice, change(e))
	}
	fmt.Fprintf(&sb, "\n%d answers, stability %.0f%%\n", report.TotalQueries, report.StabilityScore)

	p.printBox("AEO Leaderboard", sb.String())
}

// PrintStrategy outputs the AEO action plan.
func (p *Printer) PrintStrategy(s *aeo.Strategy) {
	if s == nil {
		return
	}
	var sb strings.Builder
	if s.Headline != "" {
		fmt.Fprintf(&sb, "%s\n\n", s.Headline)
	}
	for i, a := range s.TopActions {
		fmt.Fprintf(&sb, "%d. %s [%s impact]\n", i+1, a.Title, a.Impact)
	}
	if s.CitationHealth.Status != "" {
		fmt.Fprintf(&sb, "\nCitations: %s\n", s.CitationHealth.Status)
	}
	p.printBox("AEO Strategy", sb.String())
}

// PrintDefense outputs a brand defense simulation and its playbook.
func (p *Printer) PrintDefense(r *aeo.DefenseReport, s *aeo.DefenseStrategy) {
	if r == nil {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Moat score: %.1f/100 over %d answers\n", r.MoatScore, r.TotalQueries)
	if top := r.TopLeakers(maxItemsToShow); len(top) > 0 {
		sb.WriteString("\nLeaking to:\n")
		for _, name := range top {
			fmt.Fprintf(&sb, "  • %-24s %d\n", truncate(name, 24), r.LeakageCounts[name])
		}
	} else {
		sb.WriteString("\nNo competitor leaks.\n")
	}
	for _, res := range r.Results {
		if res.MoatBreach {
			fmt.Fprintf(&sb, "\n✗ %s (%s)", truncate(res.Query, 40), res.Type)
		}
	}
	if s != nil {
		fmt.Fprintf(&sb, "\n\n%s\n", s.Headline)
		for i, t := range s.Tactics {
			fmt.Fprintf(&sb, "%d. %s [%s impact]\n", i+1, t.Title, t.Impact)
		}
	}
	p.printBox("Brand Defense", sb.String())
}

func writeItems(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for i, it := range items {
		if i == maxItemsToShow {
			fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
			break
		}
		fmt.Fprintf(sb, "  • %s\n", it)
	}
}

func change(e aeo.LeaderboardEntry) string {
	switch {
	case e.NewEntrant:
		return "new"
	case e.RankChange > 0:
		return fmt.Sprintf("▲%d", e.RankChange)
	case e.RankChange < 0:
		return fmt.Sprintf("▼%d", -e.RankChange)
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
