// Package web renders the BrandOS dashboard pages as templ components.
package web

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/types"
)

// DashboardData is everything the brand dashboard shows.
type DashboardData struct {
	Brand       db.Brand
	Report      *types.BrandReport
	Stats       *db.BrandStats
	Leaderboard []aeo.LeaderboardEntry
	// Query is the keyword set of the leaderboard's report.
	Query string
}

// leaderboardRows caps the leaderboard table.
const leaderboardRows = 10

const style = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:960px;color:#1f2933}
table{border-collapse:collapse;width:100%}td,th{border-bottom:1px solid #e4e7eb;padding:.4rem;text-align:left}
.swatch{display:inline-block;width:2rem;height:2rem;border-radius:4px;margin-right:.4rem;vertical-align:middle;border:1px solid #cbd2d9}
.card{border:1px solid #e4e7eb;border-radius:8px;padding:1rem;margin:1rem 0}.muted{color:#7b8794}`

// Layout wraps body in the page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><style>%s</style></head><body>`,
			templ.EscapeString(title), style)
		pw.printf(`<nav><a href="/">BrandOS</a></nav>`)
		if pw.err != nil {
			return pw.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		pw.printf(`</body></html>`)
		return pw.err
	})
}

// BrandList renders the saved brands.
func BrandList(brands []db.BrandSummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.printf(`<h1>Brands</h1>`)
		if len(brands) == 0 {
			pw.printf(`<p class="muted">No brands yet. Run an analysis to add one.</p>`)
			return pw.err
		}
		pw.printf(`<table><thead><tr><th>Brand</th><th>Homepage</th><th>Pages</th><th>Last analysed</th></tr></thead><tbody>`)
		for _, b := range brands {
			homepage, analysed := "", "never"
			if b.HomepageURL != nil {
				homepage = *b.HomepageURL
			}
			if b.LastAnalyzedAt != nil {
				analysed = b.LastAnalyzedAt.Format("2006-01-02 15:04")
			}
			pw.printf(`<tr><td><a href="/dashboard/brands/%s">%s</a></td><td>%s</td><td>%d</td><td>%s</td></tr>`,
				b.ID, esc(b.Name), esc(homepage), b.PageCount, analysed)
		}
		pw.printf(`</tbody></table>`)
		return pw.err
	})
}

// Dashboard renders one brand: DNA, personas, design swatches, health and
// the latest AEO leaderboard.
func Dashboard(d DashboardData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.printf(`<h1>%s</h1>`, esc(d.Brand.Name))
		if d.Stats != nil {
			pw.printf(`<p class="muted">%d pages &middot; %d analyses &middot; %d AEO reports &middot; %d assets &middot; %d campaigns</p>`,
				d.Stats.Pages, d.Stats.Analyses, d.Stats.AEOReports, d.Stats.Assets, d.Stats.Campaigns)
		}

		if d.Report == nil {
			pw.printf(`<p class="muted">This brand has not been analysed yet.</p>`)
		} else {
			writeDNA(pw, d.Report)
			writePersonas(pw, d.Report.Profile.Personas)
			writeDesign(pw, d.Report)
			writeHealth(pw, d.Report.Health)
		}
		writeLeaderboard(pw, d.Brand.Name, d.Query, d.Leaderboard)
		return pw.err
	})
}

func writeDNA(pw *pageWriter, r *types.BrandReport) {
	a := r.Profile.Analysis
	pw.printf(`<section class="card"><h2>Brand DNA</h2><dl>`)
	for _, row := range [][2]string{
		{"Archetype", a.BrandArchetype},
		{"Voice", a.BrandVoice},
		{"Enemy", a.BrandEnemy},
		{"Noble cause", a.BrandNobleCause},
		{"Audience", a.TargetAudienceSummary},
	} {
		if row[1] == "" {
			continue
		}
		pw.printf(`<dt>%s</dt><dd>%s</dd>`, row[0], esc(row[1]))
	}
	pw.printf(`</dl>`)
	writeList(pw, "Value propositions", a.KeyValuePropositions)
	writeList(pw, "Values", a.BrandValues)
	pw.printf(`</section>`)
}

func writePersonas(pw *pageWriter, personas []types.Persona) {
	if len(personas) == 0 {
		return
	}
	pw.printf(`<section class="card"><h2>Personas</h2>`)
	for _, p := range personas {
		pw.printf(`<h3>%s</h3>`, esc(p.Role))
		if p.JobsToBeDone != "" {
			pw.printf(`<p><strong>Job to be done:</strong> %s</p>`, esc(p.JobsToBeDone))
		}
		writeList(pw, "Pain points", p.PainPoints)
		if p.MarketingHook != "" {
			pw.printf(`<p><em>%s</em></p>`, esc(p.MarketingHook))
		}
	}
	pw.printf(`</section>`)
}

func writeDesign(pw *pageWriter, r *types.BrandReport) {
	colors := r.Profile.Analysis.VisualIdentity.PrimaryPalette
	fonts := ""
	if r.Design != nil {
		for _, c := range append([]string{r.Design.PrimaryColor, r.Design.SecondaryColor}, r.Design.AccentColors...) {
			if c != "" {
				colors = append(colors, c)
			}
		}
		fonts = strings.Trim(r.Design.FontPrimary+", "+r.Design.FontHeadings, ", ")
	}
	if len(colors) == 0 && fonts == "" {
		return
	}
	pw.printf(`<section class="card"><h2>Design system</h2><div>`)
	seen := map[string]bool{}
	for _, c := range colors {
		key := strings.ToLower(c)
		if seen[key] || !isCSSColor(c) {
			continue
		}
		seen[key] = true
		pw.printf(`<span class="swatch" style="background:%s" title="%s"></span>`, esc(c), esc(c))
	}
	pw.printf(`</div>`)
	if fonts != "" {
		pw.printf(`<p>Fonts: %s</p>`, esc(fonts))
	}
	pw.printf(`</section>`)
}

func writeHealth(pw *pageWriter, h *types.Health) {
	if h == nil {
		return
	}
	pw.printf(`<section class="card"><h2>Brand health: %.0f/100</h2><table><tbody>`, h.OverallScore)
	for _, m := range []struct {
		name   string
		metric types.HealthMetric
	}{
		{"Clarity", h.Metrics.Clarity},
		{"Consistency", h.Metrics.Consistency},
		{"Audience alignment", h.Metrics.AudienceAlignment},
		{"Uniqueness", h.Metrics.Uniqueness},
	} {
		pw.printf(`<tr><td>%s</td><td>%.0f</td><td>%s</td></tr>`, m.name, m.metric.Score, esc(m.metric.Description))
	}
	pw.printf(`</tbody></table>`)
	writeList(pw, "Recommendations", h.Recommendations)
	pw.printf(`</section>`)
}

func writeLeaderboard(pw *pageWriter, brandName, query string, entries []aeo.LeaderboardEntry) {
	pw.printf(`<section class="card"><h2>AEO leaderboard</h2>`)
	if len(entries) == 0 {
		pw.printf(`<p class="muted">No visibility report yet.</p></section>`)
		return
	}
	if query != "" {
		pw.printf(`<p class="muted">Keywords: %s</p>`, esc(query))
	}
	pw.printf(`<table><thead><tr><th>#</th><th>Brand</th><th>Share of voice</th><th>Avg rank</th><th>Change</th></tr></thead><tbody>`)
	for i, e := range entries {
		if i == leaderboardRows {
			break
		}
		name := esc(e.Name)
		if strings.Contains(strings.ToLower(e.Name), strings.ToLower(brandName)) {
			name = "<strong>" + name + "</strong>"
		}
		pw.printf(`<tr><td>%d</td><td>%s</td><td>%.1f%%</td><td>%.1f</td><td>%s</td></tr>`,
			i+1, name, e.ShareOfVoice, e.AvgRank, rankChange(e))
	}
	pw.printf(`</tbody></table></section>`)
}

func writeList(pw *pageWriter, title string, items []string) {
	if len(items) == 0 {
		return
	}
	pw.printf(`<h4>%s</h4><ul>`, title)
	for _, it := range items {
		pw.printf(`<li>%s</li>`, esc(it))
	}
	pw.printf(`</ul>`)
}

func rankChange(e aeo.LeaderboardEntry) string {
	switch {
	case e.NewEntrant:
		return "new"
	case e.RankChange > 0:
		return fmt.Sprintf("&#9650; %d", e.RankChange)
	case e.RankChange < 0:
		return fmt.Sprintf("&#9660; %d", -e.RankChange)
	}
	return "&ndash;"
}

// isCSSColor accepts hex colors and plain color names, keeping style attributes inert.
func isCSSColor(c string) bool {
	if c == "" || len(c) > 32 {
		return false
	}
	if c[0] == '#' {
		c = c[1:]
		if len(c) != 3 && len(c) != 4 && len(c) != 6 && len(c) != 8 {
			return false
		}
		return strings.Trim(strings.ToLower(c), "0123456789abcdef") == ""
	}
	return strings.Trim(strings.ToLower(c), "abcdefghijklmnopqrstuvwxyz") == ""
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// pageWriter keeps the first write error so rendering code can stay linear.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
