package audit

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	// readabilitySampleChars is how much page text is graded.
	readabilitySampleChars = 5000
	// complexGrade is the grade level above which content is flagged.
	complexGrade = 14
)

// Report is the AI-readiness audit of a site.
type Report struct {
	RobotsStatus     map[string]string `json:"robots_status"`
	SchemaFound      []string          `json:"schema_found"`
	ReadabilityScore float64           `json:"readability_score"`
	AIFriendly       bool              `json:"is_ai_friendly"`
	Warnings         []string          `json:"warnings"`
}

// Auditor runs site audits.
type Auditor struct {
	client *http.Client
	logger *zap.Logger
}

// NewAuditor creates an Auditor. A nil client uses a 5s-timeout default.
func NewAuditor(client *http.Client, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{client: client, logger: logger}
}

// Audit checks robots.txt for AI-bot blocks and, when html is given, the
// page's JSON-LD coverage and reading grade.
func (a *Auditor) Audit(ctx context.Context, siteURL, html string) *Report {
	r := &Report{AIFriendly: true, SchemaFound: []string{}, Warnings: []string{}}

	robots, found := FetchRobots(ctx, a.client, siteURL)
	r.RobotsStatus = CheckAIBots(robots, found)
	if n := BlockedCount(r.RobotsStatus); n > 0 {
		r.AIFriendly = false
		r.Warnings = append(r.Warnings, fmt.Sprintf("Blocking %d major AI crawlers (robots.txt).", n))
	}

	if html == "" {
		return r
	}

	if types := SchemaTypes(html); len(types) > 0 {
		r.SchemaFound = types
	} else {
		r.Warnings = append(r.Warnings, "No Structured Data (JSON-LD) found. Hard for AI to parse entities.")
	}

	r.ReadabilityScore = Readability(head(VisibleText(html), readabilitySampleChars))
	if r.ReadabilityScore > complexGrade {
		r.Warnings = append(r.Warnings, fmt.Sprintf("Content is very complex (Grade %.1f). Simplify for better AI digestion.", r.ReadabilityScore))
	}

	a.logger.Debug("site audit complete",
		zap.String("url", siteURL),
		zap.Bool("robots_found", found),
		zap.Int("schema_types", len(r.SchemaFound)),
		zap.Float64("grade", r.ReadabilityScore))
	return r
}

// VisibleText strips tags, scripts and styles and collapses whitespace.
func VisibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// head returns the first n characters of s, never splitting a rune.
func head(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
