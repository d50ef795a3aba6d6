package aeo

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/brandos/internal/prompts"
)

// Citation statuses for page evaluation.
const (
	CitationNone   = "None"
	CitationDomain = "Domain Only"
	CitationExact  = "Exact URL"
)

const (
	citationExactScore  = 40
	citationDomainScore = 20
	brandMentionScore   = 10
	contextScore        = 30
	maxRelevanceScore   = 40
	positiveScore       = 20
	neutralScore        = 10
	snippetChars        = 200
	minGenericAnswer    = 100
)

var (
	urlPattern    = regexp.MustCompile(`https?://[a-zA-Z0-9.-]+(?:/[a-zA-Z0-9._~:/?#\[\]@!$&'()*+,;=%-]*)?`)
	mdLinkPattern = regexp.MustCompile(`\[.*?\]\((https?://.*?)\)`)

	pricingTerms  = []string{"free", "plan", "$", "subscription", "enterprise", "pricing", "cost"}
	aboutTerms    = []string{"founded", "mission", "ceo", "company", "based in", "history"}
	negativeTerms = []string{"avoid", "bad", "poor", "error", "issue", "scam", "expensive"}
	positiveTerms = []string{"good", "great", "excellent", "best", "reliable", "leader"}
)

// PageScores breaks a page evaluation into its components.
type PageScores struct {
	Total     int `json:"total"`
	Citation  int `json:"citation"`
	Relevance int `json:"relevance"`
	Sentiment int `json:"sentiment"`
}

// PageEvaluation is how one page of the brand fares in an engine's answer.
type PageEvaluation struct {
	URL             string     `json:"url"`
	PageType        string     `json:"page_type"`
	Intent          string     `json:"intent"`
	Query           string     `json:"query_used"`
	ResponseSnippet string     `json:"response_snippet"`
	Scores          PageScores `json:"scores"`
	CitationStatus  string     `json:"citation_status"`
	FoundCitations  []string   `json:"found_citations"`
}

// pageQuery maps a page type to its prompt key and intent.
func pageQuery(pageType string) (string, string) {
	switch strings.ToLower(pageType) {
	case "pricing":
		return "page-query-pricing", IntentTransactional
	case "about", "company":
		return "page-query-about", IntentInformational
	case "contact", "support":
		return "page-query-contact", IntentTransactional
	case "blog", "resource":
		return "page-query-blog", IntentInformational
	default:
		return "page-query-default", IntentGeneral
	}
}

// EvaluatePageIndex asks engine the native question for pageType and scores
// the answer out of 100: citation of pageURL, relevance and sentiment.
func EvaluatePageIndex(ctx context.Context, engine Engine, brandName, pageURL, pageType string) (*PageEvaluation, error) {
	key, intent := pageQuery(pageType)
	query, err := prompts.Render(prompts.AEO, key, map[string]string{"Brand": brandName})
	if err != nil {
		return nil, err
	}

	answer, err := engine.Query(ctx, query)
	if err != nil {
		return nil, &EngineError{Engine: engine.Name(), Cause: err}
	}

	eval := &PageEvaluation{
		URL:            pageURL,
		PageType:       pageType,
		Intent:         intent,
		Query:          query,
		CitationStatus: CitationNone,
		FoundCitations: []string{},
	}

	found := urlPattern.FindAllString(answer, -1)
	for _, m := range mdLinkPattern.FindAllStringSubmatch(answer, -1) {
		found = append(found, m[1])
	}
	target := cleanURL(pageURL)
	targetDomain, _, _ := strings.Cut(target, "/")
	for _, link := range found {
		eval.FoundCitations = append(eval.FoundCitations, strings.ToLower(link))
	}
	for _, link := range found {
		c := cleanURL(link)
		if strings.Contains(c, target) || strings.Contains(target, c) {
			eval.CitationStatus = CitationExact
			eval.Scores.Citation = citationExactScore
			break
		}
		if strings.Contains(c, targetDomain) && eval.Scores.Citation < citationDomainScore {
			eval.CitationStatus = CitationDomain
			eval.Scores.Citation = citationDomainScore
		}
	}

	lower := strings.ToLower(answer)
	if brandName != "" && strings.Contains(lower, strings.ToLower(brandName)) {
		eval.Scores.Relevance += brandMentionScore
	}
	switch strings.ToLower(pageType) {
	case "pricing":
		if containsAny(lower, pricingTerms) {
			eval.Scores.Relevance += contextScore
		}
	case "about":
		if containsAny(lower, aboutTerms) {
			eval.Scores.Relevance += contextScore
		}
	default:
		if len(answer) > minGenericAnswer {
			eval.Scores.Relevance += contextScore
		}
	}
	eval.Scores.Relevance = min(eval.Scores.Relevance, maxRelevanceScore)

	switch {
	case containsAny(lower, negativeTerms):
		eval.Scores.Sentiment = 0
	case containsAny(lower, positiveTerms):
		eval.Scores.Sentiment = positiveScore
	default:
		eval.Scores.Sentiment = neutralScore
	}

	eval.Scores.Total = eval.Scores.Citation + eval.Scores.Relevance + eval.Scores.Sentiment
	eval.ResponseSnippet = truncate(answer, snippetChars) + "..."
	return eval, nil
}

func cleanURL(u string) string {
	u = strings.ToLower(u)
	u = strings.NewReplacer("https://", "", "http://", "", "www.", "").Replace(u)
	return strings.TrimRight(u, "/")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
