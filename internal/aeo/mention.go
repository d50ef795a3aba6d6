package aeo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonathan/brandos/internal/llm"
)

// Sentiment labels assigned outside the engine's own answer.
const (
	SentimentNA       = "N/A"
	SentimentNeutral  = "Neutral"
	SentimentCritical = "CRITICAL WARNING"
	SentimentError    = "Error"
)

// Unranked is the display label for a brand absent from a ranking.
const Unranked = "Unranked"

// unrankedWeightRank stands in for the rank of a listed brand without a
// numeric position when computing weighted share of voice.
const unrankedWeightRank = 999

var descriptors = []string{
	"innovative", "reliable", "expensive", "cheap", "fast", "slow", "secure", "vulnerable",
	"popular", "niche", "complex", "easy", "powerful", "limited", "corporate", "startup-friendly",
	"enterprise", "leading", "trusted", "questionable", "seamless", "clunky", "robust", "outdated",
}

var criticalKeywords = []string{"scam", "fraud", "security breach", "unsafe", "avoid", "worst"}

// RankedItem is one entry of an engine's ranking. Rank 0 means the item was
// listed without a usable position.
type RankedItem struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Sentiment   string `json:"sentiment,omitempty"`
}

// Competitor is a non-brand entry found in a ranking.
type Competitor struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
}

// Mention is the analysis of one engine answer for one brand.
type Mention struct {
	Mentioned            bool         `json:"mentioned"`
	Sentiment            string       `json:"sentiment"`
	Rank                 int          `json:"rank,omitempty"`
	Snippet              string       `json:"snippet"`
	ShareOfVoice         float64      `json:"share_of_voice"`
	WeightedShareOfVoice float64      `json:"weighted_share_of_voice"`
	Competitors          []Competitor `json:"competitors_found"`
	Citations            []string     `json:"citations_found"`
	Adjectives           []string     `json:"extracted_adjectives"`
	TotalListItems       int          `json:"total_list_items"`
	Intent               string       `json:"intent,omitempty"`
}

// RankLabel renders the rank for display.
func (m *Mention) RankLabel() string {
	switch {
	case !m.Mentioned:
		return Unranked
	case m.Rank == 0:
		return "Listed"
	default:
		return "#" + strconv.Itoa(m.Rank)
	}
}

// AnalyzeMention parses a raw engine answer and measures brand's presence in
// it. JSON answers ({ranking, sources} or a bare array) are read with gjson.
// JSON that yields no ranked objects (citation markers like [1], {} or [])
// goes through the numbered-list fallback like plain text does.
func AnalyzeMention(raw, brand string, risk bool) *Mention {
	var doc gjson.Result
	if data, err := llm.ExtractJSON(raw); err == nil {
		doc = gjson.ParseBytes(data)
		if items, sources := parseRanking(doc); len(items) > 0 {
			return scoreMention(items, sources, brand, risk)
		}
	}

	if items := RankingsFromText(raw); len(items) > 0 {
		m := scoreMention(items, nil, brand, risk)
		m.Snippet = "Source content was unstructured text. Parsed via Regex fallback."
		return m
	}

	// An explicit, empty ranking is a real answer: nobody was listed.
	if doc.IsObject() && doc.Get("ranking").IsArray() {
		_, sources := parseRanking(doc)
		return scoreMention(nil, sources, brand, risk)
	}

	return &Mention{
		Sentiment:   SentimentError,
		Snippet:     "Failed to parse JSON and Regex Fallback failed.",
		Competitors: []Competitor{},
		Citations:   []string{},
		Adjectives:  []string{},
	}
}

func parseRanking(doc gjson.Result) (items []RankedItem, sources []string) {
	var list []gjson.Result
	switch {
	case doc.IsArray():
		list = doc.Array()
	case doc.IsObject():
		list = doc.Get("ranking").Array()
		for _, s := range doc.Get("sources").Array() {
			if src := strings.TrimSpace(s.String()); src != "" {
				sources = append(sources, src)
			}
		}
	}

	for idx, it := range list {
		if !it.IsObject() {
			continue
		}
		name := it.Get("name").String()
		if !it.Get("name").Exists() {
			name = "Unknown"
		}
		items = append(items, RankedItem{
			Rank:        rankOf(it.Get("rank"), idx+1),
			Name:        name,
			Description: it.Get("description").String(),
			Sentiment:   it.Get("sentiment").String(),
		})
	}
	return items, sources
}

// rankOf reads a rank that may be a number or a numeric string. Missing
// ranks fall back to the list position; anything else is 0 (listed).
func rankOf(v gjson.Result, position int) int {
	if !v.Exists() {
		return position
	}
	switch v.Type {
	case gjson.Number:
		return int(v.Int())
	case gjson.String:
		if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil {
			return n
		}
	}
	return 0
}

func scoreMention(items []RankedItem, sources []string, brand string, risk bool) *Mention {
	m := &Mention{
		Sentiment:      SentimentNA,
		Snippet:        "No response",
		Competitors:    []Competitor{},
		Citations:      append([]string{}, sources...),
		Adjectives:     []string{},
		TotalListItems: len(items),
	}
	brandLower := strings.ToLower(brand)
	brandRank := unrankedWeightRank

	for _, it := range items {
		if brandLower != "" && strings.Contains(strings.ToLower(it.Name), brandLower) {
			m.Mentioned = true
			m.Rank = it.Rank
			if it.Rank > 0 {
				brandRank = it.Rank
			}
			m.Snippet = fmt.Sprintf("**#%s %s** - %s", rankText(it.Rank), it.Name, it.Description)
			m.Sentiment = it.Sentiment
			if m.Sentiment == "" {
				m.Sentiment = SentimentNeutral
			}
			desc := strings.ToLower(it.Description)
			for _, d := range descriptors {
				if strings.Contains(desc, d) {
					m.Adjectives = append(m.Adjectives, d)
				}
			}
			continue
		}
		m.Competitors = append(m.Competitors, Competitor{Rank: it.Rank, Name: it.Name})
	}

	if !m.Mentioned {
		m.Rank = 0
	} else {
		if n := len(items); n > 0 {
			m.ShareOfVoice = round1(100 / float64(n))
		}
		if risk {
			snippet := strings.ToLower(m.Snippet)
			for _, k := range criticalKeywords {
				if strings.Contains(snippet, k) {
					m.Sentiment = SentimentCritical
					break
				}
			}
		}
	}

	if n := len(items); n > 0 && m.Mentioned {
		total := 0.0
		for i := 1; i <= n; i++ {
			total += 1 / float64(i)
		}
		m.WeightedShareOfVoice = round1((1 / float64(brandRank)) / total * 100)
	}
	return m
}

func rankText(rank int) string {
	if rank == 0 {
		return "-"
	}
	return strconv.Itoa(rank)
}

var numberedLine = regexp.MustCompile(`^\s*(\d+)[.)]\s*\**([A-Za-z0-9 .&+]+?)\**(?::|-|$)`)

// RankingsFromText recovers a ranking from a numbered list ("1. Brand - why",
// "2) **Brand**: why"). Ranks of 20 or more are treated as noise.
func RankingsFromText(text string) []RankedItem {
	var items []RankedItem
	for _, line := range strings.Split(text, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rank, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		name := strings.TrimSpace(m[2])
		if before, _, found := strings.Cut(name, " - "); found {
			name = before
		}
		if len(name) <= 1 || rank >= 20 {
			continue
		}
		parts := strings.Split(line, name)
		items = append(items, RankedItem{
			Rank:        rank,
			Name:        name,
			Description: strings.Trim(parts[len(parts)-1], "*: -"),
			Sentiment:   SentimentNeutral,
		})
	}
	return items
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
