package aeo

import (
	"sort"
	"strings"

	"github.com/jonathan/brandos/internal/brand"
)

// Report limits.
const (
	MaxLeaderboard     = 15
	MaxStrengthURLs    = 15
	MaxOpportunityURLs = 5
	// unrankedAverageRank is counted for a listed brand without a position.
	unrankedAverageRank = 10
	// listedWeight is the impact weight of a listed brand without a position.
	listedWeight = 0.5
	// defaultUserLabel names the brand's own entry when no brand name is set.
	defaultUserLabel = "My Brand"
)

var matrixIntents = []string{IntentInformational, IntentCommercial, IntentTransactional, IntentGeneral, intentRiskBucket}

// LeaderboardEntry is one brand's aggregated visibility.
type LeaderboardEntry struct {
	Name                    string  `json:"name"`
	Mentions                int     `json:"mentions"`
	ShareOfVoice            float64 `json:"share_of_voice"`
	AvgShelfShare           float64 `json:"avg_shelf_share"`
	AvgRank                 float64 `json:"avg_rank"`
	ImpactScore             float64 `json:"impact_score"`
	DominantSource          string  `json:"dominant_source"`
	InfoScore               float64 `json:"info_score"`
	CommScore               float64 `json:"comm_score"`
	TransScore              float64 `json:"trans_score"`
	GeneralScore            float64 `json:"general_score"`
	RiskScore               float64 `json:"risk_score"`
	CompetitorRelianceScore float64 `json:"competitor_reliance_score"`
	RankChange              int     `json:"rank_change"`
	NewEntrant              bool    `json:"new_entrant,omitempty"`
}

// SourceGap is a domain that cites the market leaders more than the brand.
type SourceGap struct {
	Domain      string `json:"domain"`
	LeaderCount int    `json:"leader_count"`
	UserCount   int    `json:"user_count"`
}

// SourceStrength is a domain that already cites the brand.
type SourceStrength struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// CompetitiveReport is the aggregate of a visibility report.
type CompetitiveReport struct {
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	StrengthURLs    []SourceStrength   `json:"strength_urls"`
	OpportunityURLs []SourceGap        `json:"opportunity_urls"`
	TotalQueries    int                `json:"total_queries"`
	StabilityScore  float64            `json:"stability_score"`
}

// BrandEntry returns the leaderboard entry whose name contains brandName.
func (r *CompetitiveReport) BrandEntry(brandName string) (LeaderboardEntry, int, bool) {
	needle := strings.ToLower(brandName)
	if needle == "" {
		return LeaderboardEntry{}, 0, false
	}
	for i, e := range r.Leaderboard {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			return e, i + 1, true
		}
	}
	return LeaderboardEntry{}, 0, false
}

type brandStats struct {
	mentions      int
	uniqueQueries int
	weighted      float64
	shelfShare    float64
	rankSum       int
	sources       *tally
	intents       map[string]int
}

type stability struct {
	runs     int
	mentions int
}

// RootDomain returns the registrable domain of a citation, or "" when the
// citation is not a URL or host.
func RootDomain(citation string) string {
	return brand.Domain(citation)
}

// AnalyzeCompetitors folds every successful answer into a leaderboard with
// per-intent scores, citation intelligence, stability and rank movement
// against previous.
func AnalyzeCompetitors(report *VisibilityReport, brandName string, previous []LeaderboardEntry) *CompetitiveReport {
	brandLower := strings.ToLower(brandName)
	userLabel := brandName
	if userLabel == "" {
		userLabel = defaultUserLabel
	}

	var (
		order         []string
		board         = map[string]*brandStats{}
		leaderSources = newTally()
		userSources   = newTally()
		stabilityKeys []string
		stab          = map[string]*stability{}
		intentTotals  = map[string]int{}
		totalQueries  int
	)

	var engines []EngineResult
	if report != nil {
		engines = report.Engines
	}
	for _, eng := range engines {
		if eng.Status != StatusActive {
			continue
		}
		for _, item := range eng.Data {
			if item.Status != StatusSuccess || item.Analysis == nil {
				continue
			}
			m := item.Analysis
			totalQueries++

			bucket := item.Intent
			if IsRisk(bucket) {
				bucket = intentRiskBucket
			}
			if !isMatrixIntent(bucket) {
				bucket = IntentGeneral
			}
			intentTotals[bucket]++

			key := item.Keyword + "_" + item.Intent
			if _, ok := stab[key]; !ok {
				stab[key] = &stability{}
				stabilityKeys = append(stabilityKeys, key)
			}
			stab[key].runs++
			if m.Mentioned {
				stab[key].mentions++
			}

			var queryDomains []string
			for _, c := range m.Citations {
				if d := RootDomain(c); d != "" {
					queryDomains = append(queryDomains, d)
				}
			}
			if m.Mentioned {
				for _, d := range queryDomains {
					userSources.add(d, 1)
				}
			}

			entries := append([]Competitor{}, m.Competitors...)
			if m.Mentioned {
				entries = append(entries, Competitor{Name: userLabel, Rank: m.Rank})
			}

			winner := ""
			seen := map[string]bool{}
			for _, c := range entries {
				name := canonicalName(c.Name, order)
				if c.Rank == 1 {
					winner = name
				}
				st, ok := board[name]
				if !ok {
					st = &brandStats{sources: newTally(), intents: map[string]int{}}
					board[name] = st
					order = append(order, name)
				}
				st.mentions++
				nameLower := strings.ToLower(name)

				if !seen[name] {
					st.uniqueQueries++
					count := true
					if bucket == intentRiskBucket && brandLower != "" && strings.Contains(nameLower, brandLower) {
						s := strings.ToLower(m.Sentiment)
						if strings.Contains(s, "safe") || strings.Contains(s, "positive") || strings.Contains(s, "neutral") {
							count = false
						}
					}
					if count {
						st.intents[bucket]++
					}
					seen[name] = true
				}

				for _, d := range queryDomains {
					dl := strings.ToLower(d)
					if brandLower != "" && strings.Contains(dl, brandLower) && strings.Contains(nameLower, brandLower) {
						continue
					}
					if strings.Contains(dl, nameLower) {
						continue
					}
					st.sources.add(d, 1)
				}

				if c.Rank > 0 {
					st.weighted += 1 / float64(c.Rank)
					st.rankSum += c.Rank
				} else {
					st.weighted += listedWeight
					st.rankSum += unrankedAverageRank
				}
				if m.TotalListItems > 0 {
					st.shelfShare += 100 / float64(m.TotalListItems)
				}
			}

			if winner != "" && strings.ToLower(winner) != brandLower {
				known := make([]string, 0, len(order)+1)
				for _, n := range order {
					known = append(known, strings.ToLower(n))
				}
				if brandLower != "" {
					known = append(known, brandLower)
				}
				for _, d := range queryDomains {
					if !containsAny(strings.ToLower(d), known) {
						leaderSources.add(d, 1)
					}
				}
			}
		}
	}

	out := &CompetitiveReport{
		Leaderboard:     []LeaderboardEntry{},
		StrengthURLs:    []SourceStrength{},
		OpportunityURLs: []SourceGap{},
		TotalQueries:    totalQueries,
	}

	if len(stabilityKeys) > 0 {
		total := 0.0
		for _, k := range stabilityKeys {
			s := stab[k]
			total += float64(s.mentions) / float64(s.runs) * 100
		}
		out.StabilityScore = round1(total / float64(len(stabilityKeys)))
	}

	for _, d := range leaderSources.keys {
		lc := leaderSources.counts[d]
		uc := userSources.counts[d]
		if uc < lc {
			out.OpportunityURLs = append(out.OpportunityURLs, SourceGap{Domain: d, LeaderCount: lc, UserCount: uc})
		}
	}
	sort.SliceStable(out.OpportunityURLs, func(i, j int) bool {
		return out.OpportunityURLs[i].LeaderCount > out.OpportunityURLs[j].LeaderCount
	})
	out.OpportunityURLs = headGaps(out.OpportunityURLs, MaxOpportunityURLs)

	for _, d := range userSources.sorted() {
		if len(out.StrengthURLs) == MaxStrengthURLs {
			break
		}
		out.StrengthURLs = append(out.StrengthURLs, SourceStrength{Domain: d, Count: userSources.counts[d]})
	}

	if totalQueries == 0 {
		return out
	}

	known := make([]string, 0, len(order)+1)
	for _, n := range order {
		known = append(known, strings.ToLower(n))
	}
	if brandLower != "" {
		known = append(known, brandLower)
	}

	for _, name := range order {
		st := board[name]
		e := LeaderboardEntry{
			Name:           name,
			Mentions:       st.mentions,
			ImpactScore:    round1(st.weighted / float64(totalQueries) * 100),
			ShareOfVoice:   round1(float64(st.uniqueQueries) / float64(totalQueries) * 100),
			DominantSource: "N/A",
			InfoScore:      intentScore(st, intentTotals, IntentInformational),
			CommScore:      intentScore(st, intentTotals, IntentCommercial),
			TransScore:     intentScore(st, intentTotals, IntentTransactional),
			GeneralScore:   intentScore(st, intentTotals, IntentGeneral),
			RiskScore:      intentScore(st, intentTotals, intentRiskBucket),
		}
		if st.mentions > 0 {
			e.AvgShelfShare = round1(st.shelfShare / float64(st.mentions))
			e.AvgRank = round1(float64(st.rankSum) / float64(st.mentions))
		}
		if st.sources.len() > 0 {
			e.DominantSource = st.sources.sorted()[0]
		}

		competitorSources, totalSources := 0, 0
		for _, d := range st.sources.keys {
			n := st.sources.counts[d]
			totalSources += n
			if containsAny(strings.ToLower(d), known) {
				competitorSources += n
			}
		}
		if totalSources > 0 {
			e.CompetitorRelianceScore = round1(float64(competitorSources) / float64(totalSources) * 100)
		}
		out.Leaderboard = append(out.Leaderboard, e)
	}

	sort.SliceStable(out.Leaderboard, func(i, j int) bool {
		return out.Leaderboard[i].ImpactScore > out.Leaderboard[j].ImpactScore
	})

	if len(previous) > 0 {
		prevRank := make(map[string]int, len(previous))
		for i, p := range previous {
			if _, ok := prevRank[p.Name]; !ok {
				prevRank[p.Name] = i + 1
			}
		}
		for i := range out.Leaderboard {
			if pr, ok := prevRank[out.Leaderboard[i].Name]; ok {
				out.Leaderboard[i].RankChange = pr - (i + 1)
			} else {
				out.Leaderboard[i].NewEntrant = true
			}
		}
	}

	if len(out.Leaderboard) > MaxLeaderboard {
		out.Leaderboard = out.Leaderboard[:MaxLeaderboard]
	}
	return out
}

func intentScore(st *brandStats, totals map[string]int, intent string) float64 {
	if totals[intent] == 0 {
		return 0
	}
	return round1(float64(st.intents[intent]) / float64(totals[intent]) * 100)
}

func isMatrixIntent(intent string) bool {
	for _, i := range matrixIntents {
		if i == intent {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func headGaps(g []SourceGap, n int) []SourceGap {
	if len(g) > n {
		return g[:n]
	}
	return g
}
