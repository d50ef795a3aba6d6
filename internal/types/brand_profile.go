// Package types provides the brand data structures shared by the analysis
// pipeline, persistence, the API and the dashboard.
//
//nolint:revive // types is a standard Go package name pattern
package types

// VisualIdentity is the Stage 1 read of a brand's look and feel.
type VisualIdentity struct {
	PrimaryPalette []string `json:"primary_palette"`
	VisualVibe     string   `json:"visual_vibe"`
	ImageSentiment string   `json:"image_sentiment"`
}

// Analysis is the Brand DNA extracted in Stage 1.
type Analysis struct {
	BrandName             string         `json:"brand_name"`
	VisualIdentity        VisualIdentity `json:"visual_identity"`
	BrandVoice            string         `json:"brand_voice"`
	BrandArchetype        string         `json:"brand_archetype"`
	BrandEnemy            string         `json:"brand_enemy"`
	BrandNobleCause       string         `json:"brand_noble_cause"`
	BrandValues           []string       `json:"brand_values"`
	KeyValuePropositions  []string       `json:"key_value_propositions"`
	PrimaryProducts       []string       `json:"primary_products"`
	TargetAudienceSummary string         `json:"target_audience_summary"`
	VisualStyleInference  string         `json:"visual_style_inference"`

	// Filled from Stage 2.
	StrategicRecommendations []string `json:"strategic_recommendations,omitempty"`
}

// IsEmpty reports whether Stage 1 produced nothing usable.
func (a *Analysis) IsEmpty() bool {
	return a == nil || (a.BrandName == "" && a.BrandVoice == "" && a.BrandArchetype == "" &&
		len(a.BrandValues) == 0 && len(a.PrimaryProducts) == 0)
}

// Demographics of a persona.
type Demographics struct {
	AgeRange string `json:"age_range"`
	Location string `json:"location"`
}

// Persona is a Jobs-To-Be-Done buyer persona.
type Persona struct {
	Role               string       `json:"role"`
	Demographics       Demographics `json:"demographics"`
	JobsToBeDone       string       `json:"jobs_to_be_done"`
	PainPoints         []string     `json:"pain_points"`
	Goals              []string     `json:"goals"`
	BuyingTrigger      string       `json:"buying_trigger"`
	KeyObjection       string       `json:"key_objection"`
	PreferredChannels  []string     `json:"preferred_channels"`
	ContentPreferences []string     `json:"content_preferences"`
	MarketingHook      string       `json:"marketing_hook"`
}

// SWOT analysis.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// Strategy is the Stage 2 market strategy.
type Strategy struct {
	SWOT                      SWOT     `json:"swot_analysis"`
	MarketPositioning         string   `json:"market_positioning"`
	CompetitorDifferentiation []string `json:"competitor_differentiation"`
	StrategicMoats            []string `json:"strategic_moats"`
	StrategicLeaks            []string `json:"strategic_leaks"`
	TheWedge                  string   `json:"the_wedge"`
}

// ComparisonRow is one feature line of a competitor comparison.
type ComparisonRow struct {
	Feature    string `json:"feature"`
	MyBrand    string `json:"my_brand"`
	Competitor string `json:"competitor"`
}

// CompetitorAnalysis compares the brand with one competitor.
type CompetitorAnalysis struct {
	ComparisonTable     []ComparisonRow `json:"comparison_table"`
	CompetitorStrengths []string        `json:"competitor_strengths"`
	OurDifferentiators  []string        `json:"our_differentiators"`
}

// StrategyResult is the raw Stage 2 output.
type StrategyResult struct {
	Personas                 []Persona           `json:"personas"`
	Strategy                 Strategy            `json:"strategy"`
	StrategicRecommendations []string            `json:"strategic_recommendations"`
	CompetitorAnalysis       *CompetitorAnalysis `json:"competitor_analysis,omitempty"`

	// Some responses nest recommendations under a repeated analysis block.
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Recommendations returns the top-level recommendations, falling back to the
// nested analysis block.
func (s *StrategyResult) Recommendations() []string {
	if len(s.StrategicRecommendations) > 0 {
		return s.StrategicRecommendations
	}
	if s.Analysis != nil {
		return s.Analysis.StrategicRecommendations
	}
	return nil
}

// Profile is the unified brand profile produced by Stage 1 + Stage 2.
type Profile struct {
	Analysis           Analysis            `json:"analysis"`
	Personas           []Persona           `json:"personas"`
	Strategy           Strategy            `json:"strategy"`
	CompetitorAnalysis *CompetitorAnalysis `json:"competitor_analysis,omitempty"`
}

// HealthMetric is one scored dimension of brand health.
type HealthMetric struct {
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// HealthMetrics groups the four health dimensions.
type HealthMetrics struct {
	Clarity           HealthMetric `json:"clarity"`
	Consistency       HealthMetric `json:"consistency"`
	AudienceAlignment HealthMetric `json:"audience_alignment"`
	Uniqueness        HealthMetric `json:"uniqueness"`
}

// Health is the brand health score card.
type Health struct {
	OverallScore    float64       `json:"overall_health_score"`
	Metrics         HealthMetrics `json:"metrics"`
	Recommendations []string      `json:"strategic_recommendations"`
	Strengths       []string      `json:"strengths"`
}

// Product is a knowledge-graph offering.
type Product struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Benefits    []string `json:"benefits"`
}

// KnowledgeGraph lists a brand's offerings and vocabulary.
type KnowledgeGraph struct {
	Products    []Product `json:"products"`
	KeyTerms    []string  `json:"key_terms"`
	BrandColors []string  `json:"brand_colors"`
}

// ProductNames returns the product names in order.
func (k *KnowledgeGraph) ProductNames() []string {
	if k == nil {
		return nil
	}
	names := make([]string, 0, len(k.Products))
	for _, p := range k.Products {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names
}

// CounterMessage answers one competitor claim.
type CounterMessage struct {
	TheirClaim  string `json:"their_claim"`
	OurResponse string `json:"our_response"`
}

// BattleCard is competitor counter-messaging for sales.
type BattleCard struct {
	CompetitorName   string           `json:"competitor_name"`
	TheirPositioning string           `json:"their_positioning"`
	TheirWeaknesses  []string         `json:"their_weaknesses"`
	OurAdvantages    []string         `json:"our_advantages"`
	CounterMessages  []CounterMessage `json:"counter_messages"`
	Landmines        []string         `json:"landmines"`
}
