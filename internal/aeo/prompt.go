package aeo

import (
	"fmt"
	"strings"

	"github.com/jonathan/brandos/internal/prompts"
)

// Intents.
const (
	IntentInformational = "Informational"
	IntentCommercial    = "Commercial"
	IntentTransactional = "Transactional"
	IntentGeneral       = "General"
	IntentRiskCost      = "Risk: Cost"
	IntentRiskSecurity  = "Risk: Security"
	IntentRiskAvoidance = "Risk: Avoidance"

	// intentRiskBucket groups the risk intents in the leaderboard matrix.
	intentRiskBucket = "Risk"
	riskIntentPrefix = "Risk:"
)

// Prompt defaults.
const (
	DefaultRegion   = "United States (US)"
	DefaultAudience = "General Audience"
)

// RiskIntents are appended when risk analysis is requested.
var RiskIntents = []string{IntentRiskCost, IntentRiskSecurity, IntentRiskAvoidance}

// IsRisk reports whether intent is one of the risk intents.
func IsRisk(intent string) bool {
	return strings.HasPrefix(intent, riskIntentPrefix)
}

var intentKeys = map[string]string{
	IntentInformational: "intent-informational",
	IntentCommercial:    "intent-commercial",
	IntentTransactional: "intent-transactional",
	IntentRiskCost:      "intent-risk-cost",
	IntentRiskSecurity:  "intent-risk-security",
	IntentRiskAvoidance: "intent-risk-avoidance",
}

// BuildPrompt renders the visibility prompt for one intent. Unknown intents
// use the General template.
func BuildPrompt(intent, keyword, audience, region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}
	if audience == "" {
		audience = DefaultAudience
	}
	geo, err := prompts.Render(prompts.AEO, "geo-context", map[string]string{"Region": region})
	if err != nil {
		return "", fmt.Errorf("failed to build geo context: %w", err)
	}
	instruction, err := prompts.Render(prompts.AEO, "ranking-instruction", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build ranking instruction: %w", err)
	}

	key, ok := intentKeys[intent]
	if !ok {
		key = "intent-general"
	}
	return prompts.Render(prompts.AEO, key, map[string]string{
		"Geo":         geo,
		"Keyword":     keyword,
		"Audience":    audience,
		"Instruction": instruction,
	})
}
