package content

import (
	"context"
	"strings"

	"github.com/jonathan/brandos/internal/design"
	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/types"
)

// Asset types.
const (
	AssetEmail        = "Email"
	AssetSocialPost   = "Social Post"
	AssetBlogOutline  = "Blog Outline"
	AssetAdCopy       = "Ad Copy"
	AssetLandingHero  = "Landing Page Hero"
	AssetCaseStudy    = "Case Study"
	AssetPressRelease = "Press Release"
)

// maxAssetSource bounds the site text sent with an asset request.
const maxAssetSource = 30000

var assetStructures = map[string]string{
	AssetEmail:        "STRUCTURE: Subject line, preview text, then Observation -> Problem -> Solution -> Soft Ask. Under 200 words.",
	AssetSocialPost:   "STRUCTURE: A pattern-interrupt first line, three short value lines, one call to action, up to five hashtags.",
	AssetBlogOutline:  "STRUCTURE: Working title, meta description, H2/H3 outline with one-line notes per section, closing call to action.",
	AssetAdCopy:       "STRUCTURE: Three variants, each with a headline under 30 characters, a description under 90 characters and a call to action.",
	AssetLandingHero:  "STRUCTURE: Headline (promise), subheadline (how), three benefit bullets, primary and secondary call to action labels.",
	AssetCaseStudy:    "STRUCTURE: The pain, the guide (us), the plan, the measurable outcome.",
	AssetPressRelease: "STRUCTURE: Headline, dateline, the news angle, a quote, the impact, boilerplate.",
}

var funnelGuidance = map[string]string{
	"Awareness":     "Educate and inspire. Focus on the problem and the possibility; do not sell hard. Low-friction call to action.",
	"Consideration": "Prove and compare. Use social proof and explain how it works and why us. Medium-friction call to action.",
	"Decision":      "Convert. Address objections, focus on value and ask for the sale. High-friction call to action.",
	"Retention":     "Deepen the relationship. Highlight advanced use, community and loyalty. Call to action toward expansion or referral.",
}

// AssetTypes returns the supported asset types in display order.
func AssetTypes() []string {
	return []string{AssetEmail, AssetSocialPost, AssetBlogOutline, AssetAdCopy, AssetLandingHero, AssetCaseStudy, AssetPressRelease}
}

// AssetInput describes one campaign asset to write.
type AssetInput struct {
	Campaign    string
	AssetType   string
	Theme       string
	FunnelStage string
	Persona     *types.Persona
	Keywords    []string
	Source      string
}

// GenerateAsset writes a campaign asset in the brand's voice with its
// products, persona, funnel stage, keywords and design system in context.
func GenerateAsset(ctx context.Context, client llm.Client, brand *types.BrandReport, in AssetInput) (string, error) {
	if strings.TrimSpace(in.Theme) == "" {
		return "", ErrEmptyContent
	}

	structure := assetStructures[in.AssetType]
	if structure == "" {
		structure = "STRUCTURE: Choose the structure that best fits a " + in.AssetType + "."
	}
	if src := strings.TrimSpace(in.Source); src != "" {
		if r := []rune(src); len(r) > maxAssetSource {
			src = string(r[:maxAssetSource])
		}
		structure += "\n\nSOURCE MATERIAL:\n" + src
	}

	funnel := notAvailable
	if in.FunnelStage != "" {
		funnel = in.FunnelStage
		if g, ok := funnelGuidance[in.FunnelStage]; ok {
			funnel += " - " + g
		}
	}

	data := map[string]string{
		"AssetType":   orDefault(in.AssetType, AssetSocialPost),
		"Campaign":    orDefault(in.Campaign, "Untitled Campaign"),
		"Theme":       in.Theme,
		"FunnelStage": funnel,
		"Voice":       defaultVoice,
		"Archetype":   notAvailable,
		"Products":    notAvailable,
		"Persona":     personaBlock(in.Persona),
		"Keywords":    joinHead(in.Keywords, len(in.Keywords)),
		"Structure":   structure,
		"Design":      "",
	}
	if brand != nil {
		a := brand.Profile.Analysis
		data["Voice"] = orDefault(a.BrandVoice, defaultVoice)
		data["Archetype"] = orDefault(a.BrandArchetype, notAvailable)
		products := brand.Knowledge.ProductNames()
		if len(products) == 0 {
			products = a.PrimaryProducts
		}
		data["Products"] = joinHead(products, len(products))
		if brand.Design != nil {
			data["Design"] = design.FormatContext(*brand.Design)
		}
	}

	prompt, err := prompts.Render(prompts.Content, "campaign-asset", data)
	if err != nil {
		return "", &GenerationError{Task: "asset", Message: "failed to build prompt", Cause: err}
	}
	out, err := client.GenerateContent(ctx, prompt, llm.TierPro, llm.WithTemperature(0.7))
	if err != nil {
		return "", &GenerationError{Task: "asset", Message: "failed to generate content from LLM", Cause: err}
	}
	return strings.TrimSpace(out), nil
}

func personaBlock(p *types.Persona) string {
	if p == nil {
		return "Target Audience: " + defaultAudience + "."
	}
	role := orDefault(p.Role, defaultAudience)
	if len(p.PainPoints) == 0 {
		return "Target Audience: " + role + ". (Infer pain points.)"
	}
	var b strings.Builder
	b.WriteString("Target Audience: " + role + ".\n")
	b.WriteString("- Pain Points: " + strings.Join(p.PainPoints, ", ") + ".\n")
	if p.BuyingTrigger != "" {
		b.WriteString("- Buying Trigger: " + p.BuyingTrigger + "\n")
	}
	if p.MarketingHook != "" {
		b.WriteString("- Marketing Hook: " + p.MarketingHook + "\n")
	}
	return strings.TrimSpace(b.String())
}
