package content

import (
	"context"
	"strings"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/types"
)

// MaxHooks is how many hooks ViralHooks asks for and returns.
const MaxHooks = 10

// ViralHooks generates headline hooks for topic, shaped by the persona's
// pain points and the brand voice.
func ViralHooks(ctx context.Context, client llm.Client, topic string, persona *types.Persona, voice string) ([]string, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyContent
	}

	personaContext := ""
	if persona != nil {
		role := orDefault(persona.Role, defaultAudience)
		pains := persona.PainPoints
		if len(pains) > 3 {
			pains = pains[:3]
		}
		personaContext = "Target Audience: " + role + "."
		if len(pains) > 0 {
			personaContext += "\n- Pain Points: " + strings.Join(pains, ", ") + "."
		}
	}
	voiceInstruction := ""
	if voice != "" {
		voiceInstruction = "Brand Voice: '" + voice + "'. Adapt hooks to this tone (professional voices avoid clickbait, edgy voices can be bold)."
	}

	prompt, err := prompts.Render(prompts.Content, "viral-hooks", map[string]string{
		"Topic":   topic,
		"Persona": personaContext,
		"Voice":   voiceInstruction,
	})
	if err != nil {
		return nil, &GenerationError{Task: "hooks", Message: "failed to build prompt", Cause: err}
	}
	resp, err := client.GenerateJSON(ctx, prompt, llm.TierFlash, llm.WithTemperature(0.9))
	if err != nil {
		return nil, &GenerationError{Task: "hooks", Message: "failed to generate content from LLM", Cause: err}
	}

	var hooks []string
	if err := llm.ParseJSON(resp, &hooks); err != nil {
		return nil, &GenerationError{Task: "hooks", Message: "expected a JSON list of hooks", Cause: err}
	}
	out := make([]string, 0, MaxHooks)
	for _, h := range hooks {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
		if len(out) == MaxHooks {
			break
		}
	}
	return out, nil
}
