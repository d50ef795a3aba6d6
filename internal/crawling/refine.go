package crawling

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var refinedCategories = map[string]string{
	"company":   CategoryCompany,
	"offerings": CategoryOfferings,
	"resources": CategoryResources,
	"contact":   CategoryContact,
}

// RefineLinks asks the Flash tier to drop noise, rename vague labels and
// categorise the scanned links. It always returns a usable list: on any
// failure the raw links come back together with a *RefineError.
func RefineLinks(ctx context.Context, client llm.Client, links []NavLink) ([]NavLink, error) {
	if len(links) == 0 {
		return links, nil
	}
	if client == nil {
		return links, &RefineError{Message: "no LLM client configured"}
	}

	raw, err := json.Marshal(links)
	if err != nil {
		return links, &RefineError{Message: "failed to encode links", Cause: err}
	}
	prompt, err := prompts.Render(prompts.Crawling, "refine-links", map[string]string{"Links": string(raw)})
	if err != nil {
		return links, &RefineError{Message: "failed to build prompt", Cause: err}
	}

	resp, err := client.GenerateJSON(ctx, prompt, llm.TierFlash)
	if err != nil {
		return links, &RefineError{Message: "failed to generate content from LLM", Cause: err}
	}

	var refined []NavLink
	if err := llm.ParseJSON(resp, &refined); err != nil {
		return links, &RefineError{Message: "expected a JSON list of links", Cause: err}
	}

	title := cases.Title(language.English, cases.NoLower)
	out := make([]NavLink, 0, len(refined))
	for _, l := range refined {
		l.URL = strings.TrimSpace(l.URL)
		l.Label = strings.Join(strings.Fields(l.Label), " ")
		if l.URL == "" || l.Label == "" {
			continue
		}
		l.Label = title.String(l.Label)
		if c, ok := refinedCategories[strings.ToLower(strings.TrimSpace(l.Category))]; ok {
			l.Category = c
		} else {
			l.Category = CategoryOther
		}
		out = append(out, l)
		if len(out) == MaxNavLinks {
			break
		}
	}
	if len(out) == 0 {
		return links, &RefineError{Message: "model returned no usable links"}
	}
	return out, nil
}
