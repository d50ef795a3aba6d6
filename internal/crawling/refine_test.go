package crawling

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawLinks = []NavLink{
	{Label: "Learn more", URL: "https://acme.com/pricing", Category: CategoryOther},
	{Label: "about us", URL: "https://acme.com/about", Category: CategoryCompany},
}

func TestRefineLinks_Success(t *testing.T) {
	fake := llmtest.New().On("UX Information Architect", "```json\n"+`[
		{"label": "pricing", "url": "https://acme.com/pricing", "category": "offerings"},
		{"label": "About  Us", "url": "https://acme.com/about", "category": "Company"},
		{"label": "Careers", "url": "https://acme.com/jobs", "category": "Jobs"},
		{"label": "", "url": "https://acme.com/x", "category": "Company"}
	]`+"\n```")

	got, err := RefineLinks(context.Background(), fake, rawLinks)
	require.NoError(t, err)
	assert.Equal(t, []NavLink{
		{Label: "Pricing", URL: "https://acme.com/pricing", Category: CategoryOfferings},
		{Label: "About Us", URL: "https://acme.com/about", Category: CategoryCompany},
		{Label: "Careers", URL: "https://acme.com/jobs", Category: CategoryOther},
	}, got)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.TierFlash, calls[0].Tier)
	assert.Contains(t, calls[0].Prompt, "https://acme.com/pricing")
}

func TestRefineLinks_FallsBack(t *testing.T) {
	tests := []struct {
		name   string
		client llm.Client
	}{
		{"no client", nil},
		{"llm error", llmtest.New().OnError("UX", errors.New("quota"))},
		{"object instead of list", llmtest.New().On("UX", `{"error": "nope"}`)},
		{"empty list", llmtest.New().On("UX", `[]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RefineLinks(context.Background(), tt.client, rawLinks)
			var refineErr *RefineError
			assert.ErrorAs(t, err, &refineErr)
			assert.Equal(t, rawLinks, got)
		})
	}
}

func TestRefineLinks_Empty(t *testing.T) {
	got, err := RefineLinks(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
