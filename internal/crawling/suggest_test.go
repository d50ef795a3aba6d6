package crawling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestCommonURLs(t *testing.T) {
	got := SuggestCommonURLs("https://www.acme.com/home?x=1")
	require.Len(t, got, 10)
	assert.Equal(t, NavLink{Label: "About Us", URL: "https://www.acme.com/about", Category: CategoryStandard}, got[0])
	assert.Equal(t, "https://www.acme.com/case-studies", got[9].URL)
	for _, l := range got {
		assert.Equal(t, CategoryStandard, l.Category)
	}
}

func TestSuggestCommonURLs_Invalid(t *testing.T) {
	assert.Nil(t, SuggestCommonURLs(""))
	assert.Nil(t, SuggestCommonURLs("not a url"))
}

func TestMergeSuggestions(t *testing.T) {
	scanned := []NavLink{
		{Label: "About", URL: "https://acme.com/about/", Category: CategoryCompany},
		{Label: "Blog", URL: "https://acme.com/journal", Category: CategoryResources},
	}
	merged := MergeSuggestions(scanned, SuggestCommonURLs("https://acme.com"))

	urls := make([]string, 0, len(merged))
	for _, l := range merged {
		urls = append(urls, l.URL)
	}
	assert.Equal(t, scanned, merged[:2])
	assert.NotContains(t, urls, "https://acme.com/about")
	assert.NotContains(t, urls, "https://acme.com/blog")
	assert.Contains(t, urls, "https://acme.com/pricing")
	// Same label twice: only the first standard suggestion survives.
	assert.Contains(t, urls, "https://acme.com/features")
	assert.NotContains(t, urls, "https://acme.com/products")
}
