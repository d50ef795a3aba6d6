package crawling

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const navHTML = `<html><body>
<header><nav>
  <a href="/about">About Us</a>
  <a href="/pricing">Pricing</a>
  <a href="/login">Log in</a>
  <a href="/blog">Blog</a>
  <a href="/shop">Shop</a>
  <a href="https://twitter.com/acme">Twitter</a>
</nav></header>
<main>
  <a href="/products/analytics/v2">Analytics</a>
  <a href="/random">Random</a>
  <a href="/about">About again</a>
  <a href="mailto:hi@acme.com">Mail</a>
  <a href="/team">   </a>
  <a href="https://acme.com">Home</a>
  <a href="https://docs.acme.com/guide">Docs</a>
</main>
</body></html>`

func TestExtractNavLinks_ScoringAndOrder(t *testing.T) {
	links, err := ExtractNavLinks("https://acme.com", navHTML)
	require.NoError(t, err)

	want := []NavLink{
		{Label: "About Us", URL: "https://acme.com/about", Category: CategoryCompany},
		{Label: "Pricing", URL: "https://acme.com/pricing", Category: CategoryOfferings},
		{Label: "Blog", URL: "https://acme.com/blog", Category: CategoryResources},
		{Label: "Analytics", URL: "https://acme.com/products/analytics/v2", Category: CategoryOfferings},
		{Label: "Docs", URL: "https://docs.acme.com/guide", Category: CategoryResources},
		{Label: "Shop", URL: "https://acme.com/shop", Category: CategoryOther},
	}
	assert.Equal(t, want, links)
}

func TestExtractNavLinks_LongURLPenalty(t *testing.T) {
	long := "/about-" + strings.Repeat("x", 60)
	html := fmt.Sprintf(`<nav><a href="%s">Story</a><a href="/careers">Careers</a></nav>`, long)

	links, err := ExtractNavLinks("https://acme.com", html)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "Careers", links[0].Label)
	assert.Equal(t, "Story", links[1].Label)
}

func TestExtractNavLinks_SkipsLongLabels(t *testing.T) {
	html := `<nav><a href="/about">` + strings.Repeat("word ", 10) + `</a></nav>`
	links, err := ExtractNavLinks("https://acme.com", html)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestExtractNavLinks_CapsAtFifteen(t *testing.T) {
	var b strings.Builder
	b.WriteString("<nav>")
	for i := range 20 {
		fmt.Fprintf(&b, `<a href="/about-%d">About %d</a>`, i, i)
	}
	b.WriteString("</nav>")

	links, err := ExtractNavLinks("https://acme.com", b.String())
	require.NoError(t, err)
	require.Len(t, links, MaxNavLinks)
	assert.Equal(t, "About 0", links[0].Label)
	assert.Equal(t, "About 14", links[14].Label)
}

func TestExtractNavLinks_InvalidBase(t *testing.T) {
	_, err := ExtractNavLinks("acme.com", navHTML)
	var linkErr *LinkExtractionError
	require.ErrorAs(t, err, &linkErr)
	assert.Contains(t, err.Error(), "invalid base URL")
}
