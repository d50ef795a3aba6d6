package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractImages_LogoAndHero(t *testing.T) {
	html := `<html><body>
	<header><img src="/img/brand.png" alt="Acme Logo"></header>
	<img src="/assets/logo-dark.svg">
	<section class="Hero-Section"><img src="/img/hero.jpg"></section>
	<div class="top-banner"><img src="https://cdn.acme.com/banner.webp"></div>
	<div class="hero"><img src="/img/hero.jpg"></div>
	<div class="promo-banner"></div>
	</body></html>`

	got := ExtractImages(html, "https://acme.com/home")
	assert.Equal(t, "https://acme.com/img/brand.png", got.Logo)
	assert.Equal(t, []string{"https://acme.com/img/hero.jpg", "https://cdn.acme.com/banner.webp"}, got.HeroImages)
}

func TestExtractImages_LogoBySrc(t *testing.T) {
	got := ExtractImages(`<img src="/static/logo.png" alt="Acme">`, "https://acme.com")
	assert.Equal(t, "https://acme.com/static/logo.png", got.Logo)
}

func TestExtractImages_Fallback(t *testing.T) {
	html := `
	<img src="/a.jpg"><img src="/icon-x.png"><img src="/b.gif"><img src="/c.svg">
	<img src="/d.png"><img src="/e.png"><img src="/a.jpg">`

	got := ExtractImages(html, "https://acme.com")
	assert.Empty(t, got.Logo)
	// Only the first five images are considered.
	assert.Equal(t, []string{"https://acme.com/a.jpg", "https://acme.com/d.png"}, got.HeroImages)
}

func TestExtractImages_Cap(t *testing.T) {
	html := `<div class="hero"><img src="/1.jpg"></div><div class="hero"><img src="/2.jpg"></div>
	<div class="hero"><img src="/3.jpg"></div><div class="hero"><img src="/4.jpg"></div>`
	assert.Len(t, ExtractImages(html, "https://acme.com").HeroImages, MaxHeroImages)
}

func TestExtractImages_Empty(t *testing.T) {
	got := ExtractImages("", "https://acme.com")
	assert.Empty(t, got.Logo)
	assert.NotNil(t, got.HeroImages)
}
