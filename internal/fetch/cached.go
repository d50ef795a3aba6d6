package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/brandos/internal/db"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheTTL is how long a fetched page is served from the brand_pages table.
const DefaultCacheTTL = 24 * time.Hour

// PageStore persists fetched pages. *db.DB implements it.
type PageStore interface {
	GetFreshPage(ctx context.Context, pageURL string, maxAge time.Duration) (*db.Page, error)
	UpsertPage(ctx context.Context, page *db.Page) error
}

// Renderer renders JavaScript-heavy pages. *Browser implements it.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// CachedFetcher wraps Fetch with a database page cache and an optional
// headless-browser fallback for thin, script-rendered pages.
type CachedFetcher struct {
	store     PageStore
	renderer  Renderer
	options   *Options
	cacheTTL  time.Duration
	skipCache bool
	logger    *zap.Logger
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
	Renderer  Renderer
	Logger    *zap.Logger
}

// NewCachedFetcher creates a cached fetcher. A nil store disables caching.
func NewCachedFetcher(store PageStore, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = &CachedFetcherConfig{}
	}
	f := &CachedFetcher{
		store:     store,
		renderer:  config.Renderer,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
		logger:    config.Logger,
	}
	if f.options == nil {
		f.options = DefaultOptions()
	}
	if f.cacheTTL <= 0 {
		f.cacheTTL = DefaultCacheTTL
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

// CachedResult is a Page plus cache metadata.
type CachedResult struct {
	*Page
	FromCache bool
	PageID    uuid.UUID
}

// Fetch retrieves a URL, serving it from cache while fresh.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	return f.FetchForBrand(ctx, urlStr, nil, "")
}

// FetchForBrand retrieves a URL and links the cached row to a brand and page type.
func (f *CachedFetcher) FetchForBrand(ctx context.Context, urlStr string, brandID *uuid.UUID, pageType string) (*CachedResult, error) {
	target, err := NormalizeURL(urlStr)
	if err != nil {
		return nil, err
	}

	if f.useCache() {
		cached, err := f.store.GetFreshPage(ctx, target, f.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check page cache: %w", err)
		}
		if cached != nil {
			f.logger.Debug("page cache hit", zap.String("url", target))
			return &CachedResult{Page: pageFromRow(cached), FromCache: true, PageID: cached.ID}, nil
		}
	}

	page, err := Fetch(ctx, target, f.options)
	if err != nil {
		return nil, err
	}
	f.maybeRender(ctx, page)

	result := &CachedResult{Page: page}
	if f.store == nil {
		return result, nil
	}

	row := &db.Page{
		BrandID:    brandID,
		URL:        target,
		Title:      page.Title,
		HTML:       page.HTML,
		Text:       page.Text,
		StatusCode: page.StatusCode,
	}
	if pageType != "" {
		row.PageType = &pageType
	}
	expires := time.Now().Add(f.cacheTTL)
	row.ExpiresAt = &expires
	if err := f.store.UpsertPage(ctx, row); err != nil {
		// The fetch itself succeeded; a cache write failure only costs a refetch.
		f.logger.Warn("failed to cache page", zap.String("url", target), zap.Error(err))
		return result, nil
	}
	result.PageID = row.ID
	return result, nil
}

func (f *CachedFetcher) maybeRender(ctx context.Context, page *Page) {
	if f.renderer == nil {
		return
	}
	if !ShouldUseBrowser(page.Text) && !page.Platform.RequiresRendering() {
		return
	}
	html, err := f.renderer.Render(ctx, page.URL)
	if err != nil {
		f.logger.Warn("browser fallback failed, keeping static HTML", zap.String("url", page.URL), zap.Error(err))
		return
	}
	rendered, err := ParsePage(page.URL, html)
	if err != nil || len(rendered.Text) <= len(page.Text) {
		return
	}
	rendered.StatusCode = page.StatusCode
	rendered.FinalURL = page.FinalURL
	rendered.Rendered = true
	*page = *rendered
}

// FetchMultiple fetches urls concurrently (three at a time).
// Results keep input order; failed fetches are nil with the error at the same index.
func (f *CachedFetcher) FetchMultiple(ctx context.Context, urls []string) ([]*CachedResult, []error) {
	results := make([]*CachedResult, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	g.SetLimit(3)
	for i, u := range urls {
		g.Go(func() error {
			results[i], errs[i] = f.Fetch(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

func (f *CachedFetcher) useCache() bool {
	return !f.skipCache && f.store != nil
}

func pageFromRow(p *db.Page) *Page {
	out := &Page{
		URL:        p.URL,
		Title:      p.Title,
		Text:       p.Text,
		HTML:       p.HTML,
		StatusCode: p.StatusCode,
		FetchedAt:  p.FetchedAt,
	}
	if out.Title == "" {
		out.Title = NoTitle
	}
	if parsed, err := ParsePage(p.URL, p.HTML); err == nil {
		out.MetaDescription = parsed.MetaDescription
		out.OGImage = parsed.OGImage
		out.Platform = parsed.Platform
	}
	return out
}
