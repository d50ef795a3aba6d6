package crawling

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/brandos/internal/fetch"
)

const (
	// MaxPagesLimit is the hard maximum number of pages in one corpus.
	MaxPagesLimit = 15
	// DefaultMaxPages is used when the caller passes zero.
	DefaultMaxPages = 5
)

// Fetcher retrieves pages in bulk. *fetch.CachedFetcher implements it.
type Fetcher interface {
	FetchMultiple(ctx context.Context, urls []string) ([]*fetch.CachedResult, []error)
}

// Source records one page that contributed to a corpus.
type Source struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Hash      string    `json:"hash"`
	FromCache bool      `json:"from_cache"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Failure records a page that could not be fetched.
type Failure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Corpus is the aggregated text of a brand's key pages.
type Corpus struct {
	Text       string        `json:"text"`
	Pages      []*fetch.Page `json:"-"`
	Sources    []Source      `json:"sources"`
	Failed     []Failure     `json:"failed,omitempty"`
	Competitor string        `json:"competitor,omitempty"`
}

// Main returns the first successfully fetched page, used for metadata and design extraction.
func (c *Corpus) Main() *fetch.Page {
	if c == nil || len(c.Pages) == 0 {
		return nil
	}
	return c.Pages[0]
}

// CorpusRequest describes the pages to aggregate.
type CorpusRequest struct {
	URLs          []string
	CompetitorURL string
	MaxPages      int
	// Prefetched pages are used as-is instead of being fetched again.
	Prefetched []*fetch.Page
}

// BuildCorpus fetches the requested pages (and the competitor page, if any)
// and concatenates their text in request order, each block headed by its URL.
// It fails only when no brand page could be fetched.
func BuildCorpus(ctx context.Context, f Fetcher, req CorpusRequest) (*Corpus, error) {
	urls := dedupe(req.URLs)
	if len(urls) == 0 {
		return nil, &CrawlError{Message: "no URLs provided"}
	}
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	maxPages = min(maxPages, MaxPagesLimit)
	if len(urls) > maxPages {
		urls = urls[:maxPages]
	}

	known := make(map[string]*fetch.Page, len(req.Prefetched))
	for _, p := range req.Prefetched {
		if p != nil {
			known[p.URL] = p
		}
	}

	var toFetch []string
	for _, u := range urls {
		if known[u] == nil {
			toFetch = append(toFetch, u)
		}
	}
	if req.CompetitorURL != "" {
		toFetch = append(toFetch, req.CompetitorURL)
	}

	fetched := map[string]*fetch.CachedResult{}
	fetchErrs := map[string]error{}
	if len(toFetch) > 0 {
		results, errs := f.FetchMultiple(ctx, toFetch)
		for i, u := range toFetch {
			if errs[i] != nil {
				fetchErrs[u] = errs[i]
				continue
			}
			fetched[u] = results[i]
		}
	}

	corpus := &Corpus{}
	var b strings.Builder
	for _, u := range urls {
		page, fromCache := known[u], false
		if page == nil {
			if r := fetched[u]; r != nil {
				page, fromCache = r.Page, r.FromCache
			}
		}
		if page == nil {
			msg := "unknown error"
			if err := fetchErrs[u]; err != nil {
				msg = err.Error()
			}
			corpus.Failed = append(corpus.Failed, Failure{URL: u, Error: msg})
			continue
		}

		fmt.Fprintf(&b, "\n\n--- CONTENT FROM: %s ---\n%s\n", u, page.Text)
		corpus.Pages = append(corpus.Pages, page)
		corpus.Sources = append(corpus.Sources, Source{
			URL:       u,
			Title:     page.Title,
			Hash:      computeHash(page.Text),
			FromCache: fromCache,
			FetchedAt: page.FetchedAt,
		})
	}
	corpus.Text = b.String()

	if req.CompetitorURL != "" {
		if r := fetched[req.CompetitorURL]; r != nil {
			corpus.Competitor = fmt.Sprintf("COMPETITOR (%s):\n%s", req.CompetitorURL, r.Text)
		} else if err := fetchErrs[req.CompetitorURL]; err != nil {
			corpus.Failed = append(corpus.Failed, Failure{URL: req.CompetitorURL, Error: err.Error()})
		}
	}

	if len(corpus.Pages) == 0 {
		return corpus, &CrawlError{Message: fmt.Sprintf("could not fetch any of %d pages", len(urls))}
	}
	return corpus, nil
}

var categoryPriority = []string{CategoryCompany, CategoryOfferings, CategoryResources, CategoryContact, CategoryStandard, CategoryOther}

// SelectPages picks up to maxPages-1 links to crawl beyond the homepage: one
// per category in priority order first, then the remaining slots in the same order.
func SelectPages(links []NavLink, maxPages int, homepage string) []string {
	byCategory := make(map[string][]string)
	for _, l := range links {
		if l.URL == homepage || strings.TrimSuffix(l.URL, "/") == strings.TrimSuffix(homepage, "/") {
			continue
		}
		byCategory[l.Category] = append(byCategory[l.Category], l.URL)
	}

	limit := maxPages - 1
	selected := make([]string, 0, max(limit, 0))
	chosen := map[string]bool{}
	add := func(u string) {
		if len(selected) < limit && !chosen[u] {
			chosen[u] = true
			selected = append(selected, u)
		}
	}

	for _, c := range categoryPriority {
		if urls := byCategory[c]; len(urls) > 0 {
			add(urls[0])
		}
	}
	for _, c := range categoryPriority {
		for _, u := range byCategory[c] {
			add(u)
		}
	}
	return selected
}

func dedupe(urls []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
