// Package fetch retrieves web pages and turns them into the text, metadata
// and raw HTML the brand analysis stages work from.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 20 * time.Second

// DefaultUserAgent mimics a desktop Chrome so marketing sites serve their full markup.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const (
	// MaxHTMLChars caps the raw HTML kept for design extraction.
	MaxHTMLChars = 500_000
	// MaxTextChars caps the visible text kept for analysis.
	MaxTextChars = 2_000_000
	// NoTitle is used when a page has no <title>.
	NoTitle = "No Title"
)

// Page is a fetched and parsed web page.
type Page struct {
	URL             string    `json:"url"`
	FinalURL        string    `json:"final_url,omitempty"`
	Title           string    `json:"title"`
	MetaDescription string    `json:"meta_description,omitempty"`
	OGImage         string    `json:"og_image,omitempty"`
	Text            string    `json:"text"`
	HTML            string    `json:"html,omitempty"`
	StatusCode      int       `json:"status_code"`
	Platform        Platform  `json:"platform,omitempty"`
	Rendered        bool      `json:"rendered,omitempty"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Client    *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// browserHeaders are sent with every request; some CDNs reject bare clients.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Referer":                   "https://www.google.com/",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "cross-site",
	"Cache-Control":             "max-age=0",
}

// NormalizeURL adds https:// when the scheme is missing and validates the result.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &Error{URL: raw, Message: "invalid URL"}
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", &Error{URL: raw, Message: "invalid URL", Cause: err}
	}
	return u.String(), nil
}

// Fetch retrieves rawURL and parses it into a Page.
// Non-2xx responses return the partially populated Page along with an *Error.
func Fetch(ctx context.Context, rawURL string, opts *Options) (*Page, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{URL: target, Message: "failed to create request", Cause: err}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: target, Message: "failed to read response body", Cause: err}
	}

	page, perr := ParsePage(target, string(body))
	if perr != nil {
		return nil, &Error{URL: target, Message: "failed to parse HTML", Cause: perr}
	}
	page.StatusCode = resp.StatusCode
	if resp.Request != nil && resp.Request.URL != nil {
		page.FinalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, &Error{
			URL:        target,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	return page, nil
}

// ParsePage extracts title, meta description, og:image and visible text from html.
func ParsePage(pageURL, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = NoTitle
	}
	meta, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	og, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")

	doc.Find("script, style, noscript, template, svg").Remove()
	text := collapseSpace(doc.Text())

	return &Page{
		URL:             pageURL,
		Title:           title,
		MetaDescription: strings.TrimSpace(meta),
		OGImage:         strings.TrimSpace(og),
		Text:            truncate(text, MaxTextChars),
		HTML:            truncate(html, MaxHTMLChars),
		Platform:        DetectPlatform(pageURL, html),
		FetchedAt:       time.Now().UTC(),
	}, nil
}

// ExtractMainText returns the text of the first element matching contentSelectors,
// falling back to <body>. Chrome (nav, footer, scripts, cookie banners) and any
// extra noiseSelectors are removed first.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .cookie-banner, .cookie-consent, .popup, .modal").Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			main = sel.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}
	return cleanLines(main.Text()), nil
}

// DefaultTextSelectors returns standard selectors for marketing page content.
func DefaultTextSelectors() []string {
	return []string{"main", "article", "#main", ".main-content", "#content", ".content"}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8Start(s[n]) {
		n--
	}
	return s[:n]
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
