package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// MinContentLength is the minimum extracted text length for a static fetch to count.
// Shorter pages are likely JavaScript-rendered and get a headless browser pass.
const MinContentLength = 500

const (
	screenshotWidth   = 1280
	screenshotHeight  = 800
	screenshotQuality = 80
)

// ShouldUseBrowser reports whether the static text is too thin to analyze.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Browser renders pages with headless Chrome. Requires Chrome/Chromium on the host.
type Browser struct {
	Timeout time.Duration
	Settle  time.Duration
	logger  *zap.Logger
}

// NewBrowser returns a Browser with a 30s timeout.
func NewBrowser(logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{Timeout: 30 * time.Second, Settle: 3 * time.Second, logger: logger}
}

func (b *Browser) context(ctx context.Context) (context.Context, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(screenshotWidth, screenshotHeight),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, b.Timeout)
	return timeoutCtx, func() {
		cancelTimeout()
		cancelBrowser()
		cancelAlloc()
	}
}

// dismissBanners clicks common cookie "Accept" buttons; absence is not an error.
func dismissBanners() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		clickCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = chromedp.Click(`button[id*="accept"], button[class*="accept"], #onetrust-accept-btn-handler`, chromedp.NodeVisible).Do(clickCtx)
		return nil
	})
}

// Render loads url, waits for scripts to settle and returns the rendered HTML.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	b.logger.Debug("rendering page in headless browser", zap.String("url", url))

	bctx, cancel := b.context(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.Settle),
		dismissBanners(),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	b.logger.Debug("rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// Screenshot captures the first viewport (1280x800) of url as a JPEG.
func (b *Browser) Screenshot(ctx context.Context, url string) ([]byte, error) {
	bctx, cancel := b.context(ctx)
	defer cancel()

	var buf []byte
	err := chromedp.Run(bctx,
		chromedp.EmulateViewport(screenshotWidth, screenshotHeight),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.Settle),
		dismissBanners(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatJpeg).
				WithQuality(screenshotQuality).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, &Error{URL: url, Message: "screenshot failed", Cause: err}
	}
	if len(buf) == 0 {
		return nil, &Error{URL: url, Message: "screenshot failed", Cause: fmt.Errorf("empty image")}
	}
	return buf, nil
}
