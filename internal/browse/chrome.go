package browse

import (
	"context"
	"strings"
	"time"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/resilience"
)

// ChromeSession drives a headless Chrome through the devtools protocol.
// One session maps to one browser tab; the allocator (the browser process)
// is owned by the session and torn down on Close.
type ChromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	navTimeout  time.Duration
	scrollPause time.Duration
	retry       resilience.RetryConfig
	log         *zap.Logger
}

// NewChromeSession launches a browser and opens a fresh tab. The flag set
// mirrors what schedule sites tolerate: automation banners off, a real
// desktop user agent, no GPU.
func NewChromeSession(parent context.Context, opts Options) (*ChromeSession, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = browser.Chrome()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(ua),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Starting the browser lazily on first Navigate makes startup failures
	// surface far from their cause; force it now.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, eris.Wrap(err, "browse: launch chrome")
	}

	navTimeout := 45 * time.Second
	if opts.NavigateTimeout > 0 {
		navTimeout = time.Duration(opts.NavigateTimeout) * time.Second
	}
	scrollPause := 1500 * time.Millisecond
	if opts.ScrollPause > 0 {
		scrollPause = time.Duration(opts.ScrollPause) * time.Millisecond
	}

	return &ChromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		navTimeout:  navTimeout,
		scrollPause: scrollPause,
		retry:       retryConfig(opts),
		log:         zap.L().With(zap.String("component", "browse.chrome")),
	}, nil
}

// Navigate loads the URL under the retry policy. Each attempt gets its own
// timeout so one hung load cannot eat the whole retry budget.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
		defer cancel()

		// Honor the caller's deadline and cancellation too.
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		err := chromedp.Run(attemptCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body"),
		)
		if err != nil {
			s.log.Warn("navigation failed", zap.String("url", url), zap.Error(err))
			return eris.Wrapf(err, "browse: navigate %s", url)
		}
		return nil
	})
}

// ScrollToBottom scrolls until document height stabilizes, bounded by
// maxRounds. Lazy-loading result lists keep growing the page as we scroll,
// so two consecutive identical heights mean the list is complete.
func (s *ChromeSession) ScrollToBottom(ctx context.Context, maxRounds int) (int, error) {
	if maxRounds <= 0 {
		maxRounds = 20
	}

	var lastHeight int64 = -1
	for round := 0; round < maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return round, err
		}

		var height int64
		err := chromedp.Run(s.ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &height),
		)
		if err != nil {
			return round, eris.Wrap(err, "browse: scroll")
		}
		if height == lastHeight {
			return round, nil
		}
		lastHeight = height

		select {
		case <-ctx.Done():
			return round, ctx.Err()
		case <-time.After(s.scrollPause):
		}
	}
	s.log.Debug("scroll round budget exhausted", zap.Int("rounds", maxRounds))
	return maxRounds, nil
}

func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		root, err := dom.GetDocument().Do(cdpCtx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(root.NodeID).Do(cdpCtx)
		return err
	}))
	if err != nil {
		return "", eris.Wrap(err, "browse: read page html")
	}
	return html, nil
}

func (s *ChromeSession) Document(ctx context.Context) (*goquery.Document, error) {
	html, err := s.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "browse: parse page html")
	}
	return doc, nil
}

func (s *ChromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(cdpCtx)
		return err
	}))
	if err != nil {
		return nil, eris.Wrap(err, "browse: capture screenshot")
	}
	return buf, nil
}

func (s *ChromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}
