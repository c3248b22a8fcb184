// Package browse abstracts how a schedule page is fetched and rendered.
// Dynamic sources need a real browser (lazy-loaded result lists, cloudflare
// interstitials); simple sources get by with plain HTTP. Both are exposed
// through the same Session so extraction and discovery never care which.
package browse

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/routepulse/collector-cli/internal/resilience"
)

// Session is one browsing context against one source. Sessions are not safe
// for concurrent use; the orchestrator gives each source worker its own.
type Session interface {
	// Navigate loads the given URL and blocks until the page is ready.
	Navigate(ctx context.Context, url string) error

	// Document returns the current page parsed for querying.
	Document(ctx context.Context) (*goquery.Document, error)

	// ScrollToBottom scrolls until the page height stops growing or
	// maxRounds is reached, returning the number of scroll rounds done.
	// Static sessions report zero rounds.
	ScrollToBottom(ctx context.Context, maxRounds int) (int, error)

	// HTML returns the current page source for diagnostics.
	HTML(ctx context.Context) (string, error)

	// Screenshot captures the viewport as PNG, or nil if the session
	// cannot render.
	Screenshot(ctx context.Context) ([]byte, error)

	Close() error
}

// Options configures session construction.
type Options struct {
	// Headless controls browser visibility for chrome sessions.
	Headless bool
	// NavigateTimeout bounds a single page load.
	NavigateTimeout int // seconds
	// ScrollPause is the settle time between scroll rounds, milliseconds.
	ScrollPause int
	// UserAgent overrides the randomized user agent when non-empty.
	UserAgent string
	// RetryAttempts and RetryBase shape the navigation retry policy;
	// zero values take the package defaults.
	RetryAttempts int
	RetryBase     time.Duration
}

func retryConfig(opts Options) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if opts.RetryAttempts > 0 {
		cfg.MaxAttempts = opts.RetryAttempts
	}
	if opts.RetryBase > 0 {
		cfg.BaseDelay = opts.RetryBase
	}
	return cfg
}
