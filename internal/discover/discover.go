// Package discover expands a source's landing page into the set of route
// schedule pages to scrape. Discovery is read-only: it produces RouteTargets
// and never touches the store.
package discover

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/browse"
	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/parse"
)

// Options configures discovery against one source.
type Options struct {
	// Source names the source for RouteTarget attribution.
	Source string
	// LandingURL is the page listing route links.
	LandingURL string
	// LinkPatterns are glob path patterns for route links; empty uses the
	// defaults.
	LinkPatterns []string
	// MaxRoutes caps how many targets are returned, 0 for no cap.
	MaxRoutes int
	// ScrollRounds bounds the lazy-load scroll loop.
	ScrollRounds int
}

// Discover loads the landing page, scrolls it out, and collects every
// anchor whose path matches the link patterns. Targets keep first-seen
// document order and duplicates (after URL normalization) are dropped.
func Discover(ctx context.Context, sess browse.Session, opts Options) ([]model.RouteTarget, error) {
	log := zap.L().With(
		zap.String("component", "discover"),
		zap.String("source", opts.Source),
	)

	if err := sess.Navigate(ctx, opts.LandingURL); err != nil {
		return nil, eris.Wrapf(err, "discover: load landing page for %s", opts.Source)
	}
	rounds, err := sess.ScrollToBottom(ctx, opts.ScrollRounds)
	if err != nil {
		return nil, eris.Wrapf(err, "discover: scroll landing page for %s", opts.Source)
	}
	doc, err := sess.Document(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "discover: parse landing page for %s", opts.Source)
	}

	base, err := url.Parse(opts.LandingURL)
	if err != nil {
		return nil, eris.Wrapf(err, "discover: bad landing url %q", opts.LandingURL)
	}

	matcher := NewLinkMatcher(opts.LinkPatterns)
	seen := make(map[string]struct{})
	var targets []model.RouteTarget

	doc.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		normalized, ok := NormalizeURL(base, href)
		if !ok || !matcher.Matches(normalized) {
			return true
		}
		if _, dup := seen[normalized]; dup {
			return true
		}
		seen[normalized] = struct{}{}

		label := parse.Sanitize(sel.Text())
		if label == "" {
			label = labelFromURL(normalized)
		}
		targets = append(targets, model.RouteTarget{
			Source: opts.Source,
			Label:  label,
			URL:    normalized,
		})
		return opts.MaxRoutes <= 0 || len(targets) < opts.MaxRoutes
	})

	log.Info("discovered routes",
		zap.Int("routes", len(targets)),
		zap.Int("scroll_rounds", rounds),
	)
	return targets, nil
}

// trackingParams never distinguish route pages and are stripped during
// normalization.
var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "msclkid": {}, "ref": {}, "src": {},
}

// NormalizeURL resolves href against base and canonicalizes it: lowercase
// scheme and host, fragment and tracking parameters stripped, trailing
// slash trimmed. Returns ok=false for unparsable or non-http links.
func NormalizeURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u = base.ResolveReference(u)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if _, drop := trackingParams[key]; drop || strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), true
}

// labelFromURL derives a readable route label from the last path segment,
// e.g. "bangalore-to-hyderabad" becomes "bangalore to hyderabad".
func labelFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return rawURL
	}
	return strings.ReplaceAll(last, "-", " ")
}
