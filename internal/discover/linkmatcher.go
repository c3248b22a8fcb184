package discover

import (
	"net/url"
	"path"
	"strings"
)

// defaultIncludePatterns match the route-page URL shape of the major bus
// aggregators when a source does not configure its own.
var defaultIncludePatterns = []string{
	"/bus-tickets/*",
}

// LinkMatcher selects anchor hrefs that look like route schedule pages,
// using glob-style path patterns. path.Match handles single segments and a
// segmented prefix check lets "/bus-tickets/*" match nested paths.
type LinkMatcher struct {
	patterns []string
}

// NewLinkMatcher creates a LinkMatcher from glob patterns (e.g.
// "/bus-tickets/*"). Falls back to the default patterns when none are given.
func NewLinkMatcher(patterns []string) *LinkMatcher {
	if len(patterns) == 0 {
		patterns = defaultIncludePatterns
	}
	return &LinkMatcher{patterns: patterns}
}

// Patterns returns the configured patterns.
func (m *LinkMatcher) Patterns() []string {
	return m.patterns
}

// Matches reports whether the URL's path matches any include pattern.
func (m *LinkMatcher) Matches(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return m.matchesPath(u.Path)
}

func (m *LinkMatcher) matchesPath(urlPath string) bool {
	urlPath = strings.ToLower(urlPath)
	for _, pattern := range m.patterns {
		if matchSegmented(strings.ToLower(pattern), urlPath) {
			return true
		}
	}
	return false
}

// matchSegmented performs glob matching where a pattern like
// "/bus-tickets/*" matches both "/bus-tickets/a-to-b" and
// "/bus-tickets/a/b/c".
func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	return false
}
