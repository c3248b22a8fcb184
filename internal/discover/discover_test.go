package discover

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession serves a fixed HTML body.
type fakeSession struct {
	html         string
	scrollRounds int
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error { return nil }

func (f *fakeSession) Document(ctx context.Context) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(f.html))
}

func (f *fakeSession) ScrollToBottom(ctx context.Context, maxRounds int) (int, error) {
	return f.scrollRounds, nil
}

func (f *fakeSession) HTML(ctx context.Context) (string, error)        { return f.html, nil }
func (f *fakeSession) Screenshot(ctx context.Context) ([]byte, error)  { return nil, nil }
func (f *fakeSession) Close() error                                    { return nil }

const landingPage = `
<html><body>
<a href="/bus-tickets/bangalore-to-hyderabad">Bangalore to Hyderabad</a>
<a href="https://www.example.test/bus-tickets/bangalore-to-chennai/">Bangalore to Chennai</a>
<a href="/bus-tickets/bangalore-to-hyderabad?utm_source=promo#deals">Bangalore to Hyderabad</a>
<a href="/bus-tickets/mysore-to-goa"></a>
<a href="/blog/travel-tips">Travel tips</a>
<a href="mailto:help@example.test">Contact</a>
<a href="/bus-tickets/pune-to-mumbai">Pune to Mumbai</a>
</body></html>`

func TestDiscover(t *testing.T) {
	sess := &fakeSession{html: landingPage, scrollRounds: 3}
	targets, err := Discover(context.Background(), sess, Options{
		Source:     "example",
		LandingURL: "https://www.example.test/routes",
	})
	require.NoError(t, err)
	require.Len(t, targets, 4)

	assert.Equal(t, "Bangalore to Hyderabad", targets[0].Label)
	assert.Equal(t, "https://www.example.test/bus-tickets/bangalore-to-hyderabad", targets[0].URL)
	assert.Equal(t, "example", targets[0].Source)

	// Trailing slash trimmed.
	assert.Equal(t, "https://www.example.test/bus-tickets/bangalore-to-chennai", targets[1].URL)

	// Anchor with no text gets a label derived from the URL slug.
	assert.Equal(t, "mysore to goa", targets[2].Label)

	assert.Equal(t, "Pune to Mumbai", targets[3].Label)
}

func TestDiscoverMaxRoutes(t *testing.T) {
	sess := &fakeSession{html: landingPage}
	targets, err := Discover(context.Background(), sess, Options{
		Source:     "example",
		LandingURL: "https://www.example.test/routes",
		MaxRoutes:  2,
	})
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}

func TestDiscoverCustomPatterns(t *testing.T) {
	page := `
<html><body>
<a href="/schedules/route-9">Route 9</a>
<a href="/bus-tickets/a-to-b">A to B</a>
</body></html>`
	sess := &fakeSession{html: page}
	targets, err := Discover(context.Background(), sess, Options{
		Source:       "example",
		LandingURL:   "https://example.test/",
		LinkPatterns: []string{"/schedules/*"},
	})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Route 9", targets[0].Label)
}

func TestNormalizeURL(t *testing.T) {
	base, _ := url.Parse("https://www.Example.test/routes/")
	tests := []struct {
		name string
		href string
		want string
		ok   bool
	}{
		{"relative", "/bus-tickets/a-to-b", "https://www.example.test/bus-tickets/a-to-b", true},
		{"fragment stripped", "/bus-tickets/a-to-b#top", "https://www.example.test/bus-tickets/a-to-b", true},
		{"tracking stripped", "/bus-tickets/a-to-b?utm_campaign=x&gclid=1&date=2026-08-24", "https://www.example.test/bus-tickets/a-to-b?date=2026-08-24", true},
		{"trailing slash", "https://example.test/bus-tickets/a-to-b/", "https://example.test/bus-tickets/a-to-b", true},
		{"host lowercased", "HTTPS://WWW.EXAMPLE.TEST/bus-tickets/X", "https://www.example.test/bus-tickets/X", true},
		{"mailto rejected", "mailto:x@y.z", "", false},
		{"javascript rejected", "javascript:void(0)", "", false},
		{"empty rejected", "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeURL(base, tt.href)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLinkMatcher(t *testing.T) {
	m := NewLinkMatcher(nil)
	assert.Equal(t, defaultIncludePatterns, m.Patterns())
	assert.True(t, m.Matches("https://x.test/bus-tickets/a-to-b"))
	assert.True(t, m.Matches("https://x.test/Bus-Tickets/a/b/c"))
	assert.False(t, m.Matches("https://x.test/blog/post"))
	assert.False(t, m.Matches("https://x.test/"))

	custom := NewLinkMatcher([]string{"/*.html"})
	assert.True(t, custom.Matches("https://x.test/routes.html"))
	assert.False(t, custom.Matches("https://x.test/routes.pdf"))
}
