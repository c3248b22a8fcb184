package browse

import (
	"context"
	"net/http/cookiejar"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/routepulse/collector-cli/internal/resilience"
)

// StaticSession fetches pages over plain HTTP. It suits sources that render
// their schedule tables server-side; anything that lazy-loads behind
// javascript needs a ChromeSession instead.
type StaticSession struct {
	client *resty.Client
	retry  resilience.RetryConfig
	log    *zap.Logger

	body string // last fetched page
}

// NewStaticSession builds an HTTP session with a cookie jar, a cloudflare
// bypass transport, and a randomized desktop user agent.
func NewStaticSession(opts Options) (*StaticSession, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, eris.Wrap(err, "browse: cookie jar")
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = browser.Random()
	}

	timeout := 30 * time.Second
	if opts.NavigateTimeout > 0 {
		timeout = time.Duration(opts.NavigateTimeout) * time.Second
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", ua)
	client.SetTimeout(timeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	return &StaticSession{
		client: client,
		retry:  retryConfig(opts),
		log:    zap.L().With(zap.String("component", "browse.static")),
	}, nil
}

func (s *StaticSession) Navigate(ctx context.Context, url string) error {
	return resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		resp, err := s.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return eris.Wrapf(err, "browse: fetch %s", url)
		}
		if resp.IsError() {
			err := eris.Errorf("browse: fetch %s: status %d", url, resp.StatusCode())
			if resilience.IsTransientHTTPStatus(resp.StatusCode()) {
				return resilience.NewTransientError(err, resp.StatusCode())
			}
			return resilience.NewFatalError(err)
		}
		s.body = resp.String()
		return nil
	})
}

func (s *StaticSession) Document(ctx context.Context) (*goquery.Document, error) {
	if s.body == "" {
		return nil, eris.New("browse: no page loaded")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.body))
	if err != nil {
		return nil, eris.Wrap(err, "browse: parse page html")
	}
	return doc, nil
}

// ScrollToBottom is a no-op: static pages arrive complete.
func (s *StaticSession) ScrollToBottom(ctx context.Context, maxRounds int) (int, error) {
	return 0, nil
}

func (s *StaticSession) HTML(ctx context.Context) (string, error) {
	if s.body == "" {
		return "", eris.New("browse: no page loaded")
	}
	return s.body, nil
}

// Screenshot returns nil: there is no renderer to capture.
func (s *StaticSession) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, nil
}

func (s *StaticSession) Close() error {
	return nil
}
