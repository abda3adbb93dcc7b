package scores

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements Fetcher using Colly, mainly for upstreams that
// need charset detection on their HTML. Like HTTPFetcher it is single-shot:
// one visit, no retries.
type CollyFetcher struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodySize    int
}

func NewCollyFetcher(cfg FetchConfig) *CollyFetcher {
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &CollyFetcher{
		UserAgent:      ua,
		RequestTimeout: timeout,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
	}
}

func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(f.MaxBodySize),
		colly.AllowURLRevisit(),
		colly.AllowedDomains(parsedURL.Host),
		colly.DetectCharset(),
		colly.IgnoreRobotsTxt(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.RequestTimeout)

	var result *FetchedDocument
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result = &FetchedDocument{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        io.NopCloser(bytes.NewReader(r.Body)),
			FetchedAt:   time.Now(),
			Headers:     map[string][]string(r.Headers.Clone()),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch failed: %w", err)
	})

	if err := c.Visit(targetURL); err != nil {
		return nil, fmt.Errorf("visit failed: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if result == nil {
		return nil, fmt.Errorf("no response received for %s", targetURL)
	}
	if result.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status code: %d", result.StatusCode)
	}

	return result, nil
}
