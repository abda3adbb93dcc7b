package scores

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultUserAgent = "cricfeed-proxy/1.0 (+https://github.com/rahulv/cricfeed)"

type originKey struct{}

// WithOrigin records the inbound caller's origin (Referer falling back to
// Host) on the context. The prepscores upstream requires it for its
// anti-hotlink token; sources that don't need it ignore it.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom returns the caller origin recorded by WithOrigin, if any.
func OriginFrom(ctx context.Context) string {
	if v, ok := ctx.Value(originKey{}).(string); ok {
		return v
	}
	return ""
}

// HotlinkToken returns the coarse 5-second time bucket the prepscores
// upstream expects as its `k` query parameter.
func HotlinkToken(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli()/5000, 10)
}

// BuildPrepScoresURL appends the `k` (time bucket) and `r` (encoded caller
// origin) pair to the upstream base URL.
func BuildPrepScoresURL(baseURL, origin string, now time.Time) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid upstream URL: %w", err)
	}
	q := u.Query()
	q.Set("k", HotlinkToken(now))
	q.Set("r", origin)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HTTPFetcher issues a single GET per call with a short timeout. There is
// deliberately no retry: a failed cycle degrades the response and the next
// widget poll starts fresh.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPFetcher(cfg FetchConfig) *HTTPFetcher {
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		UserAgent: ua,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return &FetchedDocument{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
		FetchedAt:   time.Now(),
		Headers:     resp.Header,
	}, nil
}
