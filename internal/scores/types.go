package scores

import (
	"context"
	"io"
	"time"
)

// Team is the per-side sub-record of a Match. Short is always derived from
// the name (or taken from the upstream short name when the API provides one),
// never left to the upstream display text.
type Team struct {
	Name  string  `json:"name"`
	Score string  `json:"score"`
	Logo  *string `json:"logo"`
	Short string  `json:"short"`
}

// Match is the canonical record for one fixture as exposed to the widget.
// A Match is only emitted when ID is non-empty; everything else may be blank
// depending on upstream completeness.
type Match struct {
	ID         string `json:"id"`
	MatchType  string `json:"matchType"`
	Date       string `json:"date"`
	Venue      string `json:"venue"`
	Status     string `json:"status"`
	DetailsURL string `json:"detailsUrl,omitempty"`
	Team1      *Team  `json:"team1"`
	Team2      *Team  `json:"team2"`
	IsLive     bool   `json:"isLive"`
	RawHTML    string `json:"rawHtml,omitempty"`
}

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL. Implementations issue exactly
// one upstream request per call: no retry, no backoff.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// ScoreSource produces the normalized match list for one request cycle.
// The HTML-scrape and JSON-API implementations are interchangeable behind
// this interface; which one runs is decided by configuration, never
// per-request fallback.
type ScoreSource interface {
	// ID identifies the configured source (for logging and the sources listing).
	ID() string
	// FetchMatches performs one upstream fetch and normalizes the payload.
	FetchMatches(ctx context.Context) ([]Match, error)
}

// RawFetcher is implemented by sources that can expose their raw upstream
// payload, so an operator can inspect what the third party is actually
// serving when extraction starts coming back empty.
type RawFetcher interface {
	FetchRaw(ctx context.Context) (body []byte, contentType string, err error)
}

// Strategy defines how a specific source should be processed.
type Strategy string

const (
	StrategyHTML Strategy = "html" // prepscores HTML page, scraped per slab
	StrategyAPI  Strategy = "api"  // JSON current-matches endpoint
)
