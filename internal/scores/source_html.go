package scores

import (
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// slabMarker opens one match listing in the prepscores page. Everything we
// assume about the upstream markup lives in this file; when the third party
// changes shape, this is the only place that needs revision.
const slabMarker = `<div class="cric-slab"`

var (
	idRe         = regexp.MustCompile(`^[0-9a-fA-F-]+$`)
	venueRe      = regexp.MustCompile(`At\s*<b>([^<]+)</b>`)
	showModalRe  = regexp.MustCompile(`cricapi\.showModal\('([^']+)'\)`)
	detailLinkRe = regexp.MustCompile(`https://cricketdata\.org[^\s"'<)]*`)
)

// statusKeywords mark the div that carries the human-readable match status.
// First div containing any of them wins.
var statusKeywords = []string{"won by", "need", "live", "ft", "full time", "won", "chasing"}

// PrepScoresSource scrapes the third-party prepscores HTML page into Match
// records, one per slab.
type PrepScoresSource struct {
	cfg       SourceConfig
	fetcher   Fetcher
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

func NewPrepScoresSource(cfg SourceConfig, fetcher Fetcher) *PrepScoresSource {
	// UGC policy drops script/iframe but keeps the tables, images and links
	// the widget needs for its fallback render. The slab's own class and
	// data-id attributes survive so the widget can still target it.
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("data-id").Globally()

	return &PrepScoresSource{
		cfg:       cfg,
		fetcher:   fetcher,
		sanitizer: p,
		now:       time.Now,
	}
}

func (s *PrepScoresSource) ID() string { return s.cfg.ID }

// FetchRaw returns the upstream page untouched, for diagnosing markup drift.
func (s *PrepScoresSource) FetchRaw(ctx context.Context) ([]byte, string, error) {
	upstreamURL, err := BuildPrepScoresURL(s.cfg.BaseURL, OriginFrom(ctx), s.now())
	if err != nil {
		return nil, "", err
	}

	doc, err := s.fetcher.Fetch(ctx, upstreamURL)
	if err != nil {
		return nil, "", fmt.Errorf("prepscores fetch failed: %w", err)
	}
	defer doc.Body.Close()

	body, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, "", fmt.Errorf("prepscores read failed: %w", err)
	}
	return body, doc.ContentType, nil
}

func (s *PrepScoresSource) FetchMatches(ctx context.Context) ([]Match, error) {
	body, _, err := s.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}

	matches, dropped := s.parseUpstream(string(body))
	if dropped > 0 {
		log.Printf("[%s] dropped %d slab(s) without a data-id", s.cfg.ID, dropped)
	}
	return matches, nil
}

// parseUpstream turns the whole upstream document into Match records,
// filtering id-less slabs at the end so relative order follows the source.
func (s *PrepScoresSource) parseUpstream(html string) ([]Match, int) {
	fragments := splitSlabs(html)

	all := make([]Match, 0, len(fragments))
	for _, frag := range fragments {
		all = append(all, s.parseSlab(frag))
	}

	matches := make([]Match, 0, len(all))
	dropped := 0
	for _, m := range all {
		if m.ID == "" {
			dropped++
			continue
		}
		matches = append(matches, m)
	}
	return matches, dropped
}

// splitSlabs cuts the document on the slab-opening marker. Each tail gets
// the marker prefixed back so a fragment parses as a complete element.
func splitSlabs(html string) []string {
	parts := strings.Split(html, slabMarker)
	if len(parts) < 2 {
		return nil
	}

	fragments := make([]string, 0, len(parts)-1)
	for _, tail := range parts[1:] {
		fragments = append(fragments, slabMarker+tail)
	}
	return fragments
}

// parseSlab extracts one Match from a slab fragment. Every field defaults
// independently; a malformed sub-field never takes the rest of the record
// with it. Only a missing data-id invalidates the slab (signalled by an
// empty ID).
func (s *PrepScoresSource) parseSlab(fragment string) Match {
	var m Match

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return m
	}

	root := doc.Find("div").First()

	if id, ok := root.Attr("data-id"); ok && idRe.MatchString(id) {
		m.ID = id
	}

	m.Date = normalizeSpace(root.Find("div").First().Text())
	m.MatchType = normalizeSpace(root.Find("span").First().Text())

	if v := venueRe.FindStringSubmatch(fragment); v != nil {
		m.Venue = normalizeSpace(v[1])
	}

	m.Status = findStatus(root)
	m.DetailsURL = findDetailsURL(fragment)

	team1Name, team1Score, team2Name, team2Score := findTeamRows(root)
	logo1, logo2 := findLogos(root)
	m.Team1 = teamOrNil(team1Name, team1Score, "", logo1)
	m.Team2 = teamOrNil(team2Name, team2Score, "", logo2)

	m.IsLive = DeriveIsLive(fragment, m.Status)
	m.RawHTML = s.sanitizer.Sanitize(fragment)

	return m
}

// findStatus returns the text of the first div mentioning a status keyword.
func findStatus(root *goquery.Selection) string {
	status := ""
	root.Find("div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := normalizeSpace(sel.Text())
		lower := strings.ToLower(text)
		for _, kw := range statusKeywords {
			if strings.Contains(lower, kw) {
				status = text
				return false
			}
		}
		return true
	})
	return status
}

// findDetailsURL prefers the showModal('…') call, falling back to a bare
// cricketdata.org link; whichever appears, first occurrence wins.
func findDetailsURL(fragment string) string {
	if v := showModalRe.FindStringSubmatch(fragment); v != nil {
		return v[1]
	}
	return detailLinkRe.FindString(fragment)
}

// findTeamRows picks the first two two-celled table rows in document order.
// Extra rows (points tables, toss lines) are ignored.
func findTeamRows(root *goquery.Selection) (name1, score1, name2, score2 string) {
	found := 0
	root.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return true
		}
		name := cells.Eq(0).Text()
		score := cells.Eq(1).Text()
		if found == 0 {
			name1, score1 = name, score
		} else {
			name2, score2 = name, score
		}
		found++
		return found < 2
	})
	return
}

// findLogos assigns up to two criclogo image URLs, in document order.
func findLogos(root *goquery.Selection) (logo1, logo2 *string) {
	root.Find("img.criclogo").EachWithBreak(func(i int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if ok && src != "" {
			if i == 0 {
				logo1 = &src
			} else {
				logo2 = &src
			}
		}
		return i < 1
	})
	return
}
