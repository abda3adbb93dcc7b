package scores

import (
	"context"
	"io"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"
)

const liveSlabHTML = `<div class="cric-slab" data-id="3fa85f64-5717-4562-b3fc-2c963f66afa6">
  <div>Aug 30, 2026</div>
  <span>T20</span>
  <p>At <b>Wankhede Stadium</b></p>
  <table>
    <tr><td>India</td><td>185/4 (18.2)</td></tr>
    <tr><td>South Africa</td><td>184/7 (20)</td></tr>
    <tr><td colspan="2">Toss: India chose to bowl</td></tr>
  </table>
  <img class="criclogo" src="https://cdn.example.com/ind.png">
  <img class="criclogo" src="https://cdn.example.com/rsa.png">
  <div>India need 12 runs in 10 balls</div>
  <a onclick="cricapi.showModal('https://cricketdata.org/match/3fa85f64')">Scorecard</a>
  <script>trackImpression("3fa85f64");</script>
</div>`

const finishedSlabHTML = `<div class="cric-slab" data-id="9b2f1c70-aaaa-4d11-9c2e-000000000002">
  <div>Aug 29, 2026</div>
  <span>ODI</span>
  <p>At <b>Eden Gardens</b></p>
  <table>
    <tr><td>India</td><td>302/6 (50)</td></tr>
    <tr><td>Australia</td><td>255 (47.1)</td></tr>
  </table>
  <div>India won by 47 runs</div>
  <a href="https://cricketdata.org/match/9b2f1c70">Full scorecard</a>
</div>`

const orphanSlabHTML = `<div class="cric-slab">
  <div>Postponed</div>
</div>`

func newTestSource() *PrepScoresSource {
	return NewPrepScoresSource(SourceConfig{ID: "prepscores", BaseURL: "https://upstream.example/prepscores"}, nil)
}

func TestParseSlabFullExtraction(t *testing.T) {
	s := newTestSource()
	m := s.parseSlab(liveSlabHTML)

	if m.ID != "3fa85f64-5717-4562-b3fc-2c963f66afa6" {
		t.Fatalf("unexpected id %q", m.ID)
	}
	if m.Date != "Aug 30, 2026" {
		t.Errorf("date = %q", m.Date)
	}
	if m.MatchType != "T20" {
		t.Errorf("matchType = %q", m.MatchType)
	}
	if m.Venue != "Wankhede Stadium" {
		t.Errorf("venue = %q", m.Venue)
	}
	if m.Status != "India need 12 runs in 10 balls" {
		t.Errorf("status = %q", m.Status)
	}
	if m.DetailsURL != "https://cricketdata.org/match/3fa85f64" {
		t.Errorf("detailsUrl = %q", m.DetailsURL)
	}
	if !m.IsLive {
		t.Error("expected isLive for an active chase")
	}

	if m.Team1 == nil || m.Team2 == nil {
		t.Fatalf("expected both teams, got %+v / %+v", m.Team1, m.Team2)
	}
	if m.Team1.Name != "India" || m.Team1.Score != "185/4 (18.2)" {
		t.Errorf("team1 = %+v", m.Team1)
	}
	// "India" is five runes, so it falls to the acronym rule: one word, one initial.
	if m.Team1.Short != "I" {
		t.Errorf("team1.short = %q, want single-word initial", m.Team1.Short)
	}
	if m.Team2.Name != "South Africa" || m.Team2.Short != "SA" {
		t.Errorf("team2 = %+v", m.Team2)
	}
	if m.Team1.Logo == nil || *m.Team1.Logo != "https://cdn.example.com/ind.png" {
		t.Errorf("team1.logo = %v", m.Team1.Logo)
	}
	if m.Team2.Logo == nil || *m.Team2.Logo != "https://cdn.example.com/rsa.png" {
		t.Errorf("team2.logo = %v", m.Team2.Logo)
	}
}

func TestParseSlabStripsScripts(t *testing.T) {
	s := newTestSource()
	m := s.parseSlab(liveSlabHTML)

	if m.RawHTML == "" {
		t.Fatal("expected sanitized rawHtml")
	}
	if strings.Contains(m.RawHTML, "<script") || strings.Contains(m.RawHTML, "trackImpression") {
		t.Errorf("script content leaked into rawHtml: %s", m.RawHTML)
	}
	if !strings.Contains(m.RawHTML, "data-id=") {
		t.Error("data-id attribute should survive sanitization")
	}
	if !strings.Contains(m.RawHTML, "185/4") {
		t.Error("score text should survive sanitization")
	}
}

func TestParseSlabFinishedMatch(t *testing.T) {
	s := newTestSource()
	m := s.parseSlab(finishedSlabHTML)

	if m.Status != "India won by 47 runs" {
		t.Errorf("status = %q", m.Status)
	}
	if m.IsLive {
		t.Error("a decided match must not be live")
	}
	if m.DetailsURL != "https://cricketdata.org/match/9b2f1c70" {
		t.Errorf("bare details link not picked up: %q", m.DetailsURL)
	}
}

func TestParseSlabDefaultsIndependently(t *testing.T) {
	s := newTestSource()
	m := s.parseSlab(`<div class="cric-slab" data-id="aaaa1111-0000-4000-8000-000000000001"></div>`)

	if m.ID == "" {
		t.Fatal("id should survive an otherwise empty slab")
	}
	if m.Date != "" || m.MatchType != "" || m.Venue != "" || m.Status != "" || m.DetailsURL != "" {
		t.Errorf("empty slab should default all fields, got %+v", m)
	}
	if m.Team1 != nil || m.Team2 != nil {
		t.Errorf("expected no teams, got %+v / %+v", m.Team1, m.Team2)
	}
}

func TestParseUpstreamFiltersIDLessSlabs(t *testing.T) {
	s := newTestSource()
	page := "<html><body><h1>Scores</h1>" + liveSlabHTML + orphanSlabHTML + finishedSlabHTML + "</body></html>"

	matches, dropped := s.parseUpstream(page)

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if dropped != 1 {
		t.Errorf("expected 1 dropped slab, got %d", dropped)
	}
	// Relative order follows the source document.
	if matches[0].ID != "3fa85f64-5717-4562-b3fc-2c963f66afa6" {
		t.Errorf("matches[0].ID = %q", matches[0].ID)
	}
	if matches[1].ID != "9b2f1c70-aaaa-4d11-9c2e-000000000002" {
		t.Errorf("matches[1].ID = %q", matches[1].ID)
	}
}

func TestParseUpstreamIdempotent(t *testing.T) {
	s := newTestSource()
	page := liveSlabHTML + finishedSlabHTML

	first, _ := s.parseUpstream(page)
	second, _ := s.parseUpstream(page)

	if !reflect.DeepEqual(first, second) {
		t.Error("normalizing the same payload twice should be byte-identical")
	}
}

func TestParseUpstreamNoSlabs(t *testing.T) {
	s := newTestSource()
	matches, dropped := s.parseUpstream("<html><body>maintenance page</body></html>")
	if len(matches) != 0 || dropped != 0 {
		t.Errorf("expected nothing from a slab-less page, got %d/%d", len(matches), dropped)
	}
}

type stubFetcher struct {
	body     string
	err      error
	lastURL  string
	numCalls int
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	f.lastURL = url
	f.numCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &FetchedDocument{
		URL:         url,
		StatusCode:  200,
		ContentType: "text/html",
		Body:        io.NopCloser(strings.NewReader(f.body)),
		FetchedAt:   time.Now(),
	}, nil
}

func TestFetchMatchesBuildsHotlinkToken(t *testing.T) {
	fetcher := &stubFetcher{body: liveSlabHTML}
	s := NewPrepScoresSource(SourceConfig{ID: "prepscores", BaseURL: "https://upstream.example/prepscores"}, fetcher)
	s.now = func() time.Time { return time.UnixMilli(1_700_000_123_456) }

	ctx := WithOrigin(context.Background(), "https://news.example/live")
	matches, err := s.FetchMatches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if fetcher.numCalls != 1 {
		t.Errorf("expected exactly one upstream call, got %d", fetcher.numCalls)
	}

	u, err := url.Parse(fetcher.lastURL)
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Query().Get("k"); got != "340000024" {
		t.Errorf("k token = %q, want 5-second bucket 340000024", got)
	}
	if got := u.Query().Get("r"); got != "https://news.example/live" {
		t.Errorf("r param = %q", got)
	}
}
