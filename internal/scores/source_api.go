package scores

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
)

// MatchAPISource reads the JSON current-matches endpoint. The API is
// authoritative for status text, so unlike the HTML scrape there is no
// isLive or rawHtml derivation here.
type MatchAPISource struct {
	cfg     SourceConfig
	fetcher Fetcher
}

func NewMatchAPISource(cfg SourceConfig, fetcher Fetcher) *MatchAPISource {
	return &MatchAPISource{cfg: cfg, fetcher: fetcher}
}

func (s *MatchAPISource) ID() string { return s.cfg.ID }

type apiEnvelope struct {
	Status string     `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Data   []apiMatch `json:"data"`
}

type apiMatch struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	MatchType string        `json:"matchType"`
	Status    string        `json:"status"`
	Venue     string        `json:"venue"`
	Date      string        `json:"date"`
	TeamInfo  []apiTeamInfo `json:"teamInfo"`
	Score     []apiInning   `json:"score"`
}

type apiTeamInfo struct {
	Name      string `json:"name"`
	Shortname string `json:"shortname"`
	Img       string `json:"img"`
}

type apiInning struct {
	Runs    int     `json:"r"`
	Wickets int     `json:"w"`
	Overs   float64 `json:"o"`
	Inning  string  `json:"inning"`
}

func (s *MatchAPISource) upstreamURL() (string, error) {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid upstream URL: %w", err)
	}
	q := u.Query()
	q.Set("apikey", s.cfg.APIKey())
	q.Set("offset", "0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchRaw returns the undecoded upstream response body, for diagnostics.
func (s *MatchAPISource) FetchRaw(ctx context.Context) ([]byte, string, error) {
	upstreamURL, err := s.upstreamURL()
	if err != nil {
		return nil, "", err
	}

	doc, err := s.fetcher.Fetch(ctx, upstreamURL)
	if err != nil {
		return nil, "", fmt.Errorf("match API fetch failed: %w", err)
	}
	defer doc.Body.Close()

	body, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, "", fmt.Errorf("match API read failed: %w", err)
	}
	return body, doc.ContentType, nil
}

func (s *MatchAPISource) FetchMatches(ctx context.Context) ([]Match, error) {
	body, _, err := s.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("match API decode failed: %w", err)
	}
	if envelope.Status != "success" {
		if envelope.Reason != "" {
			return nil, fmt.Errorf("match API returned %q: %s", envelope.Status, envelope.Reason)
		}
		return nil, fmt.Errorf("match API returned status %q", envelope.Status)
	}

	matches := make([]Match, 0, len(envelope.Data))
	dropped := 0
	for _, am := range envelope.Data {
		if am.ID == "" {
			dropped++
			continue
		}
		matches = append(matches, mapAPIMatch(am))
	}
	if dropped > 0 {
		log.Printf("[%s] dropped %d match(es) without an id", s.cfg.ID, dropped)
	}
	return matches, nil
}

// mapAPIMatch maps one upstream record onto the canonical shape. Teams come
// from teamInfo[0..1]; each side's score is looked up in the innings array
// by matching the inning label against the team name.
func mapAPIMatch(am apiMatch) Match {
	m := Match{
		ID:        am.ID,
		MatchType: normalizeSpace(am.MatchType),
		Date:      normalizeSpace(am.Date),
		Venue:     normalizeSpace(am.Venue),
		Status:    normalizeSpace(am.Status),
	}

	for i, info := range am.TeamInfo {
		if i > 1 {
			break
		}
		var logo *string
		if info.Img != "" {
			img := info.Img
			logo = &img
		}
		team := teamOrNil(info.Name, scoreForTeam(am.Score, info.Name), strings.ToUpper(info.Shortname), logo)
		if i == 0 {
			m.Team1 = team
		} else {
			m.Team2 = team
		}
	}

	return m
}

// scoreForTeam finds the innings entry whose label mentions the team and
// renders it as "runs/wickets (overs)". Unmatched teams get an empty score.
func scoreForTeam(innings []apiInning, teamName string) string {
	teamName = normalizeSpace(teamName)
	if teamName == "" {
		return ""
	}
	for _, in := range innings {
		if strings.Contains(strings.ToLower(in.Inning), strings.ToLower(teamName)) {
			return strconv.Itoa(in.Runs) + "/" + strconv.Itoa(in.Wickets) +
				" (" + strconv.FormatFloat(in.Overs, 'f', -1, 64) + ")"
		}
	}
	return ""
}
