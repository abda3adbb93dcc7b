package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rahulv/cricfeed/internal/ai"
	"github.com/rahulv/cricfeed/internal/auth"
	"github.com/rahulv/cricfeed/internal/scores"
)

// matchesResponse is the one contract the widget has to handle: always HTTP
// 200, always a matches array. A degraded cycle carries an error string next
// to an empty list instead of a non-JSON failure.
type matchesResponse struct {
	Error   string         `json:"error,omitempty"`
	Matches []scores.Match `json:"matches"`
}

const scoreCacheControl = "public, s-maxage=10, stale-while-revalidate=30"

func (s *Server) handleLiveScores(c echo.Context) error {
	origin := c.Request().Header.Get("Referer")
	if origin == "" {
		origin = c.Request().Host
	}
	ctx := scores.WithOrigin(c.Request().Context(), origin)

	c.Response().Header().Set("Cache-Control", scoreCacheControl)

	matches, err := s.Source.FetchMatches(ctx)
	if err != nil {
		log.Printf("[%s] upstream fetch failed: %v", s.Source.ID(), err)
		return c.JSON(http.StatusOK, matchesResponse{
			Error:   "upstream unavailable",
			Matches: []scores.Match{},
		})
	}

	if matches == nil {
		matches = []scores.Match{}
	}

	// Commentary rides along as a detached task on the first match; the
	// response never waits for it.
	if len(matches) > 0 {
		s.spawnCommentaryJob(matches[0])
	}

	return c.JSON(http.StatusOK, matchesResponse{Matches: matches})
}

type commentaryRequest struct {
	MatchData json.RawMessage `json:"matchData"`
}

type commentaryResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleCommentary(c echo.Context) error {
	var req commentaryRequest
	if err := c.Bind(&req); err != nil || len(req.MatchData) == 0 {
		// Even a garbage body degrades to the fallback line, not an error.
		return c.JSON(http.StatusOK, commentaryResponse{Text: ai.FallbackCommentary})
	}

	text, err := s.AI.GenerateCommentary(c.Request().Context(), req.MatchData)
	if err != nil {
		log.Printf("[commentary] model call failed: %v", err)
		return c.JSON(http.StatusOK, commentaryResponse{Text: ai.FallbackCommentary})
	}

	return c.JSON(http.StatusOK, commentaryResponse{Text: text})
}

// spawnCommentaryJob runs the model call in the background with its own
// context and error boundary. Failures are recorded on the job and logged,
// never propagated to the request that spawned it.
func (s *Server) spawnCommentaryJob(match scores.Match) {
	job := &commentaryJob{
		ID:        uuid.NewString(),
		MatchID:   match.ID,
		Status:    "running",
		StartedAt: time.Now(),
	}
	s.trackJob(job)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		text, err := s.AI.GenerateCommentary(ctx, match)

		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			log.Printf("[commentary] job %s for match %s failed: %v", job.ID, job.MatchID, err)
			return
		}
		job.Status = "completed"
		job.Text = text
		log.Printf("[commentary] job %s for match %s: %s", job.ID, job.MatchID, text)
	}()
}

func (s *Server) trackJob(job *commentaryJob) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	s.jobs[job.ID] = job
	s.jobOrder = append(s.jobOrder, job.ID)
	for len(s.jobOrder) > maxTrackedJobs {
		oldest := s.jobOrder[0]
		s.jobOrder = s.jobOrder[1:]
		delete(s.jobs, oldest)
	}
}

func (s *Server) handleJobStatus(c echo.Context) error {
	id := c.Param("id")

	s.jobMu.Lock()
	job, ok := s.jobs[id]
	var snapshot commentaryJob
	if ok {
		snapshot = *job
	}
	s.jobMu.Unlock()

	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, snapshot)
}

type sourceInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Active   bool   `json:"active"`
	Selected bool   `json:"selected"`
}

func (s *Server) handleGetSources(c echo.Context) error {
	infos := make([]sourceInfo, 0, len(s.Registry.Sources))
	for _, src := range s.Registry.Sources {
		infos = append(infos, sourceInfo{
			ID:       src.ID,
			Name:     src.Name,
			Strategy: string(src.Strategy),
			Active:   src.Active,
			Selected: src.ID == s.Source.ID(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"sources": infos})
}

func (s *Server) handleAdminLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) || errors.Is(err, auth.ErrNotConfigured) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

// handleAdminUpstream returns a source's raw upstream payload so an operator
// can see what the third party is serving when extraction dries up.
func (s *Server) handleAdminUpstream(c echo.Context) error {
	id := c.Param("id")
	cfg, ok := s.Registry.Source(id)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown source"})
	}

	source, err := scores.Build(cfg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	raw, ok := source.(scores.RawFetcher)
	if !ok {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "source does not expose raw payloads"})
	}

	origin := c.Request().Header.Get("Referer")
	if origin == "" {
		origin = c.Request().Host
	}
	ctx := scores.WithOrigin(c.Request().Context(), origin)

	body, contentType, err := raw.FetchRaw(ctx)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	return c.Blob(http.StatusOK, contentType, body)
}
