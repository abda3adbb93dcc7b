package api

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rahulv/cricfeed/internal/ai"
	"github.com/rahulv/cricfeed/internal/auth"
	"github.com/rahulv/cricfeed/internal/scores"
)

// maxTrackedJobs bounds the commentary job map; finished jobs past the cap
// are evicted oldest-first.
const maxTrackedJobs = 32

type Server struct {
	Echo        *echo.Echo
	AuthService *auth.Service
	Registry    *scores.Registry
	Source      scores.ScoreSource
	AI          *ai.Client

	// Background commentary job tracking
	jobMu    sync.Mutex
	jobs     map[string]*commentaryJob
	jobOrder []string
}

type commentaryJob struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	Status    string    `json:"status"` // running, completed, failed
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

func NewServer(reg *scores.Registry, source scores.ScoreSource, aiClient *ai.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow widget origins from env or default to localhost dev server
	allowedOrigins := []string{"http://localhost:5173"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		Echo:        e,
		AuthService: auth.NewService(),
		Registry:    reg,
		Source:      source,
		AI:          aiClient,
		jobs:        make(map[string]*commentaryJob),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api")
	api.GET("/live-scores", s.handleLiveScores)
	// Legacy route name the widget still polls.
	api.GET("/cric-prepscores-json", s.handleLiveScores)
	api.POST("/ai-commentary", s.handleCommentary)
	api.GET("/sources", s.handleGetSources)

	api.POST("/admin/login", s.handleAdminLogin)

	admin := api.Group("/admin")
	admin.Use(auth.Middleware)
	admin.GET("/upstream/:id", s.handleAdminUpstream)
	admin.GET("/job/:id", s.handleJobStatus)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
