package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"LinkSentry/internal/domain"
	"LinkSentry/internal/ports"
)

const pendingReviewLimit = 50

// URLChecker is the slice of the pipeline the HTTP surface needs.
type URLChecker interface {
	CheckURL(ctx context.Context, rawURL string) domain.CheckResult
	ApplyReview(ctx context.Context, rawURL string, verdict domain.Verdict) error
}

// StatsSource exposes accumulated counters for the admin surface.
type StatsSource interface {
	Stats(ctx context.Context) (map[string]int64, error)
}

// Server exposes the check endpoint plus the admin review surface over HTTP.
type Server struct {
	checker URLChecker
	reviews ports.ReviewLog
	stats   StatsSource
	apiKey  string
	logger  *slog.Logger
	engine  *gin.Engine
}

// NewServer builds the router. An empty apiKey leaves the admin routes open,
// which is only acceptable in local development.
func NewServer(checker URLChecker, reviews ports.ReviewLog, stats StatsSource, apiKey string, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		checker: checker,
		reviews: reviews,
		stats:   stats,
		apiKey:  apiKey,
		logger:  logger,
		engine:  gin.New(),
	}

	s.engine.Use(gin.Recovery())

	s.engine.GET("/health", s.health)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/check-phishing", s.checkPhishing)

	admin := v1.Group("/admin", s.requireAPIKey)
	admin.GET("/reviews", s.listReviews)
	admin.POST("/review", s.applyReview)
	admin.GET("/stats", s.adminStats)

	return s
}

// Handler returns the underlying http.Handler for mounting or testing.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type checkRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) checkPhishing(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	result := s.checker.CheckURL(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, result)
}

func (s *Server) requireAPIKey(c *gin.Context) {
	if s.apiKey == "" {
		c.Next()
		return
	}
	if c.GetHeader("X-API-Key") != s.apiKey {
		s.warn("admin request rejected", "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid API key"})
		return
	}
	c.Next()
}

func (s *Server) listReviews(c *gin.Context) {
	pending, err := s.reviews.Pending(c.Request.Context(), pendingReviewLimit)
	if err != nil {
		s.warn("pending reviews query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": pending, "count": len(pending)})
}

type reviewRequest struct {
	RawURL string `json:"raw_url" binding:"required"`
	Safe   *int   `json:"safe" binding:"required"`
}

func (s *Server) applyReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "raw_url and safe are required"})
		return
	}

	verdict := domain.Verdict(*req.Safe)
	if !verdict.Known() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "safe must be 0 or 1"})
		return
	}

	if err := s.checker.ApplyReview(c.Request.Context(), req.RawURL, verdict); err != nil {
		s.warn("apply review failed", "url", req.RawURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot apply review"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"raw_url": req.RawURL, "safe": int(verdict)})
}

func (s *Server) adminStats(c *gin.Context) {
	if s.stats == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	stats, err := s.stats.Stats(c.Request.Context())
	if err != nil {
		s.warn("stats query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
