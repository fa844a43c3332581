// Package server exposes the HTTP trigger for the ingestion pipeline.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mujaz/ingest/internal/ingest"
	"github.com/mujaz/ingest/internal/metrics"
)

// Runner executes one ingestion pass. Satisfied by *ingest.Pipeline.
type Runner interface {
	Run(ctx context.Context, limit int) (*ingest.Report, error)
}

// Server is the HTTP trigger: POST /ingest kicks a pass, GET /health
// and GET /metrics report state.
type Server struct {
	engine         *gin.Engine
	runner         Runner
	log            *slog.Logger
	allowedOrigins []string
	serviceKey     string
}

type ingestRequest struct {
	Limit int `json:"limit"`
}

// New builds the router. allowedOrigins must not be empty; the first
// entry doubles as the safe CORS default for unknown origins. A
// non-empty serviceKey makes POST /ingest require it as a bearer token.
func New(runner Runner, allowedOrigins []string, serviceKey string, log *slog.Logger, debug bool) *Server {
	if log == nil {
		log = slog.Default()
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:         gin.New(),
		runner:         runner,
		log:            log,
		allowedOrigins: allowedOrigins,
		serviceKey:     serviceKey,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.corsMiddleware())

	s.engine.POST("/ingest", s.handleIngest)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", s.handleMetrics)

	return s
}

// Handler exposes the router (used by tests and by Start).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info("🌐 HTTP trigger listening", "addr", addr)
	return s.engine.Run(addr)
}

// corsMiddleware echoes allowlisted origins back. Unknown origins get
// the first allowlisted origin instead, never the wildcard, so a
// hostile page cannot read responses cross-origin.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := s.allowedOrigins[0]
		for _, o := range s.allowedOrigins {
			if o == origin {
				allowed = origin
				break
			}
		}

		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) handleIngest(c *gin.Context) {
	if s.serviceKey != "" && c.GetHeader("Authorization") != "Bearer "+s.serviceKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ingestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	report, err := s.runner.Run(c.Request.Context(), req.Limit)
	if err != nil {
		s.log.Error("❌ ingestion pass failed", "error", err)
		metrics.Global.SetError(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"sources_processed":      report.SourcesProcessed,
			"total_articles_fetched": report.TotalArticlesFetched,
			"total_new_articles":     report.TotalNewArticles,
			"duration_ms":            report.Duration.Milliseconds(),
			"errors":                 report.Errors,
		},
		"results": report.Results,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Global.GetStats())
}
