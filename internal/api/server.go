// Package api exposes the HTTP surface: the execution webhook the operator
// clicks from a notification, plus health and scanner introspection.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"crypto-signal-bot/internal/bracket"
	"crypto-signal-bot/internal/database"
	"crypto-signal-bot/internal/scanner"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host           string
	Port           int
	WebhookToken   string
	ProductionMode bool
}

// Server represents the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	scanner    *scanner.Scanner
	executor   *bracket.Executor
	repo       *database.Repository
	config     ServerConfig
	logger     zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(
	config ServerConfig,
	scan *scanner.Scanner,
	executor *bracket.Executor,
	repo *database.Repository,
	logger zerolog.Logger,
) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	componentLogger := logger.With().Str("component", "api").Logger()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(componentLogger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:   router,
		scanner:  scan,
		executor: executor,
		repo:     repo,
		config:   config,
		logger:   componentLogger,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	// The token path segment is the shared secret from the notification link.
	s.router.GET("/webhook/:token", s.handleExecute)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/scanner/status", s.handleScannerStatus)
		v1.POST("/scanner/scan", s.handleScanTrigger)
		v1.GET("/executions", s.handleRecentExecutions)
	}
}

// Start runs the HTTP server in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("http server error")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("api server listening")
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// requestLogger logs each request at debug so production logs stay quiet
// while the webhook path remains traceable.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
