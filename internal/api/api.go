// Package api serves the run history over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glefebvre/mediasorter/internal/history"
	"github.com/glefebvre/mediasorter/internal/logger"
)

// HistoryStore is the read side of the history database
type HistoryStore interface {
	HealthCheck() error
	ListRuns(ctx context.Context, limit, offset int) ([]history.Run, int64, error)
	GetRun(ctx context.Context, id string) (*history.Run, error)
	ListPlacements(ctx context.Context, filter history.PlacementFilter) ([]history.Placement, int64, error)
}

// Server represents the API server
type Server struct {
	router *gin.Engine
	store  HistoryStore
	log    *logger.Logger
	http   *http.Server
}

// NewServer creates a new API server instance
func NewServer(store HistoryStore, log *logger.Logger, corsOrigins []string) *Server {
	if log == nil {
		log = logger.Discard()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		requestIDMiddleware(),
		loggingMiddleware(log),
		errorHandlerMiddleware(log),
		corsMiddleware(corsOrigins),
	)

	s := &Server{
		router: router,
		store:  store,
		log:    log,
	}

	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the API server on the specified port and blocks until it is
// shut down.
func (s *Server) Run(port int) error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info(fmt.Sprintf("History API listening on :%d", port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/runs", s.listRuns)
		v1.GET("/runs/:id", s.getRun)
		v1.GET("/placements", s.listPlacements)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
		if len(origins) == 0 {
			cfg.AllowOrigins = []string{"http://localhost"}
		}
	}
	return cors.New(cfg)
}
