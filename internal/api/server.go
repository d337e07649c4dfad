// Package api exposes an optional HTTP surface over the forwarder's
// heartbeat and tracking state.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pterm/pterm"

	"docklog/internal/ingestion"
)

// StatusProvider yields the scheduler's last published snapshot.
type StatusProvider interface {
	Status() ingestion.Status
}

// Server is the status HTTP server.
type Server struct {
	server *http.Server
	logger *pterm.Logger
}

// Config holds status server settings.
type Config struct {
	Host string
	Port int
}

// NewServer creates the status server. It only reads the scheduler's
// published snapshot; it never touches tracking state directly.
func NewServer(cfg *Config, provider StatusProvider, logger *pterm.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		status := provider.Status()
		code := http.StatusOK
		if !status.Running {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    healthWord(status.Running),
			"last_tick": status.LastTick,
			"sources":   status.SourceNames,
		})
	})

	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, provider.Status())
	})

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func healthWord(running bool) string {
	if running {
		return "healthy"
	}
	return "stopped"
}

// Run starts the HTTP server and blocks until it is shut down.
func (s *Server) Run() error {
	s.logger.Info("Starting status server", s.logger.Args("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.WithCaller().Error("Status server failed", s.logger.Args("error", err))
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
