// Package server exposes the ledger over HTTP with gin.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/monitoring"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Mode:            gin.ReleaseMode,
		ShutdownTimeout: 5 * time.Second,
	}
}

func init() {
	// Keep JSON numbers exact until they reach decimal parsing.
	binding.EnableDecoderUseNumber = true
}

// Server is the HTTP front of the ledger.
type Server struct {
	cfg    Config
	router *gin.Engine
	logger zerolog.Logger
}

// New builds the router for ledger.
func New(cfg Config, ledger Ledger, logger zerolog.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	logger = logger.With().Str("component", "http").Logger()

	g := gin.New()
	g.Use(gin.Recovery(), RequestID(), Logger(logger))

	g.GET("/ping", func(c *gin.Context) {
		Success(c, "pong")
	})
	g.GET("/metrics", gin.WrapH(monitoring.Handler()))

	h := NewHandler(ledger)
	g.GET("/health", h.Health())
	api := g.Group("/api/v1", NoCache())
	{
		tx := api.Group("/transactions")
		tx.POST("", h.PostTransaction())
		tx.POST("/validate", h.ValidateTransaction())
		tx.POST("/check", h.CheckTransaction())

		api.GET("/positions", h.ListPositions())
		api.GET("/positions/:ticker", h.GetPosition())
	}

	return &Server{cfg: cfg, router: g, logger: logger}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return lerrors.Wrapf(err, "server failed on %s", s.cfg.Addr)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return lerrors.Wrap(err, "server shutdown")
	}
	return nil
}
