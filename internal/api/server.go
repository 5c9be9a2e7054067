package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wpsleuth/wpsleuth/internal/cache"
	"github.com/wpsleuth/wpsleuth/internal/config"
	"github.com/wpsleuth/wpsleuth/internal/database"
	"github.com/wpsleuth/wpsleuth/internal/logger"
	"github.com/wpsleuth/wpsleuth/internal/telemetry"
	"github.com/wpsleuth/wpsleuth/pkg/advisory"
	"github.com/wpsleuth/wpsleuth/pkg/wpscan"
)

// Server exposes the scanner over HTTP. The scanning core imposes no rate
// limits or auth of its own; both wrap it here.
type Server struct {
	scanner    *wpscan.Scanner
	store      database.Store
	cache      *cache.ScanCache
	advisories advisory.Store
	telemetry  telemetry.Telemetry
	log        *logger.Logger
	cfg        config.SecurityConfig

	httpServer *http.Server
}

// Options carries the collaborators the server wraps around the scanner.
// Store and Cache may be nil; the corresponding endpoints degrade gracefully.
type Options struct {
	Scanner    *wpscan.Scanner
	Store      database.Store
	Cache      *cache.ScanCache
	Advisories advisory.Store
	Telemetry  telemetry.Telemetry
	Logger     *logger.Logger
	Security   config.SecurityConfig
}

func NewServer(opts Options) *Server {
	return &Server{
		scanner:    opts.Scanner,
		store:      opts.Store,
		cache:      opts.Cache,
		advisories: opts.Advisories,
		telemetry:  opts.Telemetry,
		log:        opts.Logger.WithComponent("api"),
		cfg:        opts.Security,
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(s.log))
	r.Use(CORSMiddleware())
	r.Use(RateLimitMiddleware(s.cfg.RateLimit))
	if s.cfg.EnableAuth {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
	}

	r.GET("/health", s.handleHealth)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/scan", s.handleScan)
		v1.GET("/scans", s.handleListScans)
		v1.GET("/scans/:id", s.handleGetScan)
		v1.GET("/advisories/:slug", s.handleGetAdvisories)
	}
	return r
}

// Start begins serving on addr and blocks until the listener fails or Stop is
// called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Scans run synchronously inside the handler, so the write timeout
		// must exceed the scanner's overall deadline.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infow("API server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
