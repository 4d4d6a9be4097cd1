// Package server implements the stintd HTTP API: account and session
// endpoints, the per-user application collection, derived dashboard
// state, and a live event stream fed by the store's pub/sub change
// events.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/stintapp/stint/internal/auth"
	"github.com/stintapp/stint/pkg/tracker"
)

// Server wires the auth service and application store behind a gin
// router. Create one with New and drive it with Run.
type Server struct {
	cfg    *Config
	auth   *auth.Service
	store  *tracker.Client
	engine *gin.Engine
}

// New creates a Server from the given configuration, connecting to
// Redis and registering all routes. Call Close when done.
func New(cfg *Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	authSvc, err := auth.NewService(redisOpts, cfg.Environment, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	store, err := tracker.NewClient(redisOpts, cfg.Environment)
	if err != nil {
		authSvc.Close()
		return nil, fmt.Errorf("failed to create tracker client: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		auth:   authSvc,
		store:  store,
		engine: gin.Default(),
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.GET("/healthz", s.handleHealthz)

	// Browser-facing entry points. These answer with a redirect when
	// the session state says the visitor belongs elsewhere.
	r.GET("/signin", s.handleSignInPage)
	r.GET("/dashboard", s.handleDashboardPage)

	api := r.Group("/api/v1")
	api.POST("/auth/signup", s.handleSignUp)
	api.POST("/auth/signin", s.handleSignIn)
	api.POST("/auth/signout", s.handleSignOut)

	authed := api.Group("", s.requireSession)
	authed.GET("/me", s.handleMe)
	authed.GET("/applications", s.handleListApplications)
	authed.POST("/applications", s.handleCreateApplication)
	authed.GET("/applications/:id", s.handleGetApplication)
	authed.PUT("/applications/:id", s.handleUpdateApplication)
	authed.DELETE("/applications/:id", s.handleDeleteApplication)
	authed.GET("/dashboard", s.handleDashboard)
	authed.GET("/stream", s.handleStream)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", s.cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("[Server] Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
}

// Ping verifies Redis connectivity. Called once at startup so a daemon
// pointed at a dead backend exits instead of serving errors.
func (s *Server) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the Redis connections held by the server.
func (s *Server) Close() error {
	if err := s.auth.Close(); err != nil {
		s.store.Close()
		return err
	}
	return s.store.Close()
}

// logEvent logs a structured event in JSON format. Auth and store
// mutations go through here so log processors can follow account and
// collection activity without parsing free text.
func (s *Server) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "server"
	data["event_type"] = eventType
	data["environment"] = s.cfg.Environment

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Server] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}

// handleHealthz reports whether the daemon can reach Redis. A slow or
// unreachable backend must not hang the probe, so the ping is bounded
// at two seconds.
func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"redis":  "disconnected",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"redis":  "connected",
	})
}
