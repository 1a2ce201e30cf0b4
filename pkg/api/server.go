// Package api provides the ops-only HTTP surface: a liveness/readiness
// probe and a Prometheus scrape endpoint. Adapted from the teacher's
// pkg/api/server.go bootstrap shape (a struct wrapping the HTTP
// framework, a setupRoutes pass, Start/Shutdown pair) but trimmed down
// to these two routes — webhook ingestion, a dashboard, and
// session/trace endpoints are all explicit Non-goals here (spec.md
// §1/§6).
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vydata/orchestrator/pkg/config"
	"github.com/vydata/orchestrator/pkg/database"
	"github.com/vydata/orchestrator/pkg/metrics"
	"github.com/vydata/orchestrator/pkg/queue"
)

// Server is the ops HTTP server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        *config.Config
	dbClient   *database.Client
	pool       *queue.Pool
	metrics    *metrics.Registry
}

// NewServer builds a Server and registers its routes. pool may be nil
// (health still reports database status; pool-health is simply
// omitted from the response).
func NewServer(addr string, cfg *config.Config, dbClient *database.Client, pool *queue.Pool, reg *metrics.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	s := &Server{
		engine:   e,
		cfg:      cfg,
		dbClient: dbClient,
		pool:     pool,
		metrics:  reg,
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
	s.setupRoutes()
	s.httpServer.Handler = e
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

type healthResponse struct {
	Status    string           `json:"status"`
	Database  *dbHealthSummary `json:"database,omitempty"`
	Queue     *queue.PoolHealth `json:"queue,omitempty"`
	Config    config.Stats     `json:"config"`
}

type dbHealthSummary struct {
	Status          string `json:"status"`
	ResponseTimeMS  int64  `json:"response_time_ms"`
	OpenConnections int    `json:"open_connections"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{Status: "ok"}
	if s.cfg != nil {
		resp.Config = s.cfg.Stats()
	}
	if s.pool != nil {
		resp.Queue = s.pool.Health()
	}

	code := http.StatusOK
	if s.dbClient != nil {
		hs, err := database.Health(c.Request.Context(), s.dbClient.DB())
		if err != nil || hs.Status != "healthy" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if hs != nil {
			resp.Database = &dbHealthSummary{
				Status:          hs.Status,
				ResponseTimeMS:  hs.ResponseTime.Milliseconds(),
				OpenConnections: hs.OpenConnections,
			}
		}
	}
	c.JSON(code, resp)
}

// Start runs the HTTP server until the process is asked to stop. It
// blocks; callers run it in its own goroutine.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
