// Package mockapi serves a deterministic in-process analytics API for
// development and examples. It mirrors the endpoints the data service
// consumes and supports failure injection for exercising the client's
// retry behavior.
package mockapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/statviz/dashkit/dataservice"
	"github.com/statviz/dashkit/logger"
)

// Config configures the mock API server.
type Config struct {
	// Host defaults to 127.0.0.1.
	Host string
	// Port to listen on. 0 picks a free port.
	Port int
	// Seed makes the generated data reproducible.
	Seed int64
}

// Server is the mock analytics API.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	data       *dataservice.MockProvider
	log        *logger.Logger
	addr       string

	mu    sync.Mutex
	flaky map[string]int
}

// New creates a mock API server.
func New(cfg Config, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}

	s := &Server{
		engine: gin.New(),
		data:   dataservice.NewMockProvider(cfg.Seed),
		log:    log.WithComponent("mockapi"),
		flaky:  make(map[string]int),
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestID())
	s.engine.Use(s.failureInjection())
	s.routes()

	return s
}

// Router returns the gin engine, for mounting in tests.
func (s *Server) Router() http.Handler {
	return s.engine
}

// Addr returns the bound address. Valid after Start.
func (s *Server) Addr() string {
	return s.addr
}

// BaseURL returns the API base URL. Valid after Start.
func (s *Server) BaseURL() string {
	return "http://" + s.addr + "/api"
}

// Start binds the port and serves in the background. It returns once the
// listener is bound so callers know the port is ready.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("mockapi: listen %s: %w", s.httpServer.Addr, err)
	}
	s.addr = ln.Addr().String()

	s.log.Info("Mock API listening", logger.Fields(logger.FieldURL, s.BaseURL()))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("Mock API stopped", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	return nil
}

// Shutdown drains and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.GET("/metrics/:name", s.handleMetrics)
	api.GET("/alerts", s.handleAlerts)
	api.POST("/alerts/:id/ack", s.handleAcknowledge)
	api.GET("/summary", s.handleSummary)
}

func (s *Server) handleMetrics(c *gin.Context) {
	name := c.Param("name")
	window := c.DefaultQuery("window", "24h")

	d, err := time.ParseDuration(window)
	if err != nil || d <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bad window parameter"})
		return
	}

	// One point per 15 minutes over the window, capped to keep payloads small.
	points := int(d / (15 * time.Minute))
	points = min(max(points, 2), 500)

	c.JSON(http.StatusOK, s.data.Series(name, points))
}

func (s *Server) handleAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, s.data.Alerts(6))
}

func (s *Server) handleAcknowledge(c *gin.Context) {
	if c.Param("id") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing alert id"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.data.Summary())
}

// requestID stamps responses with an X-Request-Id, preserving the caller's.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// failureInjection honors two query parameters on any endpoint:
// ?fail=<status> always responds with that status, and ?flaky=<n> fails
// the first n requests to the path with 503 and succeeds afterwards.
func (s *Server) failureInjection() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.Query("fail"); raw != "" {
			status, err := strconv.Atoi(raw)
			if err == nil && status >= 400 && status < 600 {
				c.AbortWithStatusJSON(status, gin.H{"message": "injected failure"})
				return
			}
		}

		if raw := c.Query("flaky"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err == nil && n > 0 {
				s.mu.Lock()
				seen := s.flaky[c.FullPath()]
				s.flaky[c.FullPath()] = seen + 1
				s.mu.Unlock()

				if seen < n {
					c.AbortWithStatusJSON(http.StatusServiceUnavailable,
						gin.H{"message": "injected transient failure"})
					return
				}
			}
		}

		c.Next()
	}
}
