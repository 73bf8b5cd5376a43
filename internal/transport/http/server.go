// Package http exposes a read-only monitoring surface over the running
// engine: gin.New with Recovery and request-logging middleware,
// graceful shutdown on context cancellation, and a handful of GET
// routes. There is no control-plane route here — no remote kill-switch
// override, no remote order placement — on purpose, so the HTTP
// surface can never perturb the pipeline's deterministic ordering.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradeengine/internal/execution"
	"tradeengine/internal/logger"
	"tradeengine/internal/portfolio"
)

// Server serves /health, /portfolio, /positions and /state/:symbol.
type Server struct {
	addr   string
	router *gin.Engine
}

// Config wires the server to the components it reports on.
type Config struct {
	Addr      string
	Portfolio *portfolio.Manager
	Engine    *execution.Engine
	Symbols   []string
	Log       *logger.Logger
}

// New builds a Server. It never fails: every handler checks its
// dependency for nil at request time rather than at construction, since
// a monitoring surface degrading to 503s beats refusing to start.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Log))

	h := &handlers{portfolioMgr: cfg.Portfolio, engine: cfg.Engine, symbols: cfg.Symbols}
	router.GET("/health", h.health)
	router.GET("/portfolio", h.portfolio)
	router.GET("/positions", h.positions)
	router.GET("/state/:symbol", h.state)

	return &Server{addr: cfg.Addr, router: router}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled, then shuts down gracefully with a
// 5s drain timeout.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		if log == nil {
			return
		}
		log.Debugf("http %s %s status=%d dur=%s", method, path, c.Writer.Status(), time.Since(start))
	}
}
