package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsFunc returns the JSON body of /stats.
type StatsFunc func() any

// Server is the optional status HTTP server.
type Server struct {
	addr   string
	engine *gin.Engine
	logger *log.Logger
}

// NewServer mounts /healthz, /stats and /metrics.
func NewServer(addr string, metrics *Metrics, stats StatsFunc, logger *log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	started := time.Now()
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(started).Round(time.Second).String()})
	})
	r.GET("/stats", func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, stats())
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	}

	return &Server{addr: addr, engine: r, logger: logger}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
