// Package server exposes the aggregation layer as a JSON API.
//
// Every request resolves the cached bundle through the dataset loader, so
// repeated calls inside the cache window share one snapshot. The snapshot id
// is echoed in the X-Snapshot-ID header.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaramelBytes/talentflow-cli/internal/analysis"
	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// SnapshotHeader carries the id of the bundle a response was computed from.
const SnapshotHeader = "X-Snapshot-ID"

// Options configures a Server.
type Options struct {
	// Filter is applied when a request sets no filter parameters.
	Filter analysis.Filter
	// Analysis holds view sizes and windows.
	Analysis analysis.Options
	Logger   *slog.Logger
}

// Server serves the dashboard views over HTTP.
type Server struct {
	loader *dataset.Loader
	opts   Options
	log    *slog.Logger
	engine *gin.Engine
}

// New builds a server and its routes.
func New(loader *dataset.Loader, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Analysis == (analysis.Options{}) {
		opts.Analysis = analysis.DefaultOptions()
	}
	s := &Server{loader: loader, opts: opts, log: opts.Logger}
	s.engine = s.routes()
	return s
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/summary", s.withBundle(s.handleSummary))
	v1.GET("/balance", s.withBundle(s.handleBalance))
	v1.GET("/top/emitters", s.withBundle(s.handleTopEmitters))
	v1.GET("/top/receivers", s.withBundle(s.handleTopReceivers))
	v1.GET("/top/corridors", s.withBundle(s.handleTopCorridors))
	v1.GET("/regions", s.withBundle(s.handleRegions))
	v1.GET("/correlations", s.withBundle(s.handleCorrelations))
	v1.GET("/clusters", s.withBundle(s.handleClusters))
	v1.GET("/economy", s.withBundle(s.handleEconomy))
	v1.GET("/timeline", s.withBundle(s.handleTimeline))
	v1.GET("/dashboard", s.withBundle(s.handleDashboard))
	v1.POST("/cache/purge", s.handlePurge)
	return r
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr, "data_dir", s.loader.Dir())
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
