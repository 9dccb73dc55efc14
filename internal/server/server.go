// Package server exposes the scoring pipeline over HTTP: score by path,
// score an uploaded CSV, and report artifact health.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/repository"
	"github.com/gsuchecki40/formula-one-scorer/internal/scoring"
)

// Version is set at build time via -ldflags
var Version = "dev"

// DatabasePinger reports database connectivity for readiness checks.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// Server is the scoring HTTP service.
type Server struct {
	cfg    *config.Config
	scorer *scoring.Scorer
	repo   repository.ScoringRunRepository
	db     DatabasePinger
	cache  *gocache.Cache
	cron   *cron.Cron
	logger *logrus.Logger

	httpServer *http.Server
}

// New creates the scoring server. repo and db may be nil when scoring-run
// persistence is disabled.
func New(cfg *config.Config, scorer *scoring.Scorer, repo repository.ScoringRunRepository, db DatabasePinger, logger *logrus.Logger) *Server {
	ttl := time.Duration(cfg.Scoring.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Server{
		cfg:    cfg,
		scorer: scorer,
		repo:   repo,
		db:     db,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Handler builds the route mux
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/score", s.handleScore)
	mux.HandleFunc("/upload_and_score", s.handleUploadAndScore)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/runs", s.handleRuns)

	if s.cfg.Metrics.Enabled {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, promhttp.Handler())
	}
	return mux
}

// Start runs the server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	if err := s.startManifestRefresh(); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"port":          s.cfg.Server.Port,
			"model_version": s.scorer.ModelVersion(),
		}).Info("Scoring server starting")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the cron scheduler and drains in-flight requests
func (s *Server) Shutdown() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Scoring server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// startManifestRefresh schedules periodic artifact reloads so a retrained
// model is picked up without a restart
func (s *Server) startManifestRefresh() error {
	schedule := s.cfg.Server.ManifestRefreshSchedule
	if schedule == "" {
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.scorer.Reload(); err != nil {
			s.logger.WithError(err).Error("Scheduled artifact reload failed")
			return
		}
		s.cache.Flush()
	})
	if err != nil {
		return fmt.Errorf("invalid manifest refresh schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	return nil
}
