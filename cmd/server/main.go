// Package main runs the scoring HTTP service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/database"
	"github.com/gsuchecki40/formula-one-scorer/internal/datasource"
	"github.com/gsuchecki40/formula-one-scorer/internal/logger"
	"github.com/gsuchecki40/formula-one-scorer/internal/repository"
	"github.com/gsuchecki40/formula-one-scorer/internal/scoring"
	"github.com/gsuchecki40/formula-one-scorer/internal/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to config file")
	flag.Parse()

	cfg := loadConfigWithSecrets(*configPath)
	log := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scorer, err := scoring.NewScorer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load artifacts")
	}

	var repo repository.ScoringRunRepository
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.NewDB(ctx, &cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()
		if err := db.InitSchema(ctx); err != nil {
			log.WithError(err).Fatal("Failed to initialize schema")
		}
		repo = repository.NewPostgresScoringRunRepository(db)
	}

	if cfg.LiveTiming.Enabled {
		startLiveTiming(ctx, cfg, log)
	}

	srv := server.New(cfg, scorer, repo, pinger(db), log)
	if err := srv.Start(ctx); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
}

// pinger avoids handing the server a non-nil interface wrapping a nil *DB
func pinger(db *database.DB) server.DatabasePinger {
	if db == nil {
		return nil
	}
	return db
}

func loadConfigWithSecrets(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			logrus.Fatal("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			logrus.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// startLiveTiming streams session updates for operator visibility; scoring
// itself stays batch-driven
func startLiveTiming(ctx context.Context, cfg *config.Config, log *logrus.Logger) {
	client := datasource.NewLiveTimingClient(cfg.LiveTiming.URL, log)
	client.AddHandler(func(update *datasource.SessionUpdate) error {
		log.WithFields(logrus.Fields{
			"type":   update.Type,
			"driver": update.Driver,
			"lap":    update.Lap,
		}).Debug("Live timing update")
		return nil
	})

	go func() {
		if err := client.ConnectWithRetry(ctx); err != nil {
			log.WithError(err).Warn("Live timing stream unavailable")
			return
		}
		<-ctx.Done()
		client.Close()
	}()
}
