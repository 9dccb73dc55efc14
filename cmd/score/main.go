// Package main scores a raw premodel CSV with the fitted artifacts and
// writes the prediction and metrics CSVs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/database"
	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/logger"
	"github.com/gsuchecki40/formula-one-scorer/internal/models"
	"github.com/gsuchecki40/formula-one-scorer/internal/repository"
	"github.com/gsuchecki40/formula-one-scorer/internal/scoring"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		input      = flag.String("input", "", "Premodel CSV to score (required)")
		outputDir  = flag.String("output-dir", "", "Override output directory")
		explain    = flag.Bool("explain", false, "Write per-feature attribution summary")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	if *input == "" {
		log.Fatal("--input is required")
	}
	if *outputDir != "" {
		cfg.Scoring.OutputDir = *outputDir
	}

	scorer, err := scoring.NewScorer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load artifacts")
	}

	result, err := scorer.ScoreFile(*input)
	if err != nil {
		// inputs with nothing to score are not a failure
		if errors.Is(err, models.ErrNoScorableRows) || errors.Is(err, models.ErrEmptyInput) {
			log.WithError(err).Warn("Nothing to score")
			return
		}
		log.WithError(err).Fatal("Scoring failed")
	}

	if err := result.WriteOutputs(cfg.Scoring.OutputDir); err != nil {
		log.WithError(err).Fatal("Failed to write outputs")
	}

	if *explain {
		writeAttributionSummary(cfg, scorer, *input, log)
	}

	persistRun(cfg, result, log)

	fields := logrus.Fields{
		"rows_scored":  result.Run.RowsScored,
		"rows_dropped": result.RowsDropped,
		"output_dir":   cfg.Scoring.OutputDir,
	}
	if result.Metrics != nil {
		fields["rmse"] = result.Metrics.RMSE
	}
	log.WithFields(fields).Info("Scoring complete")
}

// writeAttributionSummary ranks features by their mean absolute contribution
// over the scored rows
func writeAttributionSummary(cfg *config.Config, scorer *scoring.Scorer, input string, log *logrus.Logger) {
	t, err := dataset.ReadCSV(input)
	if err != nil {
		log.WithError(err).Fatal("Failed to re-read input for attribution")
	}
	matrix, err := scorer.Pipeline().Transform(t)
	if err != nil {
		log.WithError(err).Fatal("Failed to transform input for attribution")
	}
	attrs, err := scorer.Ensemble().ExplainBatch(matrix.Rows)
	if err != nil {
		log.WithError(err).Fatal("Attribution failed")
	}
	summary := scorer.Ensemble().Summarize(attrs)

	path := filepath.Join(cfg.Scoring.OutputDir, "shap_summary.json")
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("Failed to encode attribution summary")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).Fatal("Failed to write attribution summary")
	}
	log.WithField("path", path).Info("Attribution summary written")
}

// persistRun stores the run in PostgreSQL when persistence is enabled
func persistRun(cfg *config.Config, result *scoring.Result, log *logrus.Logger) {
	if !cfg.Database.Enabled {
		return
	}

	ctx := context.Background()
	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.WithError(err).Warn("Database unavailable, run not persisted")
		return
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.WithError(err).Warn("Failed to initialize schema, run not persisted")
		return
	}
	repo := repository.NewPostgresScoringRunRepository(db)
	if err := repo.Create(ctx, result.Run, result.Predictions); err != nil {
		log.WithError(err).Warn("Failed to persist scoring run")
		return
	}
	log.WithField("run_id", result.Run.ID).Info("Scoring run persisted")
}
