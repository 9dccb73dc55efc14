// Package main fits the preprocessing pipeline on the training split and
// writes the transformer artifact plus its review sidecars.
package main

import (
	"flag"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/logger"
	"github.com/gsuchecki40/formula-one-scorer/internal/preprocess"
)

func main() {
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to config file")
		input       = flag.String("input", "", "Override premodel CSV path")
		writeSplits = flag.Bool("write-splits", true, "Write transformed train/val/test matrices next to the artifacts")
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

	premodelPath := cfg.Dataset.OutputFile
	if *input != "" {
		premodelPath = *input
	}

	premodel, err := dataset.ReadCSV(premodelPath)
	if err != nil {
		log.WithError(err).WithField("path", premodelPath).Fatal("Failed to read premodel CSV")
	}

	split, err := preprocess.DetectSplits(premodel)
	if err != nil {
		log.WithError(err).Fatal("Failed to split premodel table")
	}
	log.WithFields(logrus.Fields{
		"train_rows": split.Train.NumRows(),
		"val_rows":   split.Val.NumRows(),
		"test_rows":  split.Test.NumRows(),
		"by_season":  split.BySeason,
	}).Info("Premodel table split")

	pipeline, err := preprocess.Fit(split.Train, cfg.Training.Target)
	if err != nil {
		log.WithError(err).Fatal("Failed to fit preprocessing pipeline")
	}

	if err := pipeline.Save(cfg.PipelinePath()); err != nil {
		log.WithError(err).Fatal("Failed to save pipeline artifact")
	}
	if err := pipeline.WriteColumnsUsed(filepath.Join(cfg.Artifacts.Dir, "columns_used.json")); err != nil {
		log.WithError(err).Fatal("Failed to write columns_used.json")
	}
	if err := pipeline.WriteCategoryMappings(filepath.Join(cfg.Artifacts.Dir, "category_mappings.json")); err != nil {
		log.WithError(err).Fatal("Failed to write category_mappings.json")
	}

	if *writeSplits {
		for name, table := range map[string]*dataset.Table{
			"X_train.csv": split.Train,
			"X_val.csv":   split.Val,
			"X_test.csv":  split.Test,
		} {
			matrix, err := pipeline.Transform(table)
			if err != nil {
				log.WithError(err).WithField("file", name).Fatal("Failed to transform split")
			}
			if err := matrix.WriteCSV(filepath.Join(cfg.Artifacts.Dir, name)); err != nil {
				log.WithError(err).WithField("file", name).Fatal("Failed to write split matrix")
			}
		}
	}

	log.WithFields(logrus.Fields{
		"features": len(pipeline.FeatureNames),
		"numeric":  len(pipeline.Roles.Numeric),
		"one_hot":  len(pipeline.Roles.Categorical),
	}).Info("Preprocessing pipeline fitted")
}
