// Package main compares scoring with retirements kept versus excluded and
// writes a JSON report.
package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/experiment"
	"github.com/gsuchecki40/formula-one-scorer/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		input      = flag.String("input", "", "Premodel CSV with outcomes (required)")
		output     = flag.String("output", "./output/retirement_report.json", "Report output path")
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

	table, err := dataset.ReadCSV(*input)
	if err != nil {
		log.WithError(err).Fatal("Failed to read input CSV")
	}

	report, err := experiment.CompareRetirementHandling(cfg, table, log)
	if err != nil {
		log.WithError(err).Fatal("Comparison failed")
	}
	if err := report.Save(*output); err != nil {
		log.WithError(err).Fatal("Failed to write report")
	}

	log.WithFields(logrus.Fields{
		"delta_rmse":       report.DeltaRMSE,
		"dropped_as_ret":   report.RowsDroppedAsRet,
		"exclusion_better": report.ExcludingRetiredIsBetter,
		"output":           *output,
	}).Info("Retirement comparison written")
}
