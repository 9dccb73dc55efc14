// Package main assembles the premodel CSV from race results, qualifying and
// weather exports, optionally enriched with timing API lap data.
package main

import (
	"context"
	"flag"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/datasource"
	"github.com/gsuchecki40/formula-one-scorer/internal/logger"
	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		output     = flag.String("output", "", "Override premodel output path")
		withTiming = flag.Bool("with-timing", false, "Fetch laps from the timing API for tire and pit stop features")
	)
	flag.Parse()

	cfg := loadConfig(*configPath)
	log := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	if *output != "" {
		cfg.Dataset.OutputFile = *output
	}

	results := readCSV(cfg.Dataset.RaceResultsFile, log)
	quali := readCSV(cfg.Dataset.QualiFile, log)
	weather := readCSV(cfg.Dataset.WeatherFile, log)

	premodel, err := dataset.BuildPremodel(results, quali, weather)
	if err != nil {
		log.WithError(err).Fatal("Failed to build premodel table")
	}

	if *withTiming {
		premodel = enrichFromTiming(cfg, premodel, log)
	}

	if err := dataset.ComputePointsProp(premodel); err != nil {
		log.WithError(err).Fatal("Failed to compute points proportions")
	}

	if err := premodel.WriteCSV(cfg.Dataset.OutputFile); err != nil {
		log.WithError(err).Fatal("Failed to write premodel CSV")
	}

	log.WithFields(logrus.Fields{
		"rows":   premodel.NumRows(),
		"output": cfg.Dataset.OutputFile,
	}).Info("Premodel dataset written")
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func readCSV(path string, log *logrus.Logger) *dataset.Table {
	t, err := dataset.ReadCSV(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Fatal("Failed to read input CSV")
	}
	return t
}

// enrichFromTiming joins tire compound proportions and average pit stop
// times onto the premodel table and returns the enriched table
func enrichFromTiming(cfg *config.Config, premodel *dataset.Table, log *logrus.Logger) *dataset.Table {
	if cfg.Dataset.TimingAPIURL == "" {
		log.Warn("No timing API URL configured, skipping lap enrichment")
		return premodel
	}

	client := datasource.NewTimingClient(cfg.Dataset.TimingAPIURL, cfg.Dataset.RequestsPerSecond, log)
	defer client.Close()
	ctx := context.Background()

	laps := make([]models.Lap, 0)
	for _, seasonStr := range premodel.UniqueValues("Season") {
		season, ok := parseIntValue(seasonStr)
		if !ok {
			continue
		}
		seasonLaps, err := client.SeasonLaps(ctx, season)
		if err != nil {
			log.WithError(err).WithField("season", season).Fatal("Failed to fetch laps")
		}
		laps = append(laps, seasonLaps...)
	}

	if len(laps) == 0 {
		log.Warn("Timing API returned no laps, skipping lap enrichment")
		return premodel
	}

	tires, err := dataset.TireProportionsByRace(laps)
	if err != nil {
		log.WithError(err).Fatal("Failed to compute tire proportions")
	}
	merged, err := dataset.MergeTireProportions(premodel, tires)
	if err != nil {
		log.WithError(err).Fatal("Failed to merge tire proportions")
	}

	averages := dataset.AvgPitStopTimes(laps)
	if err := dataset.AppendAvgPitStop(merged, averages); err != nil {
		log.WithError(err).Fatal("Failed to append pit stop averages")
	}
	log.WithField("laps", len(laps)).Info("Timing enrichment complete")
	return merged
}

func parseIntValue(s string) (int, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
