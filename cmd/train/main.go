// Package main trains the fold models on the preprocessed training split,
// fits the validation calibration and refreshes the artifact manifest.
package main

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/artifacts"
	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/ensemble"
	"github.com/gsuchecki40/formula-one-scorer/internal/logger"
	"github.com/gsuchecki40/formula-one-scorer/internal/preprocess"
	"github.com/gsuchecki40/formula-one-scorer/internal/scoring"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		input      = flag.String("input", "", "Override premodel CSV path")
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
	scoringLog := logger.NewScoringLogger(log)

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

	pipeline, err := preprocess.Load(cfg.PipelinePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to load pipeline artifact, run preprocess first")
	}

	x, y := featuresAndTargets(pipeline, split.Train, cfg.Training.Target, log)

	params := ensemble.Params{
		Trees:          cfg.Training.Trees,
		LearningRate:   cfg.Training.LearningRate,
		MaxDepth:       cfg.Training.MaxDepth,
		MinSamplesLeaf: cfg.Training.MinSamplesLeaf,
		Seed:           cfg.Training.Seed,
	}

	started := time.Now()
	model, err := ensemble.Train(x, y, pipeline.FeatureNames, cfg.Training.Target, cfg.Training.Folds, params, log)
	if err != nil {
		log.WithError(err).Fatal("Training failed")
	}
	if err := model.Save(cfg.Artifacts.Dir); err != nil {
		log.WithError(err).Fatal("Failed to save fold models")
	}

	trainMetrics := evaluateOn(model, nil, x, y)
	scoringLog.LogModelTraining(cfg.Training.Folds, cfg.Training.Trees,
		time.Since(started).Seconds(), map[string]float64{
			"train_rmse": trainMetrics.RMSE,
			"train_r2":   trainMetrics.R2,
		})

	calibration := calibrateOnValidation(cfg, pipeline, model, split, log)
	reportHoldout(cfg, pipeline, model, calibration, split, log)

	manifest, err := artifacts.BuildManifest(cfg.Artifacts.Dir, cfg.Artifacts.ModelVersion)
	if err != nil {
		log.WithError(err).Fatal("Failed to build manifest")
	}
	if err := manifest.Save(cfg.Artifacts.Dir); err != nil {
		log.WithError(err).Fatal("Failed to save manifest")
	}
	log.WithField("artifacts", len(manifest.Files)).Info("Training complete, manifest written")
}

func featuresAndTargets(pipeline *preprocess.Pipeline, t *dataset.Table, target string, log *logrus.Logger) ([][]float64, []float64) {
	matrix, err := pipeline.Transform(t)
	if err != nil {
		log.WithError(err).Fatal("Failed to transform table")
	}

	vals, ok := t.FloatColumn(target)
	x := make([][]float64, 0, len(matrix.Rows))
	y := make([]float64, 0, len(vals))
	for i := range vals {
		if !ok[i] {
			continue
		}
		x = append(x, matrix.Rows[i])
		y = append(y, vals[i])
	}
	if len(y) == 0 {
		log.WithField("target", target).Fatal("No rows carry the training target")
	}
	return x, y
}

// calibrateOnValidation fits the affine correction on held-out predictions
func calibrateOnValidation(cfg *config.Config, pipeline *preprocess.Pipeline, model *ensemble.Ensemble, split *preprocess.Split, log *logrus.Logger) *ensemble.Calibration {
	if !cfg.Training.Calibrate {
		log.Info("Calibration disabled")
		return nil
	}
	if split.Val.NumRows() == 0 {
		log.Warn("Empty validation split, skipping calibration")
		return nil
	}

	x, y := featuresAndTargets(pipeline, split.Val, cfg.Training.Target, log)
	pred, err := model.PredictBatch(x)
	if err != nil {
		log.WithError(err).Fatal("Validation prediction failed")
	}

	calibration, err := ensemble.FitCalibration(pred, y)
	if err != nil {
		log.WithError(err).Fatal("Calibration fit failed")
	}
	if err := calibration.Save(cfg.CalibrationPath()); err != nil {
		log.WithError(err).Fatal("Failed to save calibration")
	}
	log.WithFields(logrus.Fields{
		"intercept": calibration.Intercept,
		"slope":     calibration.Slope,
		"fitted":    calibration.Fitted,
	}).Info("Calibration fitted on validation split")
	return calibration
}

func reportHoldout(cfg *config.Config, pipeline *preprocess.Pipeline, model *ensemble.Ensemble, calibration *ensemble.Calibration, split *preprocess.Split, log *logrus.Logger) {
	if split.Test.NumRows() == 0 {
		return
	}
	x, y := featuresAndTargets(pipeline, split.Test, cfg.Training.Target, log)
	metrics := evaluateOn(model, calibration, x, y)
	log.WithFields(logrus.Fields{
		"test_rmse": metrics.RMSE,
		"test_mae":  metrics.MAE,
		"test_r2":   metrics.R2,
		"rows":      metrics.N,
	}).Info("Holdout evaluation")
}

func evaluateOn(model *ensemble.Ensemble, calibration *ensemble.Calibration, x [][]float64, y []float64) *scoring.Metrics {
	pred, err := model.PredictBatch(x)
	if err != nil {
		logrus.Fatalf("Prediction failed: %v", err)
	}
	return scoring.Evaluate(calibration.ApplyBatch(pred), y)
}
