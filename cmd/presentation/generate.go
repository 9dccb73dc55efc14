package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/ensemble"
	"github.com/gsuchecki40/formula-one-scorer/internal/presentation"
	"github.com/gsuchecki40/formula-one-scorer/internal/scoring"
)

var generateInput string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Score a premodel CSV and render the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateInput == "" {
			return fmt.Errorf("--input is required")
		}

		scorer, err := scoring.NewScorer(cfg, appLogger)
		if err != nil {
			return fmt.Errorf("failed to load artifacts: %w", err)
		}

		result, err := scorer.ScoreFile(generateInput)
		if err != nil {
			return fmt.Errorf("scoring failed: %w", err)
		}

		importance, err := summarize(scorer, generateInput)
		if err != nil {
			return err
		}

		gen, err := presentation.NewGenerator(cfg.Presentation.OutputDir, cfg.Presentation.AssetsDir, appLogger)
		if err != nil {
			return err
		}
		report := presentation.NewReport(result, importance, scorer.ModelVersion())
		path, err := gen.Generate(report)
		if err != nil {
			return err
		}

		appLogger.WithField("path", path).Info("Report ready")
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateInput, "input", "", "Premodel CSV to score and render")
}

func summarize(scorer *scoring.Scorer, input string) ([]ensemble.FeatureImportance, error) {
	t, err := dataset.ReadCSV(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	matrix, err := scorer.Pipeline().Transform(t)
	if err != nil {
		return nil, fmt.Errorf("failed to transform input: %w", err)
	}
	attrs, err := scorer.Ensemble().ExplainBatch(matrix.Rows)
	if err != nil {
		return nil, fmt.Errorf("attribution failed: %w", err)
	}
	return scorer.Ensemble().Summarize(attrs), nil
}
