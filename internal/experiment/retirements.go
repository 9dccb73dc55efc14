// Package experiment runs offline model comparisons, currently whether
// excluding retirements from scoring changes holdout error.
package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/scoring"
)

// RetirementReport compares scoring with retirements kept versus dropped.
type RetirementReport struct {
	GeneratedAt              time.Time        `json:"generated_at"`
	ModelVersion             string           `json:"model_version"`
	KeptMetrics              *scoring.Metrics `json:"kept_metrics"`
	DroppedMetrics           *scoring.Metrics `json:"dropped_metrics"`
	RowsDroppedAsRet         int              `json:"rows_dropped_as_retirements"`
	DeltaRMSE                float64          `json:"delta_rmse"`
	ExcludingRetiredIsBetter bool             `json:"excluding_retired_is_better"`
}

// CompareRetirementHandling scores the same table twice, toggling retirement
// exclusion, and reports the difference in holdout error. The input must
// carry the target column.
func CompareRetirementHandling(cfg *config.Config, input *dataset.Table, baseLogger *logrus.Logger) (*RetirementReport, error) {
	keepCfg := *cfg
	keepCfg.Scoring.DropRetirements = false
	dropCfg := *cfg
	dropCfg.Scoring.DropRetirements = true

	keepScorer, err := scoring.NewScorer(&keepCfg, baseLogger)
	if err != nil {
		return nil, err
	}
	dropScorer, err := scoring.NewScorer(&dropCfg, baseLogger)
	if err != nil {
		return nil, err
	}

	kept, err := keepScorer.ScoreTable(input.Clone())
	if err != nil {
		return nil, fmt.Errorf("scoring with retirements kept: %w", err)
	}
	dropped, err := dropScorer.ScoreTable(input.Clone())
	if err != nil {
		return nil, fmt.Errorf("scoring with retirements dropped: %w", err)
	}

	if kept.Metrics == nil || dropped.Metrics == nil {
		return nil, fmt.Errorf("input has no outcome column, nothing to compare")
	}

	report := &RetirementReport{
		GeneratedAt:      time.Now().UTC(),
		ModelVersion:     dropScorer.ModelVersion(),
		KeptMetrics:      kept.Metrics,
		DroppedMetrics:   dropped.Metrics,
		RowsDroppedAsRet: dropped.RowsDropped - kept.RowsDropped,
		DeltaRMSE:        dropped.Metrics.RMSE - kept.Metrics.RMSE,
	}
	report.ExcludingRetiredIsBetter = report.DeltaRMSE < 0
	return report, nil
}

// Save writes the report as JSON
func (r *RetirementReport) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
