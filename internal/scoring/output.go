package scoring

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
)

// output file names, kept stable for downstream consumers
const (
	PredictionsFile             = "scored_preds_from_raw.csv"
	UncalibratedPredictionsFile = "scored_preds_from_raw_uncalibrated.csv"
	MetricsFile                 = "metrics_scored_preds.csv"
)

// WriteOutputs writes the prediction CSVs and, when truth was present, the
// metrics CSV into dir.
func (r *Result) WriteOutputs(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := r.writePredictions(filepath.Join(dir, PredictionsFile), nil); err != nil {
		return err
	}
	if err := r.writePredictions(filepath.Join(dir, UncalibratedPredictionsFile), r.Uncalibrated); err != nil {
		return err
	}
	if r.Metrics != nil {
		if err := r.writeMetrics(filepath.Join(dir, MetricsFile)); err != nil {
			return err
		}
	}
	return nil
}

// writePredictions writes one prediction CSV; override replaces the
// calibrated values when writing the uncalibrated variant.
func (r *Result) writePredictions(path string, override []float64) error {
	t := dataset.NewTable([]string{
		"RowIndex", "DriverNumber", "Driver", "TeamName",
		"Season", "Round", "GridPosition", "Prediction", "Truth",
	})

	for i, p := range r.Predictions {
		value := p.Value
		if override != nil {
			value = override[i]
		}
		grid := ""
		if p.GridPosition != nil {
			grid = formatFloat(*p.GridPosition)
		}
		truth := ""
		if p.Truth != nil {
			truth = formatFloat(*p.Truth)
		}
		row := []string{
			strconv.Itoa(p.RowIndex),
			p.DriverNumber,
			p.Driver,
			p.TeamName,
			strconv.Itoa(p.Season),
			p.Round,
			grid,
			formatFloat(value),
			truth,
		}
		if err := t.AppendRow(row); err != nil {
			return err
		}
	}

	if err := t.WriteCSV(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (r *Result) writeMetrics(path string) error {
	t := dataset.NewTable([]string{"metric", "value"})
	rows := [][]string{
		{"rmse", formatFloat(r.Metrics.RMSE)},
		{"mae", formatFloat(r.Metrics.MAE)},
		{"r2", formatFloat(r.Metrics.R2)},
		{"n", strconv.Itoa(r.Metrics.N)},
		{"rows_dropped", strconv.Itoa(r.RowsDropped)},
	}
	if r.UncalibratedMetrics != nil {
		rows = append(rows,
			[]string{"uncalibrated_rmse", formatFloat(r.UncalibratedMetrics.RMSE)},
			[]string{"uncalibrated_mae", formatFloat(r.UncalibratedMetrics.MAE)},
			[]string{"uncalibrated_r2", formatFloat(r.UncalibratedMetrics.R2)},
		)
	}
	for _, row := range rows {
		if err := t.AppendRow(row); err != nil {
			return err
		}
	}
	if err := t.WriteCSV(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
