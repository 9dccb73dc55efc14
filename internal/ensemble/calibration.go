package ensemble

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// Calibration is an affine correction a + b*prediction fitted by ordinary
// least squares on held-out validation predictions. Unfitted calibrations
// apply the identity.
type Calibration struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	Fitted    bool    `json:"fitted"`
	NumPoints int     `json:"num_points"`
}

// FitCalibration regresses truth on predictions. Fewer than two points or a
// degenerate prediction spread yields the identity calibration.
func FitCalibration(pred, truth []float64) (*Calibration, error) {
	if len(pred) != len(truth) {
		return nil, fmt.Errorf("%w: %d predictions, %d truths", ErrDimensionMismatch, len(pred), len(truth))
	}

	c := &Calibration{Slope: 1, NumPoints: len(pred)}
	if len(pred) < 2 {
		return c, nil
	}

	n := float64(len(pred))
	var sumX, sumY float64
	for i := range pred {
		sumX += pred[i]
		sumY += truth[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX float64
	for i := range pred {
		dx := pred[i] - meanX
		cov += dx * (truth[i] - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return c, nil
	}

	c.Slope = cov / varX
	c.Intercept = meanY - c.Slope*meanX
	c.Fitted = true
	return c, nil
}

// Apply corrects a raw prediction
func (c *Calibration) Apply(pred float64) float64 {
	if c == nil || !c.Fitted {
		return pred
	}
	return c.Intercept + c.Slope*pred
}

// ApplyBatch corrects predictions in a new slice
func (c *Calibration) ApplyBatch(preds []float64) []float64 {
	out := make([]float64, len(preds))
	for i, p := range preds {
		out[i] = c.Apply(p)
	}
	return out
}

// Save persists the calibration artifact
func (c *Calibration) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode calibration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration artifact: %w", err)
	}
	return nil
}

// LoadCalibration reads a calibration artifact. A missing file is not an
// error: scoring then runs uncalibrated.
func LoadCalibration(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read calibration artifact: %w", err)
	}
	c := &Calibration{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrArtifactCorrupt, path, err)
	}
	return c, nil
}
