package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Prediction represents a scored premodel row: the predicted deviation from
// the race-average finish time, in seconds.
type Prediction struct {
	RowIndex     int      `db:"row_index" json:"index"`
	DriverNumber string   `db:"driver_number" json:"driver_number,omitempty"`
	Driver       string   `db:"driver" json:"driver,omitempty"`
	TeamName     string   `db:"team_name" json:"team_name,omitempty"`
	Season       int      `db:"season" json:"season,omitempty"`
	Round        string   `db:"round" json:"round,omitempty"`
	GridPosition *float64 `db:"grid_position" json:"grid_position,omitempty"`
	Value        float64  `db:"value" json:"prediction"`
	Calibrated   bool     `db:"calibrated" json:"calibrated"`
	Truth        *float64 `db:"truth" json:"truth,omitempty"`
}

// Residual returns prediction minus truth, or false when no truth is known.
func (p *Prediction) Residual() (float64, bool) {
	if p.Truth == nil {
		return 0, false
	}
	return p.Value - *p.Truth, true
}

// IsFinite reports whether the predicted value is a usable number.
func (p *Prediction) IsFinite() bool {
	return !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// ScoringRun records one execution of the scoring pipeline over an input CSV.
type ScoringRun struct {
	ID            uuid.UUID `db:"id" json:"id"`
	InputPath     string    `db:"input_path" json:"input_path"`
	InputChecksum string    `db:"input_checksum" json:"input_checksum"`
	ModelVersion  string    `db:"model_version" json:"model_version"`
	RowsScored    int       `db:"rows_scored" json:"rows_scored"`
	RowsDropped   int       `db:"rows_dropped" json:"rows_dropped"`
	Calibrated    bool      `db:"calibrated" json:"calibrated"`
	RMSE          *float64  `db:"rmse" json:"rmse,omitempty"`
	MAE           *float64  `db:"mae" json:"mae,omitempty"`
	R2            *float64  `db:"r2" json:"r2,omitempty"`
	StartedAt     time.Time `db:"started_at" json:"started_at"`
	FinishedAt    time.Time `db:"finished_at" json:"finished_at"`
}

// Duration returns the wall-clock time the run took.
func (r *ScoringRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
