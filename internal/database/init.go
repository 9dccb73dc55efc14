package database

import (
	"context"
	"fmt"
)

// schema creates the scoring history tables when they do not exist
const schema = `
CREATE TABLE IF NOT EXISTS scoring_runs (
	id UUID PRIMARY KEY,
	input_path TEXT NOT NULL DEFAULT '',
	input_checksum TEXT NOT NULL DEFAULT '',
	model_version TEXT NOT NULL DEFAULT '',
	rows_scored INTEGER NOT NULL,
	rows_dropped INTEGER NOT NULL,
	calibrated BOOLEAN NOT NULL,
	rmse DOUBLE PRECISION,
	mae DOUBLE PRECISION,
	r2 DOUBLE PRECISION,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS predictions (
	run_id UUID NOT NULL REFERENCES scoring_runs(id) ON DELETE CASCADE,
	row_index INTEGER NOT NULL,
	driver_number TEXT NOT NULL DEFAULT '',
	driver TEXT NOT NULL DEFAULT '',
	team_name TEXT NOT NULL DEFAULT '',
	season INTEGER NOT NULL DEFAULT 0,
	round TEXT NOT NULL DEFAULT '',
	grid_position DOUBLE PRECISION,
	value DOUBLE PRECISION NOT NULL,
	calibrated BOOLEAN NOT NULL,
	truth DOUBLE PRECISION,
	PRIMARY KEY (run_id, row_index)
);

CREATE INDEX IF NOT EXISTS idx_scoring_runs_started_at ON scoring_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_predictions_season_round ON predictions(season, round);
`

// InitSchema creates the scoring history schema
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
