package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gsuchecki40/formula-one-scorer/internal/database"
	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// ErrRunNotFound indicates an unknown scoring run ID
var ErrRunNotFound = errors.New("scoring run not found")

// PostgresScoringRunRepository implements ScoringRunRepository for PostgreSQL
type PostgresScoringRunRepository struct {
	db *database.DB
}

// NewPostgresScoringRunRepository creates a new scoring run repository
func NewPostgresScoringRunRepository(db *database.DB) ScoringRunRepository {
	return &PostgresScoringRunRepository{db: db}
}

// Create inserts a run and its predictions in one transaction
func (r *PostgresScoringRunRepository) Create(ctx context.Context, run *models.ScoringRun, predictions []models.Prediction) error {
	tx, err := r.db.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO scoring_runs (id, input_path, input_checksum, model_version,
			rows_scored, rows_dropped, calibrated, rmse, mae, r2, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, query,
		run.ID, run.InputPath, run.InputChecksum, run.ModelVersion,
		run.RowsScored, run.RowsDropped, run.Calibrated,
		run.RMSE, run.MAE, run.R2, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scoring run: %w", err)
	}

	rows := make([][]interface{}, len(predictions))
	for i, p := range predictions {
		rows[i] = []interface{}{
			run.ID, p.RowIndex, p.DriverNumber, p.Driver, p.TeamName,
			p.Season, p.Round, p.GridPosition, p.Value, p.Calibrated, p.Truth,
		}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"predictions"},
		[]string{"run_id", "row_index", "driver_number", "driver", "team_name",
			"season", "round", "grid_position", "value", "calibrated", "truth"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to store predictions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit scoring run: %w", err)
	}
	return nil
}

// GetByID retrieves one scoring run
func (r *PostgresScoringRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScoringRun, error) {
	query := `
		SELECT id, input_path, input_checksum, model_version, rows_scored,
		       rows_dropped, calibrated, rmse, mae, r2, started_at, finished_at
		FROM scoring_runs WHERE id = $1
	`

	run := &models.ScoringRun{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&run.ID, &run.InputPath, &run.InputChecksum, &run.ModelVersion,
		&run.RowsScored, &run.RowsDropped, &run.Calibrated,
		&run.RMSE, &run.MAE, &run.R2, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get scoring run: %w", err)
	}
	return run, nil
}

// ListRecent retrieves the most recent scoring runs
func (r *PostgresScoringRunRepository) ListRecent(ctx context.Context, limit int) ([]models.ScoringRun, error) {
	query := `
		SELECT id, input_path, input_checksum, model_version, rows_scored,
		       rows_dropped, calibrated, rmse, mae, r2, started_at, finished_at
		FROM scoring_runs ORDER BY started_at DESC LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scoring runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.ScoringRun, 0, limit)
	for rows.Next() {
		var run models.ScoringRun
		if err := rows.Scan(
			&run.ID, &run.InputPath, &run.InputChecksum, &run.ModelVersion,
			&run.RowsScored, &run.RowsDropped, &run.Calibrated,
			&run.RMSE, &run.MAE, &run.R2, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scoring run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetPredictions retrieves the predictions of one run ordered by row index
func (r *PostgresScoringRunRepository) GetPredictions(ctx context.Context, runID uuid.UUID) ([]models.Prediction, error) {
	query := `
		SELECT row_index, driver_number, driver, team_name, season, round,
		       grid_position, value, calibrated, truth
		FROM predictions WHERE run_id = $1 ORDER BY row_index
	`

	rows, err := r.db.GetPool().Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	defer rows.Close()

	preds := make([]models.Prediction, 0)
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(
			&p.RowIndex, &p.DriverNumber, &p.Driver, &p.TeamName,
			&p.Season, &p.Round, &p.GridPosition, &p.Value, &p.Calibrated, &p.Truth,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}
