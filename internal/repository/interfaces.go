// Package repository persists scoring history to PostgreSQL.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// ScoringRunRepository stores completed scoring runs and their predictions.
type ScoringRunRepository interface {
	Create(ctx context.Context, run *models.ScoringRun, predictions []models.Prediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScoringRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.ScoringRun, error)
	GetPredictions(ctx context.Context, runID uuid.UUID) ([]models.Prediction, error)
}
