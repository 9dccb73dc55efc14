package ensemble

import "errors"

var (
	// ErrInsufficientData indicates too few rows for the requested fold count
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrNoFolds indicates an ensemble with no fitted fold models
	ErrNoFolds = errors.New("ensemble has no fold models")

	// ErrDimensionMismatch indicates feature vectors of the wrong width
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
)
