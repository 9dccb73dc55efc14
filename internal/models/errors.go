// Package models defines the domain types shared across the scoring platform.
package models

import "errors"

var (
	// ErrInputNotFound indicates the input CSV does not exist
	ErrInputNotFound = errors.New("input csv not found")

	// ErrEmptyInput indicates the input CSV has no data rows
	ErrEmptyInput = errors.New("input csv has no data rows")

	// ErrNoScorableRows indicates every row was dropped before scoring
	ErrNoScorableRows = errors.New("no scorable rows after filtering")

	// ErrMissingColumn indicates a required column is absent
	ErrMissingColumn = errors.New("missing column")

	// ErrArtifactMissing indicates a model artifact could not be found
	ErrArtifactMissing = errors.New("model artifact missing")

	// ErrArtifactCorrupt indicates an artifact failed checksum or decode
	ErrArtifactCorrupt = errors.New("model artifact corrupt")

	// ErrNotFitted indicates transform was called before fit
	ErrNotFitted = errors.New("pipeline not fitted")

	// ErrScoringFailed indicates the scoring pipeline failed
	ErrScoringFailed = errors.New("scoring failed")
)
