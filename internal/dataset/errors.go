package dataset

import "errors"

var (
	// errMissingJoinColumn indicates a join key or include column is absent
	errMissingJoinColumn = errors.New("missing join column")

	// ErrNoLaps indicates a race session carried no lap data
	ErrNoLaps = errors.New("no lap data for session")
)
