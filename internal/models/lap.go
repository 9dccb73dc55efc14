package models

// Lap is a single timed lap from a race session, as returned by the timing
// API. PitTime is the pit stop duration in seconds when the lap contained a
// stop, zero otherwise.
type Lap struct {
	Season    int     `json:"season"`
	Round     int     `json:"round"`
	Driver    string  `json:"driver"`
	Stint     int     `json:"stint"`
	Compound  string  `json:"compound"`
	LapNumber int     `json:"lap_number"`
	PitTime   float64 `json:"pit_time,omitempty"`
}

// RaceResult is a finishing record used by the points proportion computation.
type RaceResult struct {
	Season   int
	Round    int
	Driver   string
	TeamName string
	Points   string
	Status   string
}
