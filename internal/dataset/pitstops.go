package dataset

import (
	"strconv"
	"strings"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// AvgPitStopColumn is the single column the pit stop appender adds.
const AvgPitStopColumn = "AvgPitStopTime"

// AvgPitStopTimes computes the mean pit stop duration per driver for one
// race session. Laps without a stop are ignored.
func AvgPitStopTimes(laps []models.Lap) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, lap := range laps {
		if lap.PitTime <= 0 || lap.Driver == "" {
			continue
		}
		sums[lap.Driver] += lap.PitTime
		counts[lap.Driver]++
	}

	out := make(map[string]float64, len(sums))
	for d, sum := range sums {
		out[d] = sum / float64(counts[d])
	}
	return out
}

// AppendAvgPitStop writes the AvgPitStopTime column onto the premodel table.
// averages is keyed by "season\x1fround\x1fdriver"; only the one column is
// added or overwritten, everything else in the table stays untouched.
func AppendAvgPitStop(premodel *Table, averages map[string]float64) error {
	driverKey := "Abbreviation"
	if !premodel.HasColumn(driverKey) {
		driverKey = "Driver"
	}

	values := make([]string, premodel.NumRows())
	for i := 0; i < premodel.NumRows(); i++ {
		key := PitStopKey(
			premodel.Value(i, "Season"),
			premodel.Value(i, "Round"),
			premodel.Value(i, driverKey),
		)
		if avg, ok := averages[key]; ok {
			values[i] = strconv.FormatFloat(avg, 'f', 3, 64)
		}
	}
	return premodel.AddColumn(AvgPitStopColumn, values)
}

// PitStopKey builds the lookup key for a driver's average pit stop time
func PitStopKey(season, round, driver string) string {
	return strings.Join([]string{
		normalizeKey(season),
		normalizeKey(round),
		strings.TrimSpace(driver),
	}, "\x1f")
}
