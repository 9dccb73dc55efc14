package dataset

import (
	"sort"
	"strconv"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// Compounds is the fixed set of tire compound columns, in output order.
var Compounds = []string{"SOFT", "MEDIUM", "HARD", "INTERMEDIATE", "WET"}

// TireProportions computes the per-driver proportion of laps run on each
// compound for a single race. Drivers with no compound data are omitted; DNFs
// simply have fewer total laps. The result has columns
// Season, Round, Driver, SOFT, MEDIUM, HARD, INTERMEDIATE, WET.
func TireProportions(season, round int, laps []models.Lap) (*Table, error) {
	if len(laps) == 0 {
		return nil, ErrNoLaps
	}

	// Lap counts per driver per compound; stints of the same compound sum
	type key struct {
		driver   string
		compound string
	}
	counts := make(map[key]int)
	totals := make(map[string]int)
	for _, lap := range laps {
		if lap.Driver == "" || lap.Compound == "" {
			continue
		}
		counts[key{lap.Driver, lap.Compound}]++
		totals[lap.Driver]++
	}

	drivers := make([]string, 0, len(totals))
	for d := range totals {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)

	columns := append([]string{"Season", "Round", "Driver"}, Compounds...)
	out := NewTable(columns)
	for _, d := range drivers {
		row := []string{strconv.Itoa(season), strconv.Itoa(round), d}
		for _, c := range Compounds {
			prop := 0.0
			if totals[d] > 0 {
				prop = float64(counts[key{d, c}]) / float64(totals[d])
			}
			row = append(row, strconv.FormatFloat(prop, 'g', -1, 64))
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// TireProportionsByRace groups laps by race and stacks the per-race
// proportion tables into one.
func TireProportionsByRace(laps []models.Lap) (*Table, error) {
	if len(laps) == 0 {
		return nil, ErrNoLaps
	}

	type race struct{ season, round int }
	grouped := make(map[race][]models.Lap)
	for _, lap := range laps {
		r := race{lap.Season, lap.Round}
		grouped[r] = append(grouped[r], lap)
	}

	races := make([]race, 0, len(grouped))
	for r := range grouped {
		races = append(races, r)
	}
	sort.Slice(races, func(i, j int) bool {
		if races[i].season != races[j].season {
			return races[i].season < races[j].season
		}
		return races[i].round < races[j].round
	})

	columns := append([]string{"Season", "Round", "Driver"}, Compounds...)
	out := NewTable(columns)
	for _, r := range races {
		perRace, err := TireProportions(r.season, r.round, grouped[r])
		if err != nil {
			return nil, err
		}
		for i := 0; i < perRace.NumRows(); i++ {
			if err := out.AppendRow(perRace.Row(i)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// MergeTireProportions joins compound proportion columns onto the premodel
// table on Season+Round+Driver abbreviation. Missing compounds stay 0.
func MergeTireProportions(premodel, tires *Table) (*Table, error) {
	driverKey := "Abbreviation"
	if !premodel.HasColumn(driverKey) {
		driverKey = "Driver"
	}
	merged, err := LeftJoin(premodel, tires,
		[]string{"Season", "Round", driverKey},
		[]string{"Season", "Round", "Driver"},
		Compounds, "")
	if err != nil {
		return nil, err
	}
	// Unmatched rows get 0 proportions rather than missing cells
	for _, c := range Compounds {
		for i := 0; i < merged.NumRows(); i++ {
			if IsMissing(merged.Value(i, c)) {
				merged.SetValue(i, c, "0")
			}
		}
	}
	return merged, nil
}
