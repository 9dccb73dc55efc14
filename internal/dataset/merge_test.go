package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

func TestBuildPremodel(t *testing.T) {
	race := tableFromCSV(t, `
Season,RoundNumber,Abbreviation,GridPosition,Points
2023,1,VER,1,25
2023,1,HAM,5,10
2023,2,VER,2,18
`)
	quali := tableFromCSV(t, `
Season,Round,Driver,AvgQualiTime
2023,1,VER,92.3
2023,1,HAM,93.1
`)
	weather := tableFromCSV(t, `
Year,Round,AirTemp,Rain
2023,1,28.5,NoRain
2023,2,22.0,Rain
`)

	merged, err := BuildPremodel(race, quali, weather)
	require.NoError(t, err)

	require.Equal(t, 3, merged.NumRows())
	assert.True(t, merged.HasColumn("Round"))
	assert.False(t, merged.HasColumn("RoundNumber"))

	// Quali joins per driver
	q, ok := merged.Float(0, "AvgQualiTime")
	require.True(t, ok)
	assert.Equal(t, 92.3, q)
	_, ok = merged.Float(2, "AvgQualiTime")
	assert.False(t, ok, "round 2 has no quali record")

	// Weather joins per event, for every driver
	assert.Equal(t, "NoRain", merged.Value(0, "Rain"))
	assert.Equal(t, "NoRain", merged.Value(1, "Rain"))
	assert.Equal(t, "Rain", merged.Value(2, "Rain"))
}

func TestLeftJoinSuffixOnCollision(t *testing.T) {
	left := tableFromCSV(t, `
Season,Round,Rain
2023,1,old
`)
	right := tableFromCSV(t, `
Season,Round,Rain
2023,1,new
`)

	merged, err := LeftJoin(left, right, []string{"Season", "Round"}, []string{"Season", "Round"}, []string{"Rain"}, "_weather")
	require.NoError(t, err)
	assert.Equal(t, "old", merged.Value(0, "Rain"))
	assert.Equal(t, "new", merged.Value(0, "Rain_weather"))
}

func TestLeftJoinNumericKeyNormalization(t *testing.T) {
	left := tableFromCSV(t, `
Season,Round
2023.0,1
`)
	right := tableFromCSV(t, `
Season,Round,AirTemp
2023,1.0,30
`)

	merged, err := LeftJoin(left, right, []string{"Season", "Round"}, []string{"Season", "Round"}, []string{"AirTemp"}, "")
	require.NoError(t, err)
	assert.Equal(t, "30", merged.Value(0, "AirTemp"))
}

func TestLeftJoinMissingKeyColumn(t *testing.T) {
	left := tableFromCSV(t, "A\n1")
	right := tableFromCSV(t, "B\n2")
	_, err := LeftJoin(left, right, []string{"A"}, []string{"Nope"}, []string{"B"}, "")
	assert.Error(t, err)
}

func TestTireProportions(t *testing.T) {
	laps := []models.Lap{
		{Driver: "VER", Stint: 1, Compound: "SOFT", LapNumber: 1},
		{Driver: "VER", Stint: 1, Compound: "SOFT", LapNumber: 2},
		{Driver: "VER", Stint: 2, Compound: "HARD", LapNumber: 3},
		{Driver: "VER", Stint: 3, Compound: "SOFT", LapNumber: 4},
		{Driver: "HAM", Stint: 1, Compound: "MEDIUM", LapNumber: 1},
	}

	tires, err := TireProportions(2023, 5, laps)
	require.NoError(t, err)
	require.Equal(t, 2, tires.NumRows())

	// Sorted by driver: HAM first
	assert.Equal(t, "HAM", tires.Value(0, "Driver"))
	med, _ := tires.Float(0, "MEDIUM")
	assert.Equal(t, 1.0, med)

	soft, _ := tires.Float(1, "SOFT")
	hard, _ := tires.Float(1, "HARD")
	wet, _ := tires.Float(1, "WET")
	assert.InDelta(t, 0.75, soft, 1e-9, "two soft stints sum")
	assert.InDelta(t, 0.25, hard, 1e-9)
	assert.Equal(t, 0.0, wet)
}

func TestTireProportionsNoLaps(t *testing.T) {
	_, err := TireProportions(2023, 5, nil)
	assert.ErrorIs(t, err, ErrNoLaps)
}

func TestTireProportionsByRaceStacksRaces(t *testing.T) {
	laps := []models.Lap{
		{Season: 2023, Round: 6, Driver: "VER", Compound: "MEDIUM", LapNumber: 1},
		{Season: 2023, Round: 5, Driver: "VER", Compound: "SOFT", LapNumber: 1},
		{Season: 2023, Round: 5, Driver: "VER", Compound: "HARD", LapNumber: 2},
		{Season: 2023, Round: 5, Driver: "HAM", Compound: "SOFT", LapNumber: 1},
	}

	tires, err := TireProportionsByRace(laps)
	require.NoError(t, err)
	require.Equal(t, 3, tires.NumRows())

	// Races in order, drivers sorted within each race
	assert.Equal(t, "5", tires.Value(0, "Round"))
	assert.Equal(t, "HAM", tires.Value(0, "Driver"))
	assert.Equal(t, "VER", tires.Value(1, "Driver"))
	assert.Equal(t, "6", tires.Value(2, "Round"))

	soft, _ := tires.Float(1, "SOFT")
	assert.InDelta(t, 0.5, soft, 1e-9)
	med, _ := tires.Float(2, "MEDIUM")
	assert.Equal(t, 1.0, med)

	_, err = TireProportionsByRace(nil)
	assert.ErrorIs(t, err, ErrNoLaps)
}

func TestMergeTireProportionsFromLaps(t *testing.T) {
	premodel := tableFromCSV(t, `
Season,Round,Abbreviation
2023,5,VER
2023,6,VER
`)
	laps := []models.Lap{
		{Season: 2023, Round: 5, Driver: "VER", Compound: "SOFT", LapNumber: 1},
		{Season: 2023, Round: 6, Driver: "VER", Compound: "WET", LapNumber: 1},
	}

	tires, err := TireProportionsByRace(laps)
	require.NoError(t, err)
	merged, err := MergeTireProportions(premodel, tires)
	require.NoError(t, err)
	require.Equal(t, 2, merged.NumRows())

	soft, _ := merged.Float(0, "SOFT")
	assert.Equal(t, 1.0, soft)
	wet, _ := merged.Float(1, "WET")
	assert.Equal(t, 1.0, wet)
}

func TestMergeTireProportionsFillsZero(t *testing.T) {
	premodel := tableFromCSV(t, `
Season,Round,Abbreviation
2023,5,VER
2023,5,ALO
`)
	tires := tableFromCSV(t, `
Season,Round,Driver,SOFT,MEDIUM,HARD,INTERMEDIATE,WET
2023,5,VER,0.6,0.4,0,0,0
`)

	merged, err := MergeTireProportions(premodel, tires)
	require.NoError(t, err)

	soft, _ := merged.Float(0, "SOFT")
	assert.Equal(t, 0.6, soft)
	// ALO has no tire record; all compounds fall back to 0
	for _, c := range Compounds {
		v, ok := merged.Float(1, c)
		require.True(t, ok)
		assert.Equal(t, 0.0, v)
	}
}

func TestAvgPitStopTimes(t *testing.T) {
	laps := []models.Lap{
		{Driver: "VER", PitTime: 2.4},
		{Driver: "VER", PitTime: 2.8},
		{Driver: "VER"},
		{Driver: "HAM", PitTime: 3.0},
	}

	avgs := AvgPitStopTimes(laps)
	assert.InDelta(t, 2.6, avgs["VER"], 1e-9)
	assert.Equal(t, 3.0, avgs["HAM"])
	_, ok := avgs["ALO"]
	assert.False(t, ok)
}

func TestAppendAvgPitStopOnlyTouchesItsColumn(t *testing.T) {
	premodel := tableFromCSV(t, `
Season,Round,Abbreviation,GridPosition
2023,1,VER,1
2023,1,HAM,5
`)

	averages := map[string]float64{
		PitStopKey("2023", "1", "VER"): 2.65,
	}
	require.NoError(t, AppendAvgPitStop(premodel, averages))

	v, ok := premodel.Float(0, AvgPitStopColumn)
	require.True(t, ok)
	assert.InDelta(t, 2.65, v, 1e-9)
	assert.Equal(t, "", premodel.Value(1, AvgPitStopColumn))
	assert.Equal(t, "5", premodel.Value(1, "GridPosition"))
}

func TestComputePointsProp(t *testing.T) {
	premodel := tableFromCSV(t, `
Season,Round,Abbreviation,Points
2023,1,VER,25
2023,1,HAM,10.5
2023,2,VER,25
2023,2,HAM,0
`)

	require.NoError(t, ComputePointsProp(premodel))

	// After round 1: VER 25 of 35.5
	p0, ok := premodel.Float(0, PointsPropColumn)
	require.True(t, ok)
	assert.InDelta(t, 25.0/35.5, p0, 1e-12)

	// After round 2: VER 50 of 60.5 (half points handled exactly)
	p2, ok := premodel.Float(2, PointsPropColumn)
	require.True(t, ok)
	assert.InDelta(t, 50.0/60.5, p2, 1e-12)
}

func TestComputePointsPropMissingColumn(t *testing.T) {
	premodel := tableFromCSV(t, "Season,Driver\n2023,VER")
	assert.Error(t, ComputePointsProp(premodel))
}
