package preprocess

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

func tableFromCSV(t *testing.T, csv string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSVFrom(strings.NewReader(strings.TrimSpace(csv) + "\n"))
	require.NoError(t, err)
	return tbl
}

func TestRainToBinary(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Rain", "1"},
		{"NoRain", "0"},
		{"no rain", "0"},
		{"LightRain", "1"},
		{"HEAVY_RAIN", "1"},
		{"", "0"},
		{"nan", "0"},
		{"1", "1"},
		{"0", "0"},
		{"dry", "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rainToBinary(tt.raw), "raw=%q", tt.raw)
	}
}

func TestCoerceRainIsIdempotent(t *testing.T) {
	tbl := tableFromCSV(t, `
Rain
Rain
NoRain
nan
1`)
	CoerceRain(tbl)
	first := []string{tbl.Value(0, "Rain"), tbl.Value(1, "Rain"), tbl.Value(2, "Rain"), tbl.Value(3, "Rain")}
	assert.Equal(t, []string{"1", "0", "0", "1"}, first)

	CoerceRain(tbl)
	second := []string{tbl.Value(0, "Rain"), tbl.Value(1, "Rain"), tbl.Value(2, "Rain"), tbl.Value(3, "Rain")}
	assert.Equal(t, first, second)
}

func TestChooseColumns(t *testing.T) {
	tbl := tableFromCSV(t, `
Unnamed: 0,Driver,TeamName,GridPosition,AvgPitStopTime,Compound,DeviationFromAvg_s,Abbreviation
0,Max Verstappen,Red Bull Racing,1,24.1,SOFT,-3.2,VER
1,Lando Norris,McLaren,2,23.8,MEDIUM,1.1,NOR`)

	roles := ChooseColumns(tbl, "DeviationFromAvg_s")

	assert.Contains(t, roles.Numeric, "GridPosition")
	assert.NotContains(t, roles.Numeric, "DeviationFromAvg_s", "target must not leak into features")
	assert.NotContains(t, roles.Numeric, "AvgPitStopTime")
	assert.Contains(t, roles.Categorical, "Driver")
	assert.Contains(t, roles.Categorical, "TeamName")
	assert.Contains(t, roles.Categorical, "Compound")
	assert.NotContains(t, roles.Categorical, "Abbreviation")
	assert.Contains(t, roles.Drop, "Unnamed: 0")
}

func TestChooseColumnsGuardsHighCardinality(t *testing.T) {
	tbl := dataset.NewTable([]string{"Driver", "GridPosition"})
	for i := 0; i < maxGuardedCardinality+10; i++ {
		require.NoError(t, tbl.AppendRow([]string{
			"driver-" + strconv.Itoa(i), strconv.Itoa(i % 20),
		}))
	}

	roles := ChooseColumns(tbl, "")
	assert.NotContains(t, roles.Categorical, "Driver")
}

func TestDetectSplitsPrefersKnownSeasons(t *testing.T) {
	tbl := dataset.NewTable([]string{"Season", "Round", "GridPosition"})
	for _, season := range []string{"2023", "2024", "2025"} {
		for round := 1; round <= 3; round++ {
			require.NoError(t, tbl.AppendRow([]string{season, strconv.Itoa(round), "5"}))
		}
	}

	split, err := DetectSplits(tbl)
	require.NoError(t, err)
	assert.True(t, split.BySeason)
	assert.Equal(t, 2023, split.TrainSeason)
	assert.Equal(t, 2024, split.ValSeason)
	assert.Equal(t, 2025, split.TestSeason)
	assert.Equal(t, 3, split.Train.NumRows())
	assert.Equal(t, 3, split.Val.NumRows())
	assert.Equal(t, 3, split.Test.NumRows())
}

func TestDetectSplitsFallsBackToRounds(t *testing.T) {
	tbl := dataset.NewTable([]string{"Season", "Round"})
	for round := 1; round <= 10; round++ {
		for driver := 0; driver < 2; driver++ {
			require.NoError(t, tbl.AppendRow([]string{"2024", strconv.Itoa(round)}))
		}
	}

	split, err := DetectSplits(tbl)
	require.NoError(t, err)
	assert.False(t, split.BySeason)
	assert.Equal(t, 12, split.Train.NumRows())
	assert.Equal(t, 4, split.Val.NumRows())
	assert.Equal(t, 4, split.Test.NumRows())
}

// trainingTable builds a table large enough that common categories survive
// the rare-category threshold.
func trainingTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl := dataset.NewTable([]string{"GridPosition", "Compound", "Rain", "DeviationFromAvg_s"})
	compounds := []string{"SOFT", "MEDIUM", "HARD"}
	for i := 0; i < 60; i++ {
		grid := strconv.Itoa(i%20 + 1)
		require.NoError(t, tbl.AppendRow([]string{
			grid, compounds[i%3], "NoRain", strconv.FormatFloat(float64(i%20)-10, 'f', 1, 64),
		}))
	}
	// one rare compound and one missing numeric
	require.NoError(t, tbl.AppendRow([]string{"", "INTERMEDIATE", "Rain", "4.0"}))
	return tbl
}

func TestFitAndTransform(t *testing.T) {
	train := trainingTable(t)

	p, err := Fit(train, "DeviationFromAvg_s")
	require.NoError(t, err)
	assert.True(t, p.Fitted)

	assert.Contains(t, p.Roles.Numeric, "GridPosition")
	assert.Contains(t, p.Roles.Numeric, "Rain", "rain is coerced before column selection")
	assert.Contains(t, p.Roles.Categorical, "Compound")

	// INTERMEDIATE appears once, well under max(5, 1%) occurrences
	assert.Contains(t, p.RareCategories["Compound"], "INTERMEDIATE")
	assert.Contains(t, p.Categories["Compound"], OtherCategory)
	assert.NotContains(t, p.Categories["Compound"], "INTERMEDIATE")

	m, err := p.Transform(train)
	require.NoError(t, err)
	require.Len(t, m.Rows, train.NumRows())
	require.Len(t, m.Rows[0], len(p.FeatureNames))
	for _, row := range m.Rows {
		for _, v := range row {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestMatrixWriteCSVRoundTrip(t *testing.T) {
	train := trainingTable(t)
	p, err := Fit(train, "DeviationFromAvg_s")
	require.NoError(t, err)

	m, err := p.Transform(train)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "X_train.csv")
	require.NoError(t, m.WriteCSV(path))

	back, err := dataset.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, m.FeatureNames, back.Columns())
	require.Equal(t, len(m.Rows), back.NumRows())

	for _, col := range m.FeatureNames {
		v, ok := back.Float(0, col)
		require.True(t, ok, col)
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestTransformFallsBackForAbsentColumns(t *testing.T) {
	p, err := Fit(trainingTable(t), "DeviationFromAvg_s")
	require.NoError(t, err)

	// GridPosition and Compound are absent entirely
	scoring := tableFromCSV(t, `
Rain
NoRain
Rain`)

	missing := p.MissingColumns(scoring)
	assert.ElementsMatch(t, []string{"GridPosition", "Compound"}, missing)

	m, err := p.Transform(scoring)
	require.NoError(t, err)
	require.Len(t, m.Rows, 2)

	gridIdx := -1
	for i, name := range p.FeatureNames {
		if name == "GridPosition" {
			gridIdx = i
		}
	}
	require.GreaterOrEqual(t, gridIdx, 0)

	// median-imputed then scaled with the train statistics
	std := p.Stds["GridPosition"]
	want := (p.Medians["GridPosition"] - p.Means["GridPosition"]) / std
	assert.InDelta(t, want, m.Rows[0][gridIdx], 1e-9)
}

func TestTransformIgnoresUnknownCategories(t *testing.T) {
	p, err := Fit(trainingTable(t), "DeviationFromAvg_s")
	require.NoError(t, err)

	scoring := tableFromCSV(t, `
GridPosition,Compound,Rain
3,ULTRASOFT,NoRain`)

	m, err := p.Transform(scoring)
	require.NoError(t, err)

	for i, name := range p.FeatureNames {
		if strings.HasPrefix(name, "Compound__") {
			assert.Zero(t, m.Rows[0][i], "unknown category must one-hot to zero: %s", name)
		}
	}
}

func TestPipelineSaveLoadRoundTrip(t *testing.T) {
	p, err := Fit(trainingTable(t), "DeviationFromAvg_s")
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "preprocessing_pipeline.json")
	require.NoError(t, p.Save(path))
	require.NoError(t, p.WriteColumnsUsed(filepath.Join(dir, "columns_used.json")))
	require.NoError(t, p.WriteCategoryMappings(filepath.Join(dir, "category_mappings.json")))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, p.Medians, loaded.Medians)
	assert.Equal(t, p.Categories, loaded.Categories)

	scoring := tableFromCSV(t, `
GridPosition,Compound,Rain
7,SOFT,Rain`)
	orig, err := p.Transform(scoring)
	require.NoError(t, err)
	reloaded, err := loaded.Transform(scoring)
	require.NoError(t, err)
	assert.Equal(t, orig.Rows, reloaded.Rows)
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrArtifactMissing)
}

func TestTransformRequiresFit(t *testing.T) {
	p := &Pipeline{}
	_, err := p.Transform(dataset.NewTable([]string{"GridPosition"}))
	assert.ErrorIs(t, err, models.ErrNotFitted)
}
