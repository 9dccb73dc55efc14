package ensemble

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticData generates rows where the target depends strongly on feature 0
// and weakly on feature 1, with feature 2 pure noise.
func syntheticData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		f0 := rng.Float64() * 20
		f1 := rng.Float64() * 10
		f2 := rng.Float64()
		x[i] = []float64{f0, f1, f2}
		y[i] = 3*f0 - 0.5*f1 + rng.NormFloat64()*0.1
	}
	return x, y
}

func testParams() Params {
	return Params{Trees: 40, LearningRate: 0.1, MaxDepth: 3, MinSamplesLeaf: 2, Seed: 7}
}

func TestFitBoostedReducesError(t *testing.T) {
	x, y := syntheticData(200, 1)
	rows := make([]int, len(x))
	for i := range rows {
		rows[i] = i
	}

	m, err := fitBoosted(x, y, rows, testParams())
	require.NoError(t, err)

	var sse, sseBias float64
	for i := range x {
		p, err := m.Predict(x[i])
		require.NoError(t, err)
		sse += (y[i] - p) * (y[i] - p)
		sseBias += (y[i] - m.Bias) * (y[i] - m.Bias)
	}
	assert.Less(t, sse, sseBias/10, "boosting must fit far better than the mean")
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	x, y := syntheticData(50, 2)
	rows := make([]int, len(x))
	for i := range rows {
		rows[i] = i
	}
	m, err := fitBoosted(x, y, rows, testParams())
	require.NoError(t, err)

	_, err = m.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTrainProducesRequestedFolds(t *testing.T) {
	x, y := syntheticData(120, 3)

	e, err := Train(x, y, []string{"f0", "f1", "f2"}, "target", 5, testParams(), nil)
	require.NoError(t, err)
	require.Len(t, e.Folds, 5)

	p, err := e.Predict(x[0])
	require.NoError(t, err)
	assert.False(t, math.IsNaN(p))
	assert.InDelta(t, y[0], p, 5.0)
}

func TestTrainRejectsTooFewRows(t *testing.T) {
	x, y := syntheticData(3, 4)
	_, err := Train(x, y, nil, "target", 5, testParams(), nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEnsembleSaveLoadRoundTrip(t *testing.T) {
	x, y := syntheticData(100, 5)
	e, err := Train(x, y, []string{"f0", "f1", "f2"}, "target", 3, testParams(), nil)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, e.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Folds, 3)
	assert.Equal(t, e.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, e.Target, loaded.Target)

	for i := 0; i < 10; i++ {
		want, err := e.Predict(x[i])
		require.NoError(t, err)
		got, err := loaded.Predict(x[i])
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12)
	}
}

func TestLoadEmptyDir(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestCalibrationFitsAffineShift(t *testing.T) {
	pred := []float64{1, 2, 3, 4, 5}
	truth := []float64{3, 5, 7, 9, 11} // truth = 1 + 2*pred

	c, err := FitCalibration(pred, truth)
	require.NoError(t, err)
	assert.True(t, c.Fitted)
	assert.InDelta(t, 1.0, c.Intercept, 1e-9)
	assert.InDelta(t, 2.0, c.Slope, 1e-9)
	assert.InDelta(t, 21.0, c.Apply(10), 1e-9)
}

func TestCalibrationDegenerateCases(t *testing.T) {
	c, err := FitCalibration([]float64{5}, []float64{7})
	require.NoError(t, err)
	assert.False(t, c.Fitted)
	assert.Equal(t, 3.0, c.Apply(3), "identity when unfitted")

	c, err = FitCalibration([]float64{2, 2, 2}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, c.Fitted, "constant predictions cannot be calibrated")

	var nilCal *Calibration
	assert.Equal(t, 4.0, nilCal.Apply(4))
}

func TestLoadCalibrationMissingFileIsNil(t *testing.T) {
	c, err := LoadCalibration(t.TempDir() + "/calibration.json")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestExplainReconstructsPrediction(t *testing.T) {
	x, y := syntheticData(150, 6)
	e, err := Train(x, y, []string{"f0", "f1", "f2"}, "target", 3, testParams(), nil)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		pred, err := e.Predict(x[i])
		require.NoError(t, err)

		attr, err := e.Explain(x[i])
		require.NoError(t, err)

		sum := attr.Baseline
		for _, c := range attr.Contributions {
			sum += c
		}
		assert.InDelta(t, pred, sum, 1e-9, "contributions must sum to the prediction")
	}
}

func TestSummarizeRanksDominantFeatureFirst(t *testing.T) {
	x, y := syntheticData(200, 7)
	e, err := Train(x, y, []string{"f0", "f1", "f2"}, "target", 2, testParams(), nil)
	require.NoError(t, err)

	attrs, err := e.ExplainBatch(x)
	require.NoError(t, err)

	summary := e.Summarize(attrs)
	require.Len(t, summary, 3)
	assert.Equal(t, "f0", summary[0].Feature, "target is dominated by f0")
	assert.Greater(t, summary[0].MeanAbsoluteImpact, summary[1].MeanAbsoluteImpact)
}
