package ensemble

import "fmt"

// Params are the boosting hyperparameters.
type Params struct {
	Trees          int     `json:"trees"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	Seed           int64   `json:"seed"`
}

// DefaultParams match the fitted production models.
func DefaultParams() Params {
	return Params{
		Trees:          200,
		LearningRate:   0.1,
		MaxDepth:       4,
		MinSamplesLeaf: 5,
		Seed:           42,
	}
}

// BoostedModel is a gradient-boosted regression tree model with squared
// loss. Prediction is Bias plus the learning-rate weighted sum of tree
// outputs.
type BoostedModel struct {
	Bias         float64 `json:"bias"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []*Tree `json:"trees"`
	NumFeatures  int     `json:"num_features"`
}

// fitBoosted fits one boosted model on the given row subset
func fitBoosted(x [][]float64, y []float64, rows []int, params Params) (*BoostedModel, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInsufficientData)
	}

	m := &BoostedModel{
		Bias:         meanAt(y, rows),
		LearningRate: params.LearningRate,
		Trees:        make([]*Tree, 0, params.Trees),
		NumFeatures:  len(x[rows[0]]),
	}

	pred := make([]float64, len(y))
	for _, r := range rows {
		pred[r] = m.Bias
	}

	// squared loss: the negative gradient is the residual
	residual := make([]float64, len(y))
	tp := treeParams{maxDepth: params.MaxDepth, minSamplesLeaf: params.MinSamplesLeaf}
	for i := 0; i < params.Trees; i++ {
		for _, r := range rows {
			residual[r] = y[r] - pred[r]
		}
		tree := fitTree(x, residual, rows, tp)
		m.Trees = append(m.Trees, tree)
		for _, r := range rows {
			pred[r] += params.LearningRate * tree.Predict(x[r])
		}
	}

	return m, nil
}

// Predict scores one feature vector
func (m *BoostedModel) Predict(x []float64) (float64, error) {
	if len(x) != m.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, model expects %d",
			ErrDimensionMismatch, len(x), m.NumFeatures)
	}
	out := m.Bias
	for _, tree := range m.Trees {
		out += m.LearningRate * tree.Predict(x)
	}
	return out, nil
}
