package ensemble

import (
	"math"
	"sort"
)

// Attribution decomposes one prediction into a baseline plus additive
// per-feature contributions, following the decision paths of every tree:
// each split attributes the change in node mean to the split feature.
// Baseline plus the sum of contributions reproduces the raw prediction.
type Attribution struct {
	Baseline      float64   `json:"baseline"`
	Contributions []float64 `json:"contributions"`
}

// FeatureImportance is one row of the attribution summary.
type FeatureImportance struct {
	Feature            string  `json:"feature"`
	MeanAbsoluteImpact float64 `json:"mean_absolute_impact"`
	MeanImpact         float64 `json:"mean_impact"`
}

// Explain attributes one prediction across features, averaged over folds
func (e *Ensemble) Explain(x []float64) (*Attribution, error) {
	if len(e.Folds) == 0 {
		return nil, ErrNoFolds
	}

	attr := &Attribution{Contributions: make([]float64, len(x))}
	for _, m := range e.Folds {
		if len(x) != m.NumFeatures {
			return nil, ErrDimensionMismatch
		}
		attr.Baseline += m.Bias
		for _, tree := range m.Trees {
			attr.Baseline += m.LearningRate * tree.Root.Value
			walkContributions(tree.Root, x, m.LearningRate, attr.Contributions)
		}
	}

	n := float64(len(e.Folds))
	attr.Baseline /= n
	for i := range attr.Contributions {
		attr.Contributions[i] /= n
	}
	return attr, nil
}

// walkContributions descends one tree, crediting each split feature with the
// scaled change in node mean along the taken branch.
func walkContributions(n *Node, x []float64, scale float64, out []float64) {
	for !n.IsLeaf() {
		var child *Node
		if x[n.Feature] <= n.Threshold {
			child = n.Left
		} else {
			child = n.Right
		}
		out[n.Feature] += scale * (child.Value - n.Value)
		n = child
	}
}

// ExplainBatch attributes every row
func (e *Ensemble) ExplainBatch(rows [][]float64) ([]*Attribution, error) {
	out := make([]*Attribution, len(rows))
	for i, x := range rows {
		attr, err := e.Explain(x)
		if err != nil {
			return nil, err
		}
		out[i] = attr
	}
	return out, nil
}

// Summarize ranks features by mean absolute contribution across attributions
func (e *Ensemble) Summarize(attrs []*Attribution) []FeatureImportance {
	if len(attrs) == 0 {
		return nil
	}

	numFeatures := len(attrs[0].Contributions)
	summary := make([]FeatureImportance, numFeatures)
	for f := 0; f < numFeatures; f++ {
		name := ""
		if f < len(e.FeatureNames) {
			name = e.FeatureNames[f]
		}
		summary[f].Feature = name
	}

	for _, attr := range attrs {
		for f, c := range attr.Contributions {
			summary[f].MeanAbsoluteImpact += math.Abs(c)
			summary[f].MeanImpact += c
		}
	}
	n := float64(len(attrs))
	for f := range summary {
		summary[f].MeanAbsoluteImpact /= n
		summary[f].MeanImpact /= n
	}

	sort.Slice(summary, func(i, j int) bool {
		return summary[i].MeanAbsoluteImpact > summary[j].MeanAbsoluteImpact
	})
	return summary
}
