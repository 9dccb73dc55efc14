package scoring

import "math"

// Metrics are regression quality measures over rows with known outcomes.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
	N    int     `json:"n"`
}

// Evaluate computes RMSE, MAE and R2 for paired predictions and truths.
// Returns nil when there is nothing to evaluate.
func Evaluate(pred, truth []float64) *Metrics {
	n := len(pred)
	if n == 0 || n != len(truth) {
		return nil
	}

	var sse, sae, sumTruth float64
	for i := range pred {
		d := pred[i] - truth[i]
		sse += d * d
		sae += math.Abs(d)
		sumTruth += truth[i]
	}
	meanTruth := sumTruth / float64(n)

	var sst float64
	for _, t := range truth {
		d := t - meanTruth
		sst += d * d
	}

	m := &Metrics{
		RMSE: math.Sqrt(sse / float64(n)),
		MAE:  sae / float64(n),
		N:    n,
	}
	if sst > 0 {
		m.R2 = 1 - sse/sst
	}
	return m
}
