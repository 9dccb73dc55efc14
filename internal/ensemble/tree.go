// Package ensemble implements the gradient-boosted regression tree models,
// fold averaging, linear calibration and decision-path attribution used for
// race outcome scoring.
package ensemble

import (
	"sort"
)

// leafFeature marks leaf nodes
const leafFeature = -1

// Node is one node of a fitted regression tree. Value is the mean training
// target of the rows reaching the node, which attribution walks rely on.
// Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Value     float64 `json:"value"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
}

// IsLeaf reports whether the node terminates a decision path
func (n *Node) IsLeaf() bool {
	return n.Feature == leafFeature
}

// Tree is a fitted regression tree.
type Tree struct {
	Root *Node `json:"root"`
}

// Predict walks the decision path for one feature vector
func (t *Tree) Predict(x []float64) float64 {
	n := t.Root
	for !n.IsLeaf() {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// treeParams bound tree growth during fitting.
type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
}

// fitTree grows a regression tree on the given rows by greedy variance
// reduction.
func fitTree(x [][]float64, y []float64, rows []int, params treeParams) *Tree {
	return &Tree{Root: growNode(x, y, rows, params.maxDepth, params)}
}

func growNode(x [][]float64, y []float64, rows []int, depth int, params treeParams) *Node {
	node := &Node{Feature: leafFeature, Value: meanAt(y, rows)}
	if depth <= 0 || len(rows) < 2*params.minSamplesLeaf {
		return node
	}

	feature, threshold, ok := bestSplit(x, y, rows, params.minSamplesLeaf)
	if !ok {
		return node
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = growNode(x, y, left, depth-1, params)
	node.Right = growNode(x, y, right, depth-1, params)
	return node
}

// bestSplit scans every feature for the threshold that most reduces the sum
// of squared errors, using prefix sums over rows sorted by feature value.
func bestSplit(x [][]float64, y []float64, rows []int, minLeaf int) (int, float64, bool) {
	n := len(rows)
	if n < 2*minLeaf {
		return 0, 0, false
	}

	var total, totalSq float64
	for _, r := range rows {
		total += y[r]
		totalSq += y[r] * y[r]
	}
	baseSSE := totalSq - total*total/float64(n)

	bestGain := 0.0
	bestFeature := leafFeature
	bestThreshold := 0.0

	order := make([]int, n)
	numFeatures := len(x[rows[0]])

	for f := 0; f < numFeatures; f++ {
		copy(order, rows)
		sort.Slice(order, func(i, j int) bool {
			return x[order[i]][f] < x[order[j]][f]
		})

		leftSum := 0.0
		leftSq := 0.0
		for i := 0; i < n-1; i++ {
			r := order[i]
			leftSum += y[r]
			leftSq += y[r] * y[r]

			// no split between identical feature values
			if x[order[i]][f] == x[order[i+1]][f] {
				continue
			}
			leftN := i + 1
			rightN := n - leftN
			if leftN < minLeaf || rightN < minLeaf {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(leftN)) +
				(rightSq - rightSum*rightSum/float64(rightN))
			gain := baseSSE - sse
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (x[order[i]][f] + x[order[i+1]][f]) / 2
			}
		}
	}

	if bestFeature == leafFeature {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func meanAt(y []float64, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += y[r]
	}
	return sum / float64(len(rows))
}
