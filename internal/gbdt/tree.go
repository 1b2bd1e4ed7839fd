// Package gbdt implements a gradient-boosted ensemble of regression trees
// for binary classification on log-loss, with row/column subsampling and
// validation-based early stopping. Trees are stored as flat node arrays so
// the model serializes to a plain JSON artifact that the same code loads
// back for inference.
package gbdt

// Node is one node of a regression tree. Leaf nodes have Feature == -1 and
// carry the (already learning-rate-scaled) leaf weight in Value.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree is a single regression tree over the raw margin.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree for one feature vector and returns the leaf weight.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
