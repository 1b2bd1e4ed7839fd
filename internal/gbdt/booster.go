package gbdt

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Params are the boosting hyperparameters. The ensemble size is deliberately
// large; early stopping on validation log-loss decides the effective size.
type Params struct {
	Trees               int
	MaxDepth            int
	LearningRate        float64
	Subsample           float64
	Colsample           float64
	Lambda              float64
	MinChildWeight      float64
	EarlyStoppingRounds int
	Seed                int64
}

func DefaultParams() Params {
	return Params{
		Trees:               500,
		MaxDepth:            6,
		LearningRate:        0.05,
		Subsample:           0.8,
		Colsample:           0.8,
		Lambda:              1.0,
		MinChildWeight:      1.0,
		EarlyStoppingRounds: 30,
		Seed:                42,
	}
}

// Model is the trained ensemble plus the metadata the artifact carries.
type Model struct {
	BaseScore     float64   `json:"base_score"`
	Trees         []Tree    `json:"trees"`
	FeatureNames  []string  `json:"feature_names"`
	Importance    []float64 `json:"importance"`
	BestIteration int       `json:"best_iteration"`
	Version       string    `json:"version"`
	TrainedAt     time.Time `json:"trained_at"`
}

// PredictProba returns P(y=1) for one feature vector.
func (m *Model) PredictProba(x []float64) float64 {
	score := m.BaseScore
	for i := range m.Trees {
		score += m.Trees[i].Predict(x)
	}
	return sigmoid(score)
}

var (
	errEmptyDataset   = errors.New("gbdt: empty training set")
	errSingleClass    = errors.New("gbdt: labels contain a single class")
	errWidthMismatch  = errors.New("gbdt: inconsistent feature vector width")
	errNoFeatureNames = errors.New("gbdt: feature names required")
)

// Train fits the ensemble on (X, y), stopping early when validation
// log-loss has not improved for EarlyStoppingRounds rounds and rolling the
// ensemble back to the best iteration.
func Train(X [][]float64, y []int, valX [][]float64, valY []int, names []string, p Params) (*Model, error) {
	if len(X) == 0 || len(valX) == 0 {
		return nil, errEmptyDataset
	}
	if len(names) == 0 {
		return nil, errNoFeatureNames
	}
	nFeatures := len(names)
	for _, row := range X {
		if len(row) != nFeatures {
			return nil, errWidthMismatch
		}
	}

	pos := 0
	for _, label := range y {
		pos += label
	}
	if pos == 0 || pos == len(y) {
		return nil, errSingleClass
	}

	rng := rand.New(rand.NewSource(p.Seed))

	// Base score is the log-odds of the training base rate.
	base := logit(float64(pos) / float64(len(y)))

	margins := filled(len(X), base)
	valMargins := filled(len(valX), base)

	model := &Model{
		BaseScore:    base,
		FeatureNames: names,
		Importance:   make([]float64, nFeatures),
	}

	b := &builder{
		X:    X,
		y:    y,
		p:    p,
		rng:  rng,
		gain: make([]float64, nFeatures),
	}

	bestLoss := math.Inf(1)
	bestIter := -1
	perTreeGain := make([][]float64, 0, p.Trees)

	for round := 0; round < p.Trees; round++ {
		tree := b.buildTree(margins)
		model.Trees = append(model.Trees, tree)
		perTreeGain = append(perTreeGain, b.takeGain())

		for i, row := range X {
			margins[i] += tree.Predict(row)
		}
		for i, row := range valX {
			valMargins[i] += tree.Predict(row)
		}

		loss := logLoss(valMargins, valY)
		if loss < bestLoss-1e-9 {
			bestLoss = loss
			bestIter = round
		} else if round-bestIter >= p.EarlyStoppingRounds {
			break
		}
	}

	// Roll back to the best iteration and attribute split gains only to
	// the trees that survive.
	model.Trees = model.Trees[:bestIter+1]
	model.BestIteration = bestIter
	for _, gains := range perTreeGain[:bestIter+1] {
		for f, g := range gains {
			model.Importance[f] += g
		}
	}
	normalize(model.Importance)

	return model, nil
}

// builder holds per-fit state so tree construction can reuse buffers.
type builder struct {
	X    [][]float64
	y    []int
	p    Params
	rng  *rand.Rand
	gain []float64 // split gain accumulated for the current tree
}

// takeGain returns the current tree's gain attribution and resets it.
func (b *builder) takeGain() []float64 {
	out := make([]float64, len(b.gain))
	copy(out, b.gain)
	for i := range b.gain {
		b.gain[i] = 0
	}
	return out
}

// buildTree fits one regression tree to the Newton approximation of the
// log-loss: gradient p-y, hessian p(1-p).
func (b *builder) buildTree(margins []float64) Tree {
	n := len(b.X)

	grad := make([]float64, n)
	hess := make([]float64, n)
	for i, m := range margins {
		prob := sigmoid(m)
		grad[i] = prob - float64(b.y[i])
		hess[i] = prob * (1 - prob)
	}

	rows := b.sampleRows(n)
	cols := b.sampleCols(len(b.X[0]))

	tree := Tree{}
	b.growNode(&tree, rows, cols, grad, hess, 0)
	return tree
}

func (b *builder) sampleRows(n int) []int {
	k := int(b.p.Subsample * float64(n))
	if k < 1 {
		k = 1
	}
	perm := b.rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

func (b *builder) sampleCols(n int) []int {
	k := int(b.p.Colsample * float64(n))
	if k < 1 {
		k = 1
	}
	perm := b.rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

// growNode appends a node for the given rows and returns its index.
func (b *builder) growNode(tree *Tree, rows, cols []int, grad, hess []float64, depth int) int {
	var sumG, sumH float64
	for _, i := range rows {
		sumG += grad[i]
		sumH += hess[i]
	}

	idx := len(tree.Nodes)
	if depth >= b.p.MaxDepth || len(rows) < 2 {
		tree.Nodes = append(tree.Nodes, b.leaf(sumG, sumH))
		return idx
	}

	feature, threshold, gain := b.bestSplit(rows, cols, grad, hess, sumG, sumH)
	if feature < 0 {
		tree.Nodes = append(tree.Nodes, b.leaf(sumG, sumH))
		return idx
	}
	b.gain[feature] += gain

	var left, right []int
	for _, i := range rows {
		if b.X[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	// Reserve the split node, then grow children; child indexes are only
	// known after their subtrees are appended.
	tree.Nodes = append(tree.Nodes, Node{Feature: feature, Threshold: threshold})
	l := b.growNode(tree, left, cols, grad, hess, depth+1)
	r := b.growNode(tree, right, cols, grad, hess, depth+1)
	tree.Nodes[idx].Left = l
	tree.Nodes[idx].Right = r
	return idx
}

func (b *builder) leaf(sumG, sumH float64) Node {
	// Newton step, scaled by the learning rate at the leaf so inference is
	// a plain sum over trees.
	value := -sumG / (sumH + b.p.Lambda) * b.p.LearningRate
	return Node{Feature: -1, Value: value}
}

// bestSplit runs exact greedy split finding over the sampled columns.
// Returns feature -1 when no split improves on the parent.
func (b *builder) bestSplit(rows, cols []int, grad, hess []float64, sumG, sumH float64) (int, float64, float64) {
	parent := sumG * sumG / (sumH + b.p.Lambda)

	bestFeature := -1
	var bestThreshold, bestGain float64

	order := make([]int, len(rows))
	for _, f := range cols {
		copy(order, rows)
		sort.Slice(order, func(a, c int) bool {
			return b.X[order[a]][f] < b.X[order[c]][f]
		})

		var gl, hl float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			gl += grad[i]
			hl += hess[i]

			// Only split between distinct values.
			cur, next := b.X[i][f], b.X[order[k+1]][f]
			if cur == next {
				continue
			}

			gr := sumG - gl
			hr := sumH - hl
			if hl < b.p.MinChildWeight || hr < b.p.MinChildWeight {
				continue
			}

			gain := gl*gl/(hl+b.p.Lambda) + gr*gr/(hr+b.p.Lambda) - parent
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func logit(p float64) float64 {
	const eps = 1e-12
	p = math.Min(math.Max(p, eps), 1-eps)
	return math.Log(p / (1 - p))
}

// logLoss computes the mean binary log-loss over raw margins.
func logLoss(margins []float64, y []int) float64 {
	const eps = 1e-15
	var sum float64
	for i, m := range margins {
		p := math.Min(math.Max(sigmoid(m), eps), 1-eps)
		if y[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(margins))
}

func filled(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func normalize(s []float64) {
	var total float64
	for _, v := range s {
		total += v
	}
	if total == 0 {
		return
	}
	for i := range s {
		s[i] /= total
	}
}
