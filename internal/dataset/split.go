package dataset

import (
	"errors"
	"math"
	"math/rand"
)

var errClassTooSmall = errors.New("dataset: a label class has fewer than 2 rows, cannot stratify")

// Split is a stratified train/validation partition.
type Split struct {
	TrainX [][]float64
	TrainY []int
	ValX   [][]float64
	ValY   []int
}

// StratifiedSplit partitions (X, y) so that both partitions preserve the
// class balance. Stratification is mandatory: an unstratified split on a
// small dataset risks a validation set with near-zero instances of one
// outcome. Fails when either class has fewer than 2 rows, which also covers
// the degenerate single-class dataset.
func StratifiedSplit(X [][]float64, y []int, testFraction float64, seed int64) (*Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = 0.2
	}

	var byClass [2][]int
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	if len(byClass[0]) < 2 || len(byClass[1]) < 2 {
		return nil, errClassTooSmall
	}

	rng := rand.New(rand.NewSource(seed))
	split := &Split{}

	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})

		k := int(math.Round(testFraction * float64(len(indices))))
		if k < 1 {
			k = 1
		}
		if k > len(indices)-1 {
			k = len(indices) - 1
		}

		for _, i := range indices[:k] {
			split.ValX = append(split.ValX, X[i])
			split.ValY = append(split.ValY, y[i])
		}
		for _, i := range indices[k:] {
			split.TrainX = append(split.TrainX, X[i])
			split.TrainY = append(split.TrainY, y[i])
		}
	}

	return split, nil
}
