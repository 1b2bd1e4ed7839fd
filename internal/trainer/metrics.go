package trainer

import "sort"

// accuracy is the fraction of correct 0.5-thresholded predictions.
func accuracy(probs []float64, y []int) float64 {
	if len(probs) == 0 {
		return 0
	}
	correct := 0
	for i, p := range probs {
		pred := 0
		if p >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(probs))
}

// rocAUC computes the area under the ROC curve via the rank statistic:
// the probability a random positive scores above a random negative, with
// ties counting half.
func rocAUC(probs []float64, y []int) float64 {
	type scored struct {
		p float64
		y int
	}
	s := make([]scored, len(probs))
	for i := range probs {
		s[i] = scored{probs[i], y[i]}
	}
	sort.Slice(s, func(a, b int) bool { return s[a].p < s[b].p })

	var pos, neg int
	for _, v := range s {
		if v.y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}

	// Sum of ranks of positives, averaging ranks across tied scores.
	var rankSum float64
	i := 0
	for i < len(s) {
		j := i
		for j < len(s) && s[j].p == s[i].p {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			if s[k].y == 1 {
				rankSum += avgRank
			}
		}
		i = j
	}

	return (rankSum - float64(pos)*float64(pos+1)/2) / (float64(pos) * float64(neg))
}

// confusionMatrix returns counts indexed as [actual][predicted].
func confusionMatrix(probs []float64, y []int) [2][2]int {
	var cm [2][2]int
	for i, p := range probs {
		pred := 0
		if p >= 0.5 {
			pred = 1
		}
		cm[y[i]][pred]++
	}
	return cm
}

// precisionRecall derives per-class precision and recall from a confusion
// matrix. Class 0 is away-win, class 1 is home-win.
func precisionRecall(cm [2][2]int) (precision, recall [2]float64) {
	for class := 0; class < 2; class++ {
		tp := cm[class][class]
		predicted := cm[0][class] + cm[1][class]
		actual := cm[class][0] + cm[class][1]
		if predicted > 0 {
			precision[class] = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			recall[class] = float64(tp) / float64(actual)
		}
	}
	return precision, recall
}
