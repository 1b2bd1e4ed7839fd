// Package predictor serves online inference from a persisted model
// artifact. A Predictor binds to exactly one model snapshot for its
// lifetime; retraining produces a new artifact and a new Predictor.
package predictor

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hoopcast/prediction-api/internal/features"
	"github.com/hoopcast/prediction-api/internal/gbdt"
	"github.com/hoopcast/prediction-api/internal/models"
)

type Predictor struct {
	model *gbdt.Model
}

// New loads the artifact at path. There is no fallback heuristic: a missing
// artifact fails construction with ErrModelNotFound.
func New(path string) (*Predictor, error) {
	model, err := gbdt.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (train a model first with POST /train)", models.ErrModelNotFound, path)
		}
		return nil, err
	}
	return &Predictor{model: model}, nil
}

// Model exposes the bound snapshot's metadata.
func (p *Predictor) Model() *gbdt.Model { return p.model }

// Predict returns the predicted winner and both class probabilities for a
// single matchup. The model's positive class is "home wins", so a
// probability of exactly 0.5 resolves to the home side.
func (p *Predictor) Predict(m models.Matchup) (*models.PredictionResult, error) {
	vector, err := features.BuildFromMatchup(m.Home, m.Away)
	if err != nil {
		return nil, err
	}

	homeProb := p.model.PredictProba(vector)
	awayProb := 1 - homeProb

	winner := m.Home.Abbreviation
	confidence := homeProb
	if awayProb > homeProb {
		winner = m.Away.Abbreviation
		confidence = awayProb
	}

	return &models.PredictionResult{
		PredictedWinner:    winner,
		HomeWinProbability: homeProb,
		AwayWinProbability: awayProb,
		Confidence:         confidence,
	}, nil
}

// PredictBatch applies Predict to each matchup independently. A failure on
// one entry is captured in that entry and does not abort the batch.
func (p *Predictor) PredictBatch(matchups []models.Matchup) []models.BatchPrediction {
	out := make([]models.BatchPrediction, len(matchups))
	for i, m := range matchups {
		result, err := p.Predict(m)
		if err != nil {
			out[i] = models.BatchPrediction{Error: err.Error()}
			continue
		}
		out[i] = models.BatchPrediction{Result: result}
	}
	return out
}
