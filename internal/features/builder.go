// Package features builds the fixed-order feature vector consumed by both
// training and inference. The column order returned by FeatureNames is the
// contract: the classifier only knows positions, never names, so the
// historical path and the live path must agree exactly.
package features

import (
	"fmt"
	"math"

	"github.com/hoopcast/prediction-api/internal/models"
)

// LabelColumn is the ground-truth outcome column required for training:
// 1 if the home team won, 0 otherwise.
const LabelColumn = "home_win"

// FeatureNames returns the feature columns in vector order. Single source
// of truth for column order across the trainer and the predictor.
func FeatureNames() []string {
	return []string{
		"point_diff",
		"reb_diff",
		"ast_diff",
		"tov_diff",
		"roll5_point_diff",
		"roll5_reb_diff",
		"roll5_ast_diff",
		"home_advantage",
		"elo_diff",
		"injury_diff",
	}
}

// featureSpec pairs a feature column with its fallback derivation. The
// precomputed column wins when the upstream table carries one; otherwise
// the value is derived from raw per-team columns, and any column missing
// from the table contributes 0 (absence is "no signal", not a dropped row).
type featureSpec struct {
	name   string
	derive func(t *Table, i int) float64
}

func diff(homeCol, awayCol string) func(*Table, int) float64 {
	return func(t *Table, i int) float64 {
		return t.value(homeCol, i) - t.value(awayCol, i)
	}
}

func constant(v float64) func(*Table, int) float64 {
	return func(*Table, int) float64 { return v }
}

var historySpecs = []featureSpec{
	{"point_diff", diff("home_pts", "away_pts")},
	{"reb_diff", diff("home_reb", "away_reb")},
	{"ast_diff", diff("home_ast", "away_ast")},
	{"tov_diff", diff("home_tov", "away_tov")},
	{"roll5_point_diff", diff("home_roll5_pts", "away_roll5_pts")},
	{"roll5_reb_diff", diff("home_roll5_reb", "away_roll5_reb")},
	{"roll5_ast_diff", diff("home_roll5_ast", "away_roll5_ast")},
	{"home_advantage", constant(1)},
	{"elo_diff", diff("home_elo", "away_elo")},
	// More injuries on the away side increase the home team's apparent
	// advantage, so this one is away minus home.
	{"injury_diff", diff("away_injuries", "home_injuries")},
}

// BuildFromHistory converts a historical game table into the feature matrix
// X and label vector y, one row per game.
func BuildFromHistory(t *Table) (X [][]float64, y []int, err error) {
	labels, ok := t.Column(LabelColumn)
	if !ok {
		return nil, nil, fmt.Errorf("%w: table missing %q column", models.ErrValidation, LabelColumn)
	}

	X = make([][]float64, t.Len())
	y = make([]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := make([]float64, len(historySpecs))
		for j, spec := range historySpecs {
			var v float64
			if col, ok := t.Column(spec.name); ok {
				v = col[i]
			} else {
				v = spec.derive(t, i)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			row[j] = v
		}
		X[i] = row
		if labels[i] != 0 {
			y[i] = 1
		}
	}
	return X, y, nil
}

// BuildFromMatchup computes the same 10 features from two live snapshots.
// point_diff comes from season points-per-game, not single-game points.
// Pure function of its inputs.
func BuildFromMatchup(home, away models.TeamSnapshot) ([]float64, error) {
	if home.Stats == nil {
		return nil, fmt.Errorf("%w: home snapshot %q missing stats block", models.ErrValidation, home.Abbreviation)
	}
	if away.Stats == nil {
		return nil, fmt.Errorf("%w: away snapshot %q missing stats block", models.ErrValidation, away.Abbreviation)
	}

	return []float64{
		home.Stats.PointsPerGame - away.Stats.PointsPerGame,
		home.Stats.Rebounds - away.Stats.Rebounds,
		home.Stats.Assists - away.Stats.Assists,
		home.Stats.Turnovers - away.Stats.Turnovers,
		home.Roll5Pts - away.Roll5Pts,
		home.Roll5Reb - away.Roll5Reb,
		home.Roll5Ast - away.Roll5Ast,
		1, // home advantage: the vector is always framed from the home side
		home.Elo - away.Elo,
		float64(away.Injuries - home.Injuries),
	}, nil
}
