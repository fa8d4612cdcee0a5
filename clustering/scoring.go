package clustering

import "imagecurator/types"

// Scorer ranks cluster members; the highest score becomes the winner
type Scorer interface {
	Score(asset types.Asset) float64
}

// ScoreFunc adapts a plain function to the Scorer interface
type ScoreFunc func(asset types.Asset) float64

// Score calls f(asset)
func (f ScoreFunc) Score(asset types.Asset) float64 {
	return f(asset)
}

// WeightedScorer computes sharpness + width*height/ResNormConstant + saturation*SaturationWeight.
// A non-positive ResNormConstant drops the resolution term.
type WeightedScorer struct {
	ResNormConstant  float64
	SaturationWeight float64
}

const (
	DefaultResNormConstant  = 10000.0
	DefaultSaturationWeight = 0.5
)

// DefaultScorer returns the weighted scorer with the shipped weights
func DefaultScorer() WeightedScorer {
	return WeightedScorer{
		ResNormConstant:  DefaultResNormConstant,
		SaturationWeight: DefaultSaturationWeight,
	}
}

// Score implements Scorer
func (w WeightedScorer) Score(asset types.Asset) float64 {
	score := float64(asset.Sharpness)
	if w.ResNormConstant > 0 {
		score += float64(asset.Width) * float64(asset.Height) / w.ResNormConstant
	}
	score += float64(asset.Saturation) * w.SaturationWeight
	return score
}

// PickWinner returns the highest scoring member. Equal scores go to the
// member that comes first in members.
func PickWinner(members []types.Asset, scorer Scorer) types.Asset {
	best := members[0]
	bestScore := scorer.Score(best)
	for _, candidate := range members[1:] {
		if s := scorer.Score(candidate); s > bestScore {
			best, bestScore = candidate, s
		}
	}
	return best
}
