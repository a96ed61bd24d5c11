package store

import "github.com/MarcoLSC/echo-emergent/internal/types"

const (
	// minAdjustWeight is the accumulated-weight threshold below which
	// adjustment is skipped; too few samples would overfit.
	minAdjustWeight = 5

	// maxBoost caps the preference boost at 30% of a category's own raw
	// score.
	maxBoost = 0.3
)

// Adjust re-weights raw classifier scores using the accumulated category
// preferences in rec. Each category gains at most maxBoost of its own raw
// score, scaled by its share of the total preference weight; categories
// with no history gain nothing.
//
// Adjust is pure. It returns raw itself when no adjustment applies, and an
// adjusted copy otherwise.
func Adjust(raw types.Scores, rec types.PreferenceRecord) types.Scores {
	if !rec.DataCollectionEnabled || rec.TotalInteractions == 0 {
		return raw
	}

	totalWeight := rec.TotalWeight()
	if totalWeight <= minAdjustWeight {
		return raw
	}

	adjusted := raw.Clone()
	for category, score := range raw {
		share := float64(rec.CategoryPreferences[category]) / float64(totalWeight)
		adjusted[category] = score + score*share*maxBoost
	}

	return adjusted
}
