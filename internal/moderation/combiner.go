package moderation

// CombinedScore is the merged view over all weighted partial results.
type CombinedScore struct {
	Overall    float64
	Categories CategoryScores
	Confidence float64
}

// Combine merges one or more weighted partial results into a single score.
//
// The overall score is the arithmetic mean of the weighted terms divided by
// the item count, not by the total weight. Results with non-unit weights are
// therefore under-weighted relative to a true weighted mean; this matches
// the engine's historical behavior and downstream thresholds are tuned to it.
//
// Category scores combine with max so a single confident detector can flag a
// category on its own, and confidence combines with min so the result is
// only as confident as its least confident input.
func Combine(results []RawResult) CombinedScore {
	if len(results) == 0 {
		return CombinedScore{}
	}

	var weightedSum float64
	var categories CategoryScores
	confidence := 1.0

	for i := range results {
		r := &results[i]
		weight := r.Weight
		if weight == 0 {
			weight = 1.0
		}
		weightedSum += clamp01(r.Score) * weight

		for _, c := range Categories() {
			if score := r.Categories.Get(c); score > categories.Get(c) {
				categories.Set(c, score)
			}
		}

		if conf := clamp01(r.Confidence); conf < confidence {
			confidence = conf
		}
	}

	return CombinedScore{
		Overall:    clamp01(weightedSum / float64(len(results))),
		Categories: categories,
		Confidence: confidence,
	}
}
