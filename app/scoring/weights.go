package scoring

// Weight adaptation step and per-weight ceiling.
const (
	adjustmentStep = 0.1
	maxWeight      = 0.5
)

// Weights holds the four composite scoring factors. After any adjustment
// they sum to 1.0 and each stays within [0, 0.5].
type Weights struct {
	SourceCredibility   float64
	TopicRelevance      float64
	Timeliness          float64
	EngagementPotential float64
}

func DefaultWeights() Weights {
	return Weights{
		SourceCredibility:   0.25,
		TopicRelevance:      0.30,
		Timeliness:          0.20,
		EngagementPotential: 0.25,
	}
}

func (w Weights) Sum() float64 {
	return w.SourceCredibility + w.TopicRelevance + w.Timeliness + w.EngagementPotential
}

// FactorAverages holds the mean sub-score per factor over a set of
// historical recommendations.
type FactorAverages struct {
	SourceCredibility   float64
	TopicRelevance      float64
	Timeliness          float64
	EngagementPotential float64
}

// AdjustWeights nudges each factor's weight upward when accepted
// recommendations averaged a higher sub-score for that factor than
// rejected ones, then renormalizes. Weights are never nudged downward;
// renormalization is what shrinks the losing factors. Drift over many
// iterations is an accepted property of this rule.
func AdjustWeights(current Weights, accepted, rejected FactorAverages) Weights {
	next := current
	if accepted.SourceCredibility > rejected.SourceCredibility {
		next.SourceCredibility += adjustmentStep
	}
	if accepted.TopicRelevance > rejected.TopicRelevance {
		next.TopicRelevance += adjustmentStep
	}
	if accepted.Timeliness > rejected.Timeliness {
		next.Timeliness += adjustmentStep
	}
	if accepted.EngagementPotential > rejected.EngagementPotential {
		next.EngagementPotential += adjustmentStep
	}
	return normalizeWeights(next)
}

// normalizeWeights scales the weights to sum to 1.0, then caps any weight
// at maxWeight and redistributes the excess across the uncapped weights
// until the cap holds everywhere.
func normalizeWeights(w Weights) Weights {
	values := []float64{w.SourceCredibility, w.TopicRelevance, w.Timeliness, w.EngagementPotential}

	total := 0.0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return DefaultWeights()
	}
	for i := range values {
		values[i] /= total
	}

	capped := make([]bool, len(values))
	for {
		excess := 0.0
		uncappedSum := 0.0
		for i, v := range values {
			if capped[i] {
				continue
			}
			if v > maxWeight {
				excess += v - maxWeight
				values[i] = maxWeight
				capped[i] = true
			} else {
				uncappedSum += v
			}
		}
		if excess == 0 {
			break
		}

		uncapped := 0
		for i := range values {
			if !capped[i] {
				uncapped++
			}
		}
		if uncapped == 0 {
			break
		}
		for i := range values {
			if capped[i] {
				continue
			}
			if uncappedSum > 0 {
				values[i] += excess * values[i] / uncappedSum
			} else {
				values[i] += excess / float64(uncapped)
			}
		}
	}

	return Weights{
		SourceCredibility:   values[0],
		TopicRelevance:      values[1],
		Timeliness:          values[2],
		EngagementPotential: values[3],
	}
}
