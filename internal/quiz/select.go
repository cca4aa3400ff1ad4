package quiz

import "math/rand"

// pickItem samples one item by cumulative weight, biased toward items
// the learner struggles with. The previous item is excluded whenever
// more than one item is enabled, so selection never repeats.
func pickItem(rng *rand.Rand, enabled []string, weightFor func(string) float64, prev string) string {
	candidates := enabled
	if len(enabled) > 1 && prev != "" {
		filtered := make([]string, 0, len(enabled)-1)
		for _, id := range enabled {
			if id != prev {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	total := 0.0
	weights := make([]float64, len(candidates))
	for i, id := range candidates {
		w := weightFor(id)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return candidates[rng.Intn(len(candidates))]
	}

	r := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}
