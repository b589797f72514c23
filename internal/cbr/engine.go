// Package cbr implements the case-based reasoning and fuzzy scoring engine:
// weighted multi-feature similarity, nearest-neighbour retrieval, weighted
// tag-preference scoring and fuzzy temperature membership. Everything here is
// pure and stateless; the exact arithmetic is relied on by the agents.
package cbr

import "strings"

// featureKind selects the comparison rule a FeatureValue carries.
type featureKind int

const (
	kindCategorical featureKind = iota
	kindNumeric
	kindBoolean
)

// FeatureValue is a tagged variant of the three comparable feature types.
// Each kind carries its own comparison rule, selected by pattern match in
// compare — there is no runtime type inspection.
type FeatureValue struct {
	kind featureKind
	str  string
	num  float64
	flag bool
}

// Categorical wraps a string feature. Compares case-insensitively: equal = 1.0.
func Categorical(v string) FeatureValue {
	return FeatureValue{kind: kindCategorical, str: v}
}

// Numeric wraps a numeric feature. Compares as 1/(1+|a-b|).
func Numeric(v float64) FeatureValue {
	return FeatureValue{kind: kindNumeric, num: v}
}

// Boolean wraps a boolean feature. Compares as equal = 1.0.
func Boolean(v bool) FeatureValue {
	return FeatureValue{kind: kindBoolean, flag: v}
}

// compare returns the similarity between two feature values and whether the
// pair was comparable at all. Mismatched kinds are not comparable.
func (v FeatureValue) compare(o FeatureValue) (float64, bool) {
	if v.kind != o.kind {
		return 0, false
	}

	switch v.kind {
	case kindCategorical:
		if strings.EqualFold(v.str, o.str) {
			return 1.0, true
		}
		return 0.0, true
	case kindNumeric:
		diff := v.num - o.num
		if diff < 0 {
			diff = -diff
		}
		return 1.0 / (1.0 + diff), true
	case kindBoolean:
		if v.flag == o.flag {
			return 1.0, true
		}
		return 0.0, true
	}

	return 0, false
}

// Features maps feature names to their values for one case.
type Features map[string]FeatureValue

// Similarity computes the weighted similarity between a query case and a
// candidate case. Only features declared in weights and present in both cases
// contribute; the result is the weight-normalized average, always in [0, 1].
// Returns 0.0 when no feature is comparable.
func Similarity(query, candidate Features, weights map[string]float64) float64 {
	totalScore := 0.0
	totalWeight := 0.0

	for feature, weight := range weights {
		qv, ok := query[feature]
		if !ok {
			continue
		}
		cv, ok := candidate[feature]
		if !ok {
			continue
		}

		score, comparable := qv.compare(cv)
		if !comparable {
			continue
		}

		totalScore += score * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}

	return totalScore / totalWeight
}

// TieBreak decides whether a challenger whose score equals the current best
// should replace it. Indexes refer to the candidate slice.
type TieBreak func(best, challenger int) bool

// FirstOccurrence keeps the earlier candidate on equal scores. This is the
// default tie-break.
func FirstOccurrence(best, challenger int) bool { return false }

// NearestNeighbor returns the index and score of the candidate most similar to
// the query, breaking ties by first occurrence. Returns (-1, 0) when there are
// no candidates.
func NearestNeighbor(query Features, candidates []Features, weights map[string]float64) (int, float64) {
	return NearestNeighborTieBreak(query, candidates, weights, FirstOccurrence)
}

// NearestNeighborTieBreak is NearestNeighbor with a replaceable tie-break
// strategy. A nil tieBreak falls back to FirstOccurrence.
func NearestNeighborTieBreak(query Features, candidates []Features, weights map[string]float64, tieBreak TieBreak) (int, float64) {
	if tieBreak == nil {
		tieBreak = FirstOccurrence
	}

	bestIdx := -1
	bestScore := 0.0

	for i, candidate := range candidates {
		score := Similarity(query, candidate, weights)
		switch {
		case bestIdx < 0:
			bestIdx, bestScore = i, score
		case score > bestScore:
			bestIdx, bestScore = i, score
		case score == bestScore && tieBreak(bestIdx, i):
			bestIdx = i
		}
	}

	return bestIdx, bestScore
}

// WeightedTagScore scores a tag set against signed keyword preferences.
// Each preference keyword in [-1, 1] is substring-matched (case-insensitively)
// against the tags:
//
//   - matched, weight > 0: the desire is satisfied, add weight
//   - matched, weight < 0: the avoidance is violated, add nothing
//   - unmatched, weight < 0: the avoidance is satisfied, add |weight|
//   - unmatched, weight > 0: the desire is unmet, add nothing
//
// The sum is normalized by the total absolute weight and scaled to a 0-100
// percentage. Returns 0 when the weight sum is 0.
func WeightedTagScore(preferences map[string]float64, tags []string) float64 {
	totalWeight := 0.0
	for _, weight := range preferences {
		if weight < 0 {
			totalWeight -= weight
		} else {
			totalWeight += weight
		}
	}
	if totalWeight == 0 {
		return 0.0
	}

	lowered := make([]string, len(tags))
	for i, tag := range tags {
		lowered[i] = strings.ToLower(tag)
	}

	score := 0.0
	for keyword, weight := range preferences {
		matched := false
		kw := strings.ToLower(keyword)
		for _, tag := range lowered {
			if strings.Contains(tag, kw) {
				matched = true
				break
			}
		}

		if matched {
			if weight > 0 {
				score += weight
			}
		} else if weight < 0 {
			score -= weight
		}
	}

	return (score / totalWeight) * 100
}

// Membership holds the fuzzy membership degrees of a brew temperature in the
// LOW (under-extraction risk), IDEAL and HIGH (over-extraction risk) sets.
type Membership struct {
	Low   float64
	Ideal float64
	High  float64
}

// FuzzyTemperature evaluates a brew water temperature (Celsius) against the
// three fuzzy sets. Anchor points: LOW fades out 90-92, IDEAL ramps 90-92,
// plateaus 92-94 and fades 94-96, HIGH ramps 94-96.
func FuzzyTemperature(t float64) Membership {
	var m Membership

	switch {
	case t < 90:
		m.Low = 1.0
	case t < 92:
		m.Low = (92 - t) / 2.0
	}

	switch {
	case t < 90 || t > 96:
		// outside the ideal support
	case t < 92:
		m.Ideal = (t - 90) / 2.0
	case t <= 94:
		m.Ideal = 1.0
	default:
		m.Ideal = (96 - t) / 2.0
	}

	switch {
	case t > 96:
		m.High = 1.0
	case t > 94:
		m.High = (t - 94) / 2.0
	}

	return m
}
