package cbr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyTemperature(t *testing.T) {
	tests := []struct {
		temp              float64
		low, ideal, high  float64
	}{
		{85, 1.0, 0.0, 0.0},
		{90, 1.0, 0.0, 0.0},
		{91, 0.5, 0.5, 0.0},
		{92, 0.0, 1.0, 0.0},
		{93, 0.0, 1.0, 0.0},
		{94, 0.0, 1.0, 0.0},
		{95, 0.0, 0.5, 0.5},
		{96, 0.0, 0.0, 1.0},
		{97, 0.0, 0.0, 1.0},
	}

	for _, tt := range tests {
		m := FuzzyTemperature(tt.temp)
		assert.InDelta(t, tt.low, m.Low, 1e-9, "LOW(%v)", tt.temp)
		assert.InDelta(t, tt.ideal, m.Ideal, 1e-9, "IDEAL(%v)", tt.temp)
		assert.InDelta(t, tt.high, m.High, 1e-9, "HIGH(%v)", tt.temp)
	}
}

func TestWeightedTagScore(t *testing.T) {
	t.Run("desired matched, avoided absent", func(t *testing.T) {
		score := WeightedTagScore(
			map[string]float64{"fruity": 1.0, "bitter": -1.0},
			[]string{"Fruity", "Floral"},
		)
		assert.InDelta(t, 100.0, score, 1e-9)
	})

	t.Run("one of two desired matched", func(t *testing.T) {
		score := WeightedTagScore(
			map[string]float64{"fruity": 1.0, "nutty": 1.0},
			[]string{"Fruity", "Bright"},
		)
		assert.InDelta(t, 50.0, score, 1e-9)
	})

	t.Run("avoided tag present earns nothing", func(t *testing.T) {
		score := WeightedTagScore(
			map[string]float64{"bitter": -1.0},
			[]string{"Bitter", "Bold"},
		)
		assert.InDelta(t, 0.0, score, 1e-9)
	})

	t.Run("substring match is case-insensitive", func(t *testing.T) {
		score := WeightedTagScore(
			map[string]float64{"fruit": 1.0},
			[]string{"FRUITY"},
		)
		assert.InDelta(t, 100.0, score, 1e-9)
	})

	t.Run("zero weight sum returns zero", func(t *testing.T) {
		assert.Zero(t, WeightedTagScore(nil, []string{"Fruity"}))
		assert.Zero(t, WeightedTagScore(map[string]float64{"fruity": 0}, []string{"Fruity"}))
	})
}

func TestSimilarity(t *testing.T) {
	weights := map[string]float64{
		"origin":      0.3,
		"roast_level": 0.4,
		"processing":  0.3,
	}

	t.Run("identical cases score 1.0", func(t *testing.T) {
		a := Features{
			"origin":      Categorical("Ethiopia"),
			"roast_level": Numeric(2),
			"processing":  Categorical("Washed"),
		}
		b := Features{
			"origin":      Categorical("ethiopia"),
			"roast_level": Numeric(2),
			"processing":  Categorical("washed"),
		}
		assert.InDelta(t, 1.0, Similarity(a, b, weights), 1e-9)
	})

	t.Run("numeric distance decays as 1/(1+d)", func(t *testing.T) {
		a := Features{"roast_level": Numeric(1)}
		b := Features{"roast_level": Numeric(4)}
		got := Similarity(a, b, map[string]float64{"roast_level": 1.0})
		assert.InDelta(t, 0.25, got, 1e-9)
	})

	t.Run("boolean features compare by equality", func(t *testing.T) {
		w := map[string]float64{"decaf": 1.0}
		assert.InDelta(t, 1.0, Similarity(
			Features{"decaf": Boolean(true)}, Features{"decaf": Boolean(true)}, w), 1e-9)
		assert.InDelta(t, 0.0, Similarity(
			Features{"decaf": Boolean(true)}, Features{"decaf": Boolean(false)}, w), 1e-9)
	})

	t.Run("missing and mismatched features are skipped", func(t *testing.T) {
		a := Features{
			"origin":      Categorical("Kenya"),
			"roast_level": Numeric(3),
		}
		b := Features{
			"origin":      Categorical("Kenya"),
			"roast_level": Categorical("medium"), // mismatched kind: not comparable
		}
		// Only origin contributes: 1.0 * 0.3 / 0.3.
		assert.InDelta(t, 1.0, Similarity(a, b, weights), 1e-9)
	})

	t.Run("no comparable feature returns 0", func(t *testing.T) {
		assert.Zero(t, Similarity(Features{}, Features{}, weights))
	})

	t.Run("stays within [0,1]", func(t *testing.T) {
		a := Features{
			"origin":      Categorical("Brazil"),
			"roast_level": Numeric(5),
			"processing":  Categorical("Natural"),
		}
		b := Features{
			"origin":      Categorical("Kenya"),
			"roast_level": Numeric(1),
			"processing":  Categorical("Washed"),
		}
		got := Similarity(a, b, weights)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	})
}

func TestNearestNeighbor(t *testing.T) {
	weights := map[string]float64{"roast_level": 1.0}
	query := Features{"roast_level": Numeric(3)}

	t.Run("picks the closest candidate", func(t *testing.T) {
		candidates := []Features{
			{"roast_level": Numeric(1)},
			{"roast_level": Numeric(3)},
			{"roast_level": Numeric(5)},
		}
		idx, score := NearestNeighbor(query, candidates, weights)
		assert.Equal(t, 1, idx)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("ties keep first occurrence", func(t *testing.T) {
		candidates := []Features{
			{"roast_level": Numeric(2)},
			{"roast_level": Numeric(4)}, // same distance from 3
		}
		idx, _ := NearestNeighbor(query, candidates, weights)
		assert.Equal(t, 0, idx)
	})

	t.Run("tie-break strategy is replaceable", func(t *testing.T) {
		candidates := []Features{
			{"roast_level": Numeric(2)},
			{"roast_level": Numeric(4)},
		}
		preferLater := func(best, challenger int) bool { return true }
		idx, _ := NearestNeighborTieBreak(query, candidates, weights, preferLater)
		assert.Equal(t, 1, idx)
	})

	t.Run("empty candidate set returns -1", func(t *testing.T) {
		idx, score := NearestNeighbor(query, nil, weights)
		assert.Equal(t, -1, idx)
		assert.Zero(t, score)
	})
}
