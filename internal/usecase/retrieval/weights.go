package retrieval

import (
	"fmt"
	"math"
)

// Scale maps a collection weight to a candidate-volume multiplier. Must be
// monotone non-decreasing so a higher-priority collection never receives
// fewer candidates than a lower-priority one.
type Scale func(weight float64) float64

// Built-in scale names accepted in configuration.
const (
	ScaleUniform      = "uniform"
	ScaleProportional = "proportional"
	ScaleDamped       = "damped"
)

// ParseScale resolves a configured scale name. Empty selects proportional.
func ParseScale(name string) (Scale, error) {
	switch name {
	case ScaleProportional, "":
		return proportional, nil
	case ScaleUniform:
		return uniform, nil
	case ScaleDamped:
		return damped, nil
	default:
		return nil, fmt.Errorf("unknown k scale %q", name)
	}
}

// uniform ignores the weight: every collection gets base_k candidates.
func uniform(float64) float64 { return 1 }

// proportional scales candidate volume linearly with the weight (default).
func proportional(w float64) float64 { return w }

// damped halves the distance from 1: weight 3 yields a 2x multiplier.
func damped(w float64) float64 { return (1 + w) / 2 }

// effectiveK returns ceil(baseK × scale(weight)), never below 1.
func effectiveK(baseK int, weight float64, scale Scale) int {
	k := int(math.Ceil(float64(baseK) * scale(weight)))
	if k < 1 {
		k = 1
	}
	return k
}

// adjustedScore divides raw distance by the collection weight. Larger
// weights yield strictly smaller scores for equal distance, so results from
// higher-priority collections rank earlier.
func adjustedScore(distance, weight float64) float64 {
	return distance / weight
}
