package classifier

import "github.com/richxcame/postguard/internal/features"

// Scorer estimates P(fraud | features). Implementations must be safe for
// concurrent use and return values in [0, 1].
type Scorer interface {
	Score(v features.FeatureVector) float64
}

// ScorerFunc adapts a plain function to the Scorer interface
type ScorerFunc func(v features.FeatureVector) float64

// Score implements Scorer
func (f ScorerFunc) Score(v features.FeatureVector) float64 {
	return clamp01(f(v))
}

// Constant returns a Scorer that always answers p
func Constant(p float64) Scorer {
	return ScorerFunc(func(features.FeatureVector) float64 { return p })
}

func clamp01(p float64) float64 {
	switch {
	case p != p: // NaN
		return 0
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
