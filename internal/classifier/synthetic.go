package classifier

import (
	"math/rand/v2"

	"github.com/richxcame/postguard/internal/features"
)

// BootstrapLabel is the labeling rule used to generate bootstrap training data.
// It is a stand-in for real labels, not a statement about real fraud behavior.
// The brand-new-account branch covers about 0.2% of the synthetic space, so a
// trained model usually scores it low; the rule engine and link checks carry
// such posts instead.
func BootstrapLabel(v features.FeatureVector) bool {
	shortener := v.UsesShortener == 1
	return (v.AccountAgeDays < 30 && shortener && v.UrgencyKeywords > 1) ||
		(shortener && v.UrgencyKeywords > 3) ||
		(v.AccountAgeDays < 2 && v.NumLinks > 0)
}

// SyntheticSamples draws n labeled feature vectors from rng
func SyntheticSamples(rng *rand.Rand, n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		v := features.FeatureVector{
			AccountAgeDays:  float64(rng.IntN(1001)),
			FollowerRatio:   rng.Float64() * 2,
			NumLinks:        rng.IntN(6),
			UrgencyKeywords: rng.IntN(6),
		}
		if rng.Float64() > 0.8 {
			v.UsesShortener = 1
		}

		x[i] = v.Values()
		if BootstrapLabel(v) {
			y[i] = 1
		}
	}

	return x, y
}

// TrainSynthetic fits a GradientBoosted model on seeded synthetic data.
// The same options always produce the same model.
func TrainSynthetic(opts TrainingOptions) (*GradientBoosted, error) {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	x, y := SyntheticSamples(rng, opts.Samples)
	return Fit(x, y, opts)
}
