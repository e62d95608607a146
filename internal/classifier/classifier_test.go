package classifier

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/richxcame/postguard/internal/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapLabel(t *testing.T) {
	tests := []struct {
		name string
		v    features.FeatureVector
		want bool
	}{
		{"young account with shortener and urgency", features.FeatureVector{AccountAgeDays: 10, UsesShortener: 1, UrgencyKeywords: 2}, true},
		{"shortener with heavy urgency", features.FeatureVector{AccountAgeDays: 900, UsesShortener: 1, UrgencyKeywords: 4}, true},
		{"brand new account posting links", features.FeatureVector{AccountAgeDays: 1, NumLinks: 1}, true},
		{"old account, mild urgency", features.FeatureVector{AccountAgeDays: 500, UsesShortener: 1, UrgencyKeywords: 2}, false},
		{"nothing suspicious", features.FeatureVector{AccountAgeDays: 365}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BootstrapLabel(tt.v))
		})
	}
}

func TestSyntheticSamples_Ranges(t *testing.T) {
	x, y := SyntheticSamples(rand.New(rand.NewPCG(1, 2)), 500)
	require.Len(t, x, 500)
	require.Len(t, y, 500)

	for i, row := range x {
		require.Len(t, row, features.NumFeatures)
		assert.GreaterOrEqual(t, row[0], 0.0)
		assert.LessOrEqual(t, row[0], 1000.0)
		assert.Less(t, row[1], 2.0)
		assert.LessOrEqual(t, row[2], 5.0)
		assert.Contains(t, []float64{0, 1}, row[3])
		assert.LessOrEqual(t, row[4], 5.0)
		v := features.FeatureVector{
			AccountAgeDays:  row[0],
			FollowerRatio:   row[1],
			NumLinks:        int(row[2]),
			UsesShortener:   int(row[3]),
			UrgencyKeywords: int(row[4]),
		}
		assert.Equal(t, BootstrapLabel(v), y[i] == 1)
	}
}

func TestTrainSynthetic_SeparatesObviousCases(t *testing.T) {
	model, err := TrainSynthetic(DefaultTrainingOptions())
	require.NoError(t, err)
	assert.Greater(t, model.Trees(), 0)

	fraudulent := features.FeatureVector{AccountAgeDays: 1, FollowerRatio: 0.1, NumLinks: 2, UsesShortener: 1, UrgencyKeywords: 5}
	benign := features.FeatureVector{AccountAgeDays: 500, FollowerRatio: 1, NumLinks: 0, UsesShortener: 0, UrgencyKeywords: 0}

	assert.Greater(t, model.Score(fraudulent), 0.7)
	assert.Less(t, model.Score(benign), 0.3)
}

// The age < 2 branch of BootstrapLabel is too rare in the synthetic data for
// depth-3 trees to isolate, so the model is not expected to flag it. This pins
// that down so nobody relies on the model for brand-new accounts.
func TestTrainSynthetic_RareBootstrapBranchIsNotLearned(t *testing.T) {
	opts := DefaultTrainingOptions()
	x, _ := SyntheticSamples(rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)), opts.Samples)

	support := 0
	for _, row := range x {
		if row[0] < 2 && row[2] > 0 {
			support++
		}
	}
	assert.Less(t, support, opts.Samples/100, "brand-new accounts with links should be rare")

	model, err := TrainSynthetic(opts)
	require.NoError(t, err)

	newAccount := features.FeatureVector{AccountAgeDays: 1, FollowerRatio: 1, NumLinks: 1}
	assert.True(t, BootstrapLabel(newAccount))
	assert.Less(t, model.Score(newAccount), 0.70)
}

func TestTrainSynthetic_Deterministic(t *testing.T) {
	a, err := TrainSynthetic(TrainingOptions{Seed: 7, Samples: 300, Rounds: 20})
	require.NoError(t, err)
	b, err := TrainSynthetic(TrainingOptions{Seed: 7, Samples: 300, Rounds: 20})
	require.NoError(t, err)

	v := features.FeatureVector{AccountAgeDays: 20, FollowerRatio: 0.5, NumLinks: 1, UsesShortener: 1, UrgencyKeywords: 3}
	assert.Equal(t, a.Score(v), b.Score(v))
}

func TestGradientBoosted_ScoresAreProbabilities(t *testing.T) {
	model, err := TrainSynthetic(TrainingOptions{Samples: 400, Rounds: 30})
	require.NoError(t, err)

	for age := 0.0; age <= 1000; age += 250 {
		for links := 0; links <= 5; links++ {
			for short := 0; short <= 1; short++ {
				for urgency := 0; urgency <= 5; urgency++ {
					p := model.Score(features.FeatureVector{
						AccountAgeDays: age, FollowerRatio: 1, NumLinks: links,
						UsesShortener: short, UrgencyKeywords: urgency,
					})
					require.False(t, math.IsNaN(p))
					require.GreaterOrEqual(t, p, 0.0)
					require.LessOrEqual(t, p, 1.0)
				}
			}
		}
	}
}

func TestFit_LearnsThreshold(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 100; i++ {
		x = append(x, []float64{float64(i), 0, 0, 0, 0})
		if i >= 50 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	model, err := Fit(x, y, TrainingOptions{Rounds: 50, MaxDepth: 1})
	require.NoError(t, err)

	assert.Less(t, model.Score(features.FeatureVector{AccountAgeDays: 10}), 0.2)
	assert.Greater(t, model.Score(features.FeatureVector{AccountAgeDays: 90}), 0.8)
}

func TestFit_InvalidInput(t *testing.T) {
	_, err := Fit(nil, nil, DefaultTrainingOptions())
	assert.ErrorIs(t, err, ErrNoTrainingData)

	_, err = Fit([][]float64{{1}, {2}}, []float64{1}, DefaultTrainingOptions())
	assert.Error(t, err)

	_, err = Fit([][]float64{{1, 2}, {2}}, []float64{1, 0}, DefaultTrainingOptions())
	assert.Error(t, err)
}

func TestFit_SingleClass(t *testing.T) {
	model, err := Fit([][]float64{{1}, {2}, {3}}, []float64{0, 0, 0}, DefaultTrainingOptions())
	require.NoError(t, err)
	assert.Less(t, model.Score(features.FeatureVector{AccountAgeDays: 2}), 0.01)
}

func TestScorerFunc_Clamps(t *testing.T) {
	assert.Equal(t, 1.0, ScorerFunc(func(features.FeatureVector) float64 { return 3 }).Score(features.FeatureVector{}))
	assert.Equal(t, 0.0, ScorerFunc(func(features.FeatureVector) float64 { return -1 }).Score(features.FeatureVector{}))
	assert.Equal(t, 0.0, ScorerFunc(func(features.FeatureVector) float64 { return math.NaN() }).Score(features.FeatureVector{}))
	assert.Equal(t, 0.1, Constant(0.1).Score(features.FeatureVector{}))
}
