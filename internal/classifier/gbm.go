package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/richxcame/postguard/internal/features"
)

// TrainingOptions configures gradient boosting
type TrainingOptions struct {
	Seed         uint64
	Samples      int
	Rounds       int
	LearningRate float64
	MaxDepth     int
	// MinLeafSamples is the smallest row count a split may leave on either
	// side. Labeling branches backed by fewer rows than the depth-limited trees
	// can isolate are not learned, whatever this is set to.
	MinLeafSamples int
}

// DefaultTrainingOptions mirrors the usual gradient boosting defaults
func DefaultTrainingOptions() TrainingOptions {
	return TrainingOptions{
		Seed:           42,
		Samples:        1000,
		Rounds:         100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinLeafSamples: 1,
	}
}

func (o TrainingOptions) withDefaults() TrainingOptions {
	d := DefaultTrainingOptions()
	if o.Samples <= 0 {
		o.Samples = d.Samples
	}
	if o.Rounds <= 0 {
		o.Rounds = d.Rounds
	}
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MinLeafSamples <= 0 {
		o.MinLeafSamples = d.MinLeafSamples
	}
	return o
}

// ErrNoTrainingData is returned by Fit when there is nothing to learn from
var ErrNoTrainingData = errors.New("classifier: no training data")

// GradientBoosted is a binary classifier made of shallow regression trees fit
// to the log-loss gradient. It is immutable after Fit and safe for concurrent use.
type GradientBoosted struct {
	prior        float64
	learningRate float64
	trees        []tree
}

var _ Scorer = (*GradientBoosted)(nil)

// Score implements Scorer
func (m *GradientBoosted) Score(v features.FeatureVector) float64 {
	return sigmoid(m.rawScore(v.Values()))
}

// Trees returns the number of fitted trees
func (m *GradientBoosted) Trees() int {
	return len(m.trees)
}

func (m *GradientBoosted) rawScore(x []float64) float64 {
	f := m.prior
	for i := range m.trees {
		f += m.learningRate * m.trees[i].predict(x)
	}
	return f
}

// Fit trains a model on rows x with 0/1 labels y
func Fit(x [][]float64, y []float64, opts TrainingOptions) (*GradientBoosted, error) {
	if len(x) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("classifier: %d rows but %d labels", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("classifier: row %d has %d columns, want %d", i, len(row), width)
		}
	}
	opts = opts.withDefaults()

	mean := 0.0
	for _, label := range y {
		mean += label
	}
	mean /= float64(len(y))
	mean = math.Min(math.Max(mean, 1e-6), 1-1e-6)

	m := &GradientBoosted{
		prior:        math.Log(mean / (1 - mean)),
		learningRate: opts.LearningRate,
	}

	raw := make([]float64, len(x))
	for i := range raw {
		raw[i] = m.prior
	}

	b := &builder{
		x:        x,
		grad:     make([]float64, len(x)),
		hess:     make([]float64, len(x)),
		maxDepth: opts.MaxDepth,
		minLeaf:  opts.MinLeafSamples,
	}
	all := make([]int, len(x))
	for i := range all {
		all[i] = i
	}

	for round := 0; round < opts.Rounds; round++ {
		for i := range x {
			p := sigmoid(raw[i])
			b.grad[i] = y[i] - p
			b.hess[i] = p * (1 - p)
		}

		t := b.build(all)
		if len(t.nodes) == 1 && t.nodes[0].value == 0 {
			break
		}
		m.trees = append(m.trees, t)

		for i := range x {
			raw[i] += m.learningRate * t.predict(x[i])
		}
	}

	return m, nil
}

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	leaf      bool
	value     float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type builder struct {
	x        [][]float64
	grad     []float64
	hess     []float64
	maxDepth int
	minLeaf  int
}

func (b *builder) build(rows []int) tree {
	t := tree{}
	b.grow(&t, rows, 0)
	return t
}

// grow appends the subtree for rows and returns its node index
func (b *builder) grow(t *tree, rows []int, depth int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{leaf: true, value: b.leafValue(rows)})

	if depth >= b.maxDepth || len(rows) < 2*b.minLeaf {
		return idx
	}

	feature, threshold, ok := b.bestSplit(rows)
	if !ok {
		return idx
	}

	var left, right []int
	for _, r := range rows {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := b.grow(t, left, depth+1)
	r := b.grow(t, right, depth+1)
	t.nodes[idx] = node{feature: feature, threshold: threshold, left: l, right: r}
	return idx
}

// leafValue is the Newton step for log-loss over rows
func (b *builder) leafValue(rows []int) float64 {
	var g, h float64
	for _, r := range rows {
		g += b.grad[r]
		h += b.hess[r]
	}
	if h < 1e-12 {
		return 0
	}
	return g / h
}

// bestSplit finds the split maximizing the reduction in squared error of the
// gradient, the criterion used for least-squares regression trees
func (b *builder) bestSplit(rows []int) (int, float64, bool) {
	var total float64
	for _, r := range rows {
		total += b.grad[r]
	}
	n := float64(len(rows))
	baseline := total * total / n

	bestGain := 1e-12
	bestFeature, bestThreshold, found := 0, 0.0, false
	sorted := make([]int, len(rows))

	for f := 0; f < len(b.x[rows[0]]); f++ {
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		var leftSum float64
		for i := 0; i < len(sorted)-1; i++ {
			leftSum += b.grad[sorted[i]]

			cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}
			nl := i + 1
			nr := len(sorted) - nl
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}

			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - baseline
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
