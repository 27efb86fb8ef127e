package drivers

import (
	"math"
	"math/rand"
	"sort"
)

// Training hyperparameters. Fixed so two runs over the same input produce
// identical results.
const (
	DefaultSeed       = 42
	defaultRounds     = 100
	defaultLearnRate  = 0.1
	defaultThresholds = 16
	testFraction      = 0.2
)

// GradientBoostedProvider fits a gradient-boosted ensemble of depth-1
// regression trees on standardized features and reports split-gain
// importances plus mean absolute per-feature contributions as the SHAP
// stand-in. ModelScore is R-squared on a held-out 20% split, floored at 0.
type GradientBoostedProvider struct {
	seed       int64
	rounds     int
	learnRate  float64
	thresholds int
}

// stump is one boosted depth-1 tree: a feature, a split threshold, and the
// two leaf values (already scaled by the learning rate).
type stump struct {
	feature   int
	threshold float64
	left      float64
	right     float64
	baseline  float64 // tree's mean output on the training set
}

// NewGradientBoostedProvider creates a model-based provider with a fixed seed.
func NewGradientBoostedProvider(seed int64) *GradientBoostedProvider {
	return &GradientBoostedProvider{
		seed:       seed,
		rounds:     defaultRounds,
		learnRate:  defaultLearnRate,
		thresholds: defaultThresholds,
	}
}

// Name identifies the provider in logs and method tags.
func (p *GradientBoostedProvider) Name() string {
	return "gradient_boosting"
}

// Rank trains the ensemble and scores every feature.
func (p *GradientBoostedProvider) Rank(fs *featureSet) *ImportanceResult {
	fs.standardize()

	n := len(fs.rows)
	rng := rand.New(rand.NewSource(p.seed))
	perm := rng.Perm(n)

	testSize := int(float64(n) * testFraction)
	if testSize < 1 {
		testSize = 1
	}
	trainIdx := perm[:n-testSize]
	testIdx := perm[n-testSize:]

	gain := make([]float64, len(fs.names))
	trees, bias := p.fit(fs, trainIdx, gain)

	score := p.holdoutR2(fs, trees, bias, testIdx)

	contrib := p.meanAbsContribution(fs, trees)

	importance := make(map[string]float64, len(fs.names))
	shap := make(map[string]float64, len(fs.names))
	totalGain, totalContrib := 0.0, 0.0
	for j := range fs.names {
		totalGain += gain[j]
		totalContrib += contrib[j]
	}
	for j, name := range fs.names {
		g, s := 0.0, 0.0
		if totalGain > 0 {
			g = gain[j] / totalGain
		}
		if totalContrib > 0 {
			s = contrib[j] / totalContrib
		}
		importance[name] = (g + s) / 2
		shap[name] = contrib[j]
	}

	return &ImportanceResult{
		Importance: importance,
		SHAP:       shap,
		ModelScore: score,
	}
}

// fit boosts residuals with depth-1 trees, accumulating squared-error
// reduction per feature into gain.
func (p *GradientBoostedProvider) fit(fs *featureSet, trainIdx []int, gain []float64) ([]stump, float64) {
	bias := 0.0
	for _, i := range trainIdx {
		bias += fs.target[i]
	}
	if len(trainIdx) > 0 {
		bias /= float64(len(trainIdx))
	}

	residual := make([]float64, len(trainIdx))
	for k, i := range trainIdx {
		residual[k] = fs.target[i] - bias
	}

	var trees []stump
	for round := 0; round < p.rounds; round++ {
		best, reduction, ok := p.bestStump(fs, trainIdx, residual)
		if !ok || reduction <= 0 {
			break
		}
		gain[best.feature] += reduction
		trees = append(trees, best)

		for k, i := range trainIdx {
			residual[k] -= best.predict(fs.rows[i])
		}
	}
	return trees, bias
}

// bestStump scans every feature over quantile thresholds for the split that
// removes the most residual squared error.
func (p *GradientBoostedProvider) bestStump(fs *featureSet, trainIdx []int, residual []float64) (stump, float64, bool) {
	var best stump
	bestReduction := 0.0
	found := false

	sse := 0.0
	for _, r := range residual {
		sse += r * r
	}

	for j := range fs.names {
		values := make([]float64, len(trainIdx))
		for k, i := range trainIdx {
			values[k] = fs.rows[i][j]
		}
		for _, threshold := range quantileThresholds(values, p.thresholds) {
			nL, nR := 0, 0
			sumL, sumR := 0.0, 0.0
			for k := range trainIdx {
				if values[k] <= threshold {
					nL++
					sumL += residual[k]
				} else {
					nR++
					sumR += residual[k]
				}
			}
			if nL == 0 || nR == 0 {
				continue
			}
			meanL, meanR := sumL/float64(nL), sumR/float64(nR)

			after := 0.0
			for k := range trainIdx {
				var d float64
				if values[k] <= threshold {
					d = residual[k] - meanL
				} else {
					d = residual[k] - meanR
				}
				after += d * d
			}
			reduction := sse - after
			if reduction > bestReduction {
				bestReduction = reduction
				weightedMean := (float64(nL)*meanL + float64(nR)*meanR) / float64(nL+nR)
				best = stump{
					feature:   j,
					threshold: threshold,
					left:      p.learnRate * meanL,
					right:     p.learnRate * meanR,
					baseline:  p.learnRate * weightedMean,
				}
				found = true
			}
		}
	}
	return best, bestReduction, found
}

func (t stump) predict(row []float64) float64 {
	if row[t.feature] <= t.threshold {
		return t.left
	}
	return t.right
}

// holdoutR2 scores the ensemble on the held-out rows. Negative R-squared is
// floored at 0: a model worse than the mean is reported as untrained.
func (p *GradientBoostedProvider) holdoutR2(fs *featureSet, trees []stump, bias float64, testIdx []int) float64 {
	if len(testIdx) == 0 || len(trees) == 0 {
		return 0
	}

	mean := 0.0
	for _, i := range testIdx {
		mean += fs.target[i]
	}
	mean /= float64(len(testIdx))

	ssRes, ssTot := 0.0, 0.0
	for _, i := range testIdx {
		pred := bias
		for _, t := range trees {
			pred += t.predict(fs.rows[i])
		}
		d := fs.target[i] - pred
		ssRes += d * d
		dm := fs.target[i] - mean
		ssTot += dm * dm
	}
	if ssTot == 0 {
		return 0
	}
	r2 := 1 - ssRes/ssTot
	if r2 < 0 || math.IsNaN(r2) {
		return 0
	}
	return r2
}

// meanAbsContribution attributes each tree's output to its split feature,
// relative to the tree's own baseline, and averages absolute contributions
// over every sample. This is the cheap stand-in for SHAP values: exact for
// depth-1 trees, which attribute to a single feature by construction.
func (p *GradientBoostedProvider) meanAbsContribution(fs *featureSet, trees []stump) []float64 {
	contrib := make([]float64, len(fs.names))
	if len(fs.rows) == 0 {
		return contrib
	}
	for _, row := range fs.rows {
		for _, t := range trees {
			contrib[t.feature] += math.Abs(t.predict(row) - t.baseline)
		}
	}
	for j := range contrib {
		contrib[j] /= float64(len(fs.rows))
	}
	return contrib
}

// quantileThresholds picks up to k distinct split candidates from the
// feature's empirical quantiles.
func quantileThresholds(values []float64, k int) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var out []float64
	seen := make(map[float64]bool)
	for q := 1; q <= k; q++ {
		pos := q * (len(sorted) - 1) / (k + 1)
		t := sorted[pos]
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
