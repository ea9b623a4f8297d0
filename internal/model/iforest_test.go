package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusteredData(n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	for i := range X {
		X[i] = []float64{rng.NormFloat64() * 0.5, rng.NormFloat64() * 0.5}
	}
	return X
}

func TestForestOutlierScoresHigher(t *testing.T) {
	X := clusteredData(500, 1)
	f, err := FitForest(X, DefaultForestOptions())
	require.NoError(t, err)

	inlier, err := f.Score([]float64{0, 0})
	require.NoError(t, err)
	outlier, err := f.Score([]float64{50, -50})
	require.NoError(t, err)

	assert.Greater(t, outlier, inlier, "far-away point must be more anomalous")
	assert.Greater(t, outlier, 0.6, "clear outlier should score high")
}

func TestForestScoreRange(t *testing.T) {
	X := clusteredData(200, 2)
	f, err := FitForest(X, DefaultForestOptions())
	require.NoError(t, err)

	for _, x := range [][]float64{{0, 0}, {1, 1}, {-100, 100}, {1e9, -1e9}} {
		s, err := f.Score(x)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestForestDeterministicWithSeed(t *testing.T) {
	X := clusteredData(100, 3)

	a, err := FitForest(X, ForestOptions{NumTrees: 10, SampleSize: 50, Seed: 7})
	require.NoError(t, err)
	b, err := FitForest(X, ForestOptions{NumTrees: 10, SampleSize: 50, Seed: 7})
	require.NoError(t, err)

	for _, x := range [][]float64{{0, 0}, {3, -3}} {
		sa, err := a.Score(x)
		require.NoError(t, err)
		sb, err := b.Score(x)
		require.NoError(t, err)
		assert.Equal(t, sa, sb)
	}
}

func TestForestUntrainedErrors(t *testing.T) {
	var f *Forest
	_, err := f.Score([]float64{1})
	assert.Error(t, err)

	_, err = (&Forest{}).Score([]float64{1})
	assert.Error(t, err)
}

func TestForestDimensionMismatch(t *testing.T) {
	X := clusteredData(100, 4)
	f, err := FitForest(X, ForestOptions{NumTrees: 5, SampleSize: 50, Seed: 1})
	require.NoError(t, err)

	// A shorter vector than the training dimension must error, not panic.
	_, err = f.Score([]float64{})
	assert.Error(t, err)
}

func TestFitForestEmpty(t *testing.T) {
	_, err := FitForest(nil, DefaultForestOptions())
	assert.Error(t, err)
}
