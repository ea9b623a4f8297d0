package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Forest is an isolation-forest anomaly detector: random split trees grown
// to a height limit, scored by average path length. Scores are in [0,1] with
// higher meaning more anomalous.
type Forest struct {
	Trees       []*forestNode `json:"trees"`
	SampleSize  int           `json:"sampleSize"`
	HeightLimit int           `json:"heightLimit"`
}

type forestNode struct {
	Leaf  bool        `json:"leaf,omitempty"`
	Size  int         `json:"size,omitempty"`
	Dim   int         `json:"dim,omitempty"`
	Split float64     `json:"split,omitempty"`
	Left  *forestNode `json:"left,omitempty"`
	Right *forestNode `json:"right,omitempty"`
}

// ForestOptions control forest fitting.
type ForestOptions struct {
	NumTrees   int
	SampleSize int
	Seed       int64
}

// DefaultForestOptions mirrors the trainer's standard settings: 100 trees,
// 256-point subsamples, fixed seed for reproducible artifacts.
func DefaultForestOptions() ForestOptions {
	return ForestOptions{NumTrees: 100, SampleSize: 256, Seed: 42}
}

// FitForest grows an isolation forest over X. The seed makes repeated
// training runs on the same data produce identical artifacts.
func FitForest(X [][]float64, opts ForestOptions) (*Forest, error) {
	if len(X) == 0 {
		return nil, errors.New("fit forest: empty dataset")
	}
	if opts.NumTrees <= 0 {
		opts.NumTrees = 100
	}
	if opts.SampleSize <= 0 || opts.SampleSize > len(X) {
		opts.SampleSize = min(256, len(X))
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	f := &Forest{
		Trees:       make([]*forestNode, opts.NumTrees),
		SampleSize:  opts.SampleSize,
		HeightLimit: int(math.Ceil(math.Log2(float64(opts.SampleSize)))) + 1,
	}

	for i := range f.Trees {
		sample := make([][]float64, opts.SampleSize)
		for j, idx := range rng.Perm(len(X))[:opts.SampleSize] {
			sample[j] = X[idx]
		}
		f.Trees[i] = growTree(sample, 0, f.HeightLimit, rng)
	}
	return f, nil
}

func growTree(X [][]float64, height, limit int, rng *rand.Rand) *forestNode {
	if len(X) <= 1 || height >= limit {
		return &forestNode{Leaf: true, Size: len(X)}
	}

	dim := rng.Intn(len(X[0]))
	lo, hi := X[0][dim], X[0][dim]
	for _, row := range X[1:] {
		if row[dim] < lo {
			lo = row[dim]
		}
		if row[dim] > hi {
			hi = row[dim]
		}
	}
	if lo == hi {
		return &forestNode{Leaf: true, Size: len(X)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, row := range X {
		if row[dim] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &forestNode{Leaf: true, Size: len(X)}
	}
	return &forestNode{
		Dim:   dim,
		Split: split,
		Left:  growTree(left, height+1, limit, rng),
		Right: growTree(right, height+1, limit, rng),
	}
}

// Score returns the anomaly score for x, in [0,1], higher = more anomalous.
// An unfitted forest errors so the scorer can substitute its default.
func (f *Forest) Score(x []float64) (float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return 0, errors.New("anomaly detector not trained")
	}

	sum := 0.0
	for _, root := range f.Trees {
		depth, err := pathLength(root, x, 0)
		if err != nil {
			return 0, err
		}
		sum += depth
	}
	avg := sum / float64(len(f.Trees))

	c := avgPathLength(f.SampleSize)
	if c <= 0 {
		c = 1
	}
	return math.Pow(2, -avg/c), nil
}

func pathLength(node *forestNode, x []float64, depth int) (float64, error) {
	if node == nil {
		return 0, errors.New("malformed forest tree")
	}
	if node.Leaf {
		if node.Size <= 1 {
			return float64(depth), nil
		}
		return float64(depth) + avgPathLength(node.Size), nil
	}
	if node.Dim >= len(x) {
		return 0, fmt.Errorf("forest expects feature %d, vector has %d", node.Dim, len(x))
	}
	if x[node.Dim] < node.Split {
		return pathLength(node.Left, x, depth+1)
	}
	return pathLength(node.Right, x, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search, used to normalize tree depths.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	const eulerMascheroni = 0.5772156649
	return 2*(math.Log(float64(n-1))+eulerMascheroni) - 2*float64(n-1)/float64(n)
}
