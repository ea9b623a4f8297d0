package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotTrained is returned when an untrained classifier is asked for a
// probability. The scorer substitutes the neutral 0.5 default.
var ErrNotTrained = errors.New("classifier not trained")

// Logistic is a binary logistic-regression classifier. The zero value is a
// valid untrained classifier.
type Logistic struct {
	Weights []float64 `json:"weights,omitempty"`
	Bias    float64   `json:"bias,omitempty"`
}

// Trained reports whether the classifier has fitted weights.
func (l *Logistic) Trained() bool { return len(l.Weights) > 0 }

// Proba returns the fraud probability for x.
func (l *Logistic) Proba(x []float64) (float64, error) {
	if !l.Trained() {
		return 0, ErrNotTrained
	}
	if len(x) != len(l.Weights) {
		return 0, fmt.Errorf("classifier expects %d features, got %d", len(l.Weights), len(x))
	}
	z := l.Bias
	for j, w := range l.Weights {
		z += w * x[j]
	}
	return sigmoid(z), nil
}

// LogisticOptions control gradient-descent fitting.
type LogisticOptions struct {
	LearningRate float64
	Epochs       int
	// Balanced reweights classes by n/(2*n_c) to compensate for fraud-label
	// imbalance, matching the "balanced" class-weight convention.
	Balanced bool
}

// DefaultLogisticOptions returns the trainer's standard settings.
func DefaultLogisticOptions() LogisticOptions {
	return LogisticOptions{LearningRate: 0.1, Epochs: 1000, Balanced: true}
}

// FitLogistic fits a logistic regression on X/y (labels 0 or 1) with full
// batch gradient descent. Zero-initialized weights make the fit
// deterministic for a fixed dataset.
func FitLogistic(X [][]float64, y []int, opts LogisticOptions) (*Logistic, error) {
	if len(X) == 0 {
		return nil, errors.New("fit logistic: empty dataset")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("fit logistic: %d rows but %d labels", len(X), len(y))
	}
	if opts.Epochs <= 0 {
		opts.Epochs = 1000
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.1
	}

	dim := len(X[0])
	n := len(X)

	// Per-class sample weights.
	wPos, wNeg := 1.0, 1.0
	if opts.Balanced {
		var nPos int
		for _, label := range y {
			if label == 1 {
				nPos++
			}
		}
		nNeg := n - nPos
		if nPos == 0 || nNeg == 0 {
			return nil, errors.New("fit logistic: single-class labels")
		}
		wPos = float64(n) / (2 * float64(nPos))
		wNeg = float64(n) / (2 * float64(nNeg))
	}

	weights := make([]float64, dim)
	bias := 0.0
	grad := make([]float64, dim)

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0

		for i, row := range X {
			z := bias
			for j, w := range weights {
				z += w * row[j]
			}
			sw := wNeg
			if y[i] == 1 {
				sw = wPos
			}
			resid := sw * (sigmoid(z) - float64(y[i]))
			for j, v := range row {
				grad[j] += resid * v
			}
			gradBias += resid
		}

		step := opts.LearningRate / float64(n)
		for j := range weights {
			weights[j] -= step * grad[j]
		}
		bias -= step * gradBias
	}

	return &Logistic{Weights: weights, Bias: bias}, nil
}

// sigmoid is the logistic squashing function 1/(1+e^-z).
func sigmoid(z float64) float64 {
	// Guard against overflow in math.Exp for extreme inputs.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
