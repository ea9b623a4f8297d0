package model

import "math"

// Scaler holds per-column standardization parameters (zero mean, unit
// variance), fitted on the training partition.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes column means and standard deviations over X.
// Columns with zero variance get std 1 so transforming them is a no-op
// shift instead of a division by zero.
func FitScaler(X [][]float64) *Scaler {
	if len(X) == 0 {
		return nil
	}
	dim := len(X[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)

	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range X {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}

	return &Scaler{Mean: mean, Std: std}
}

// Transform returns a standardized copy of x. If the dimensions do not
// match, x is returned unscaled; the caller validated dimensions at load
// time, so this only guards against programming errors.
func (s *Scaler) Transform(x []float64) []float64 {
	if s == nil || len(x) != len(s.Mean) {
		return x
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll standardizes every row of X.
func (s *Scaler) TransformAll(X [][]float64) [][]float64 {
	if s == nil {
		return X
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}
