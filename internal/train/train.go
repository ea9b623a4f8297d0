// Package train builds model artifacts from labeled transaction history.
//
// The trainer is a single offline batch job: featurize, split, fit scaling
// plus a class-weighted classifier plus an unsupervised anomaly detector,
// evaluate on the held-out partition, and persist a versioned artifact. It
// never touches live scoring state.
package train

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/mbd888/fraudwatch/internal/feature"
	"github.com/mbd888/fraudwatch/internal/model"
)

// Options controls the training run. The defaults reproduce a run exactly:
// the split and both fitters are seeded.
type Options struct {
	EvalFraction float64
	Seed         int64
	Logistic     model.LogisticOptions
	Forest       model.ForestOptions
}

// DefaultOptions returns the standard training configuration.
func DefaultOptions() Options {
	return Options{
		EvalFraction: 0.25,
		Seed:         42,
		Logistic:     model.DefaultLogisticOptions(),
		Forest:       model.DefaultForestOptions(),
	}
}

// ClassMetrics is the per-class slice of the classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Metrics summarizes a training run. AUC is NaN when the evaluation
// partition holds a single class; report it as undefined, not as an error.
type Metrics struct {
	AUC       float64              `json:"auc"`
	Report    map[int]ClassMetrics `json:"report"`
	TrainSize int                  `json:"trainSize"`
	EvalSize  int                  `json:"evalSize"`
}

// Train fits a model artifact from labeled rows. It fails loudly on an
// empty dataset or a single-class training partition.
func Train(rows []Row, opts Options) (*model.Artifact, *Metrics, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("train: dataset is empty")
	}

	X := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i, row := range rows {
		X[i] = feature.Extract(row.Tx)
		y[i] = row.Label
	}

	trainIdx, evalIdx := stratifiedSplit(y, opts.EvalFraction, opts.Seed)

	Xtrain, ytrain := gather(X, y, trainIdx)
	Xeval, yeval := gather(X, y, evalIdx)

	scaler := model.FitScaler(Xtrain)
	XtrainScaled := scaler.TransformAll(Xtrain)

	clf, err := model.FitLogistic(XtrainScaled, ytrain, opts.Logistic)
	if err != nil {
		return nil, nil, fmt.Errorf("train: fit classifier: %w", err)
	}

	forest, err := model.FitForest(XtrainScaled, opts.Forest)
	if err != nil {
		return nil, nil, fmt.Errorf("train: fit anomaly detector: %w", err)
	}

	metrics := evaluate(clf, scaler, Xeval, yeval)
	metrics.TrainSize = len(trainIdx)
	metrics.EvalSize = len(evalIdx)

	artifact := &model.Artifact{
		Version:      model.CurrentVersion,
		FeatureOrder: feature.Columns(),
		TrainedAt:    time.Now().UTC(),
		Scaler:       scaler,
		Classifier:   *clf,
		Anomaly:      forest,
	}
	return artifact, metrics, nil
}

// stratifiedSplit partitions indices so each class contributes the same
// fraction to evaluation. Deterministic for a given seed.
func stratifiedSplit(y []int, evalFraction float64, seed int64) (trainIdx, evalIdx []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	labels := make([]int, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Ints(labels) // map order is random; the split must not be

	for _, label := range labels {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		n := int(math.Round(evalFraction * float64(len(idx))))
		if n >= len(idx) {
			n = len(idx) - 1 // keep at least one row of each class in training
		}
		evalIdx = append(evalIdx, idx[:n]...)
		trainIdx = append(trainIdx, idx[n:]...)
	}

	sort.Ints(trainIdx)
	sort.Ints(evalIdx)
	return trainIdx, evalIdx
}

func gather(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	Xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		Xs[i] = X[j]
		ys[i] = y[j]
	}
	return Xs, ys
}

// evaluate scores the held-out partition: ROC AUC for discrimination plus a
// per-class report at the 0.5 cutoff.
func evaluate(clf *model.Logistic, scaler *model.Scaler, X [][]float64, y []int) *Metrics {
	scores := make([]float64, len(X))
	for i, x := range X {
		p, err := clf.Proba(scaler.Transform(x))
		if err != nil {
			p = 0.5
		}
		scores[i] = p
	}

	report := map[int]ClassMetrics{}
	for _, class := range []int{0, 1} {
		var tp, fp, fn, support int
		for i, s := range scores {
			predicted := 0
			if s >= 0.5 {
				predicted = 1
			}
			if y[i] == class {
				support++
			}
			switch {
			case predicted == class && y[i] == class:
				tp++
			case predicted == class && y[i] != class:
				fp++
			case predicted != class && y[i] == class:
				fn++
			}
		}
		report[class] = ClassMetrics{
			Precision: safeRatio(tp, tp+fp),
			Recall:    safeRatio(tp, tp+fn),
			F1:        f1(safeRatio(tp, tp+fp), safeRatio(tp, tp+fn)),
			Support:   support,
		}
	}

	return &Metrics{
		AUC:    rocAUC(scores, y),
		Report: report,
	}
}

// rocAUC computes area under the ROC curve via the rank statistic, with
// average ranks over score ties. Returns NaN when y holds a single class.
func rocAUC(scores []float64, y []int) float64 {
	type pair struct {
		score float64
		label int
	}
	pairs := make([]pair, len(scores))
	for i := range scores {
		pairs[i] = pair{scores[i], y[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	var nPos, nNeg int
	for _, p := range pairs {
		if p.label == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}

	// Sum of positive ranks, averaging ranks across tied scores.
	var rankSum float64
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			if pairs[k].label == 1 {
				rankSum += avgRank
			}
		}
		i = j
	}

	return (rankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
}

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
