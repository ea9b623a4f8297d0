package scoring

import (
	"log/slog"
	"math"

	"github.com/mbd888/fraudwatch/internal/feature"
	"github.com/mbd888/fraudwatch/internal/model"
)

// defaultProbability is substituted when the classifier cannot produce a
// probability (untrained or errored).
const defaultProbability = 0.5

// Scorer applies a model artifact to feature vectors. The artifact is
// read-only for the scorer's lifetime, so a single Scorer is safe for
// concurrent use.
type Scorer struct {
	artifact    *model.Artifact
	blendWeight float64
	logger      *slog.Logger
}

// NewScorer creates a scorer around a loaded artifact.
func NewScorer(artifact *model.Artifact, logger *slog.Logger) *Scorer {
	return &Scorer{
		artifact:    artifact,
		blendWeight: 0.5,
		logger:      logger,
	}
}

// WithBlendWeight overrides the classifier weight in the classifier/anomaly
// blend. w is clamped to [0,1]; the anomaly side gets 1-w.
func (s *Scorer) WithBlendWeight(w float64) *Scorer {
	s.blendWeight = clamp01(w)
	return s
}

// Score computes the blended risk for a feature vector, always in [0,1].
// Sub-step failures substitute that sub-score's default instead of
// propagating; scoring never fails for a well-formed vector.
func (s *Scorer) Score(vec feature.Vector) (float64, map[string]float64) {
	x := []float64(vec)
	if s.artifact.Scaler != nil {
		x = s.artifact.Scaler.Transform(x)
	}

	p := defaultProbability
	if prob, err := s.artifact.Classifier.Proba(x); err == nil {
		p = prob
	} else {
		s.logger.Debug("classifier unavailable, using default probability", "error", err)
	}

	parts := map[string]float64{"classifier": p}
	risk := p

	if s.artifact.Anomaly != nil {
		if raw, err := s.artifact.Anomaly.Score(x); err == nil {
			// The forest already reports higher = more anomalous; the
			// logistic squash keeps the blended term in (0,1).
			a := squash(raw)
			parts["anomaly"] = a
			risk = s.blendWeight*p + (1-s.blendWeight)*a
		} else {
			s.logger.Debug("anomaly detector unavailable, skipping blend", "error", err)
		}
	}

	return clamp01(risk), parts
}

// squash is the logistic function 1/(1+e^-s).
func squash(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
