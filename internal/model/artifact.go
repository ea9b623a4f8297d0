// Package model defines the versioned fraud model artifact and its parts:
// feature scaling, a logistic-regression classifier, and an isolation-forest
// anomaly detector.
//
// Artifacts are produced by the offline trainer, persisted as JSON, and
// loaded read-only by the scorer. An artifact is immutable after load and is
// safe to share across goroutines without locking. Retraining writes a new
// artifact; nothing edits one in place.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mbd888/fraudwatch/internal/feature"
)

// CurrentVersion is the artifact schema version this build reads and writes.
const CurrentVersion = 1

// ErrInvalidArtifact marks an artifact that failed validation on load.
var ErrInvalidArtifact = errors.New("invalid model artifact")

// Artifact bundles everything the scorer needs. FeatureOrder records the
// column order the model was trained against so compatibility with the
// current extractor is checked, not assumed.
type Artifact struct {
	Version      int       `json:"version"`
	FeatureOrder []string  `json:"featureOrder"`
	TrainedAt    time.Time `json:"trainedAt,omitzero"`
	Scaler       *Scaler   `json:"scaler,omitempty"`
	Classifier   Logistic  `json:"classifier"`
	Anomaly      *Forest   `json:"anomaly,omitempty"`
}

// Default returns the neutral fallback artifact: no scaling, an untrained
// classifier (constant 0.5 probability), no anomaly detector. It keeps the
// scoring pipeline serving when no trained model is available.
func Default() *Artifact {
	return &Artifact{
		Version:      CurrentVersion,
		FeatureOrder: feature.Columns(),
	}
}

// Validate checks schema version, feature-order compatibility with the
// current extractor, and internal dimension consistency.
func (a *Artifact) Validate() error {
	if a.Version != CurrentVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrInvalidArtifact, a.Version, CurrentVersion)
	}
	if !slices.Equal(a.FeatureOrder, feature.Columns()) {
		return fmt.Errorf("%w: feature order %v does not match extractor output %v",
			ErrInvalidArtifact, a.FeatureOrder, feature.Columns())
	}
	dim := len(a.FeatureOrder)
	if a.Scaler != nil && (len(a.Scaler.Mean) != dim || len(a.Scaler.Std) != dim) {
		return fmt.Errorf("%w: scaler dimension mismatch", ErrInvalidArtifact)
	}
	if a.Classifier.Trained() && len(a.Classifier.Weights) != dim {
		return fmt.Errorf("%w: classifier has %d weights for %d features",
			ErrInvalidArtifact, len(a.Classifier.Weights), dim)
	}
	return nil
}

// Save writes the artifact atomically (temp file + rename) so a crashed
// trainer never leaves a half-written model for the scorer to load.
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Load reads and validates an artifact from disk.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// LoadOrDefault loads an artifact, falling back to Default on any failure.
// Absence or corruption of the model is a degraded mode, not a fatal error.
func LoadOrDefault(path string, logger *slog.Logger) *Artifact {
	a, err := Load(path)
	if err != nil {
		logger.Warn("no usable trained model, serving with neutral defaults",
			"path", path, "error", err)
		return Default()
	}
	logger.Info("model artifact loaded",
		"path", path,
		"trained_at", a.TrainedAt,
		"scaled", a.Scaler != nil,
		"anomaly", a.Anomaly != nil,
	)
	return a
}
