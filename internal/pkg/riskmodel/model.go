// Package riskmodel provides the pluggable dropout-risk scoring model. The
// model behind the interface is swappable and reloadable independently of its
// callers; a missing or broken trained model degrades to a constant-low
// fallback instead of failing.
package riskmodel

import (
	"fmt"
	"math"
)

// FeatureCount is the width of the feature matrix:
// avg_grade, submission_rate, attendance_rate.
const FeatureCount = 3

// Model scores a feature matrix into per-row risk probabilities in [0, 1].
type Model interface {
	Predict(features [][]float64) ([]float64, error)
}

// Fallback is the model used when no trained model is available. It returns
// a constant low score for every row and never errors.
type Fallback struct {
	Score float64
}

// NewFallback creates a fallback model with the given constant score,
// defaulting to 0.1.
func NewFallback(score float64) Fallback {
	if score <= 0 || score > 1 {
		score = 0.1
	}
	return Fallback{Score: score}
}

// Predict implements Model.
func (f Fallback) Predict(features [][]float64) ([]float64, error) {
	scores := make([]float64, len(features))
	for i := range scores {
		scores[i] = f.Score
	}
	return scores, nil
}

// Logistic is a trained logistic-regression model over the three features.
// Its parameters are produced by an external training job and loaded from a
// model file; training itself is outside this package.
type Logistic struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Predict implements Model.
func (m Logistic) Predict(features [][]float64) ([]float64, error) {
	if len(m.Weights) != FeatureCount {
		return nil, fmt.Errorf("model expects %d weights, has %d", FeatureCount, len(m.Weights))
	}

	scores := make([]float64, len(features))
	for i, row := range features {
		if len(row) != FeatureCount {
			return nil, fmt.Errorf("feature row %d has %d values, want %d", i, len(row), FeatureCount)
		}
		z := m.Bias
		for j, w := range m.Weights {
			z += w * row[j]
		}
		scores[i] = sigmoid(z)
	}
	return scores, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
