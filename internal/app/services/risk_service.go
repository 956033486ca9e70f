package services

import (
	"context"
	"fmt"

	"github.com/changex/eduspace/internal/pkg/apperrors"
	"github.com/changex/eduspace/internal/pkg/logger"
	"github.com/changex/eduspace/internal/pkg/riskmodel"
)

// StudentFeatures is one student's feature vector for risk scoring.
// AvgGrade is in [0, 100]; the two rates are in [0, 1]. All three are zero
// when the underlying denominator is empty.
type StudentFeatures struct {
	StudentID      int64   `json:"studentId"`
	AvgGrade       float64 `json:"avgGrade"`
	SubmissionRate float64 `json:"submissionRate"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// RiskScore pairs a student with their predicted dropout-risk probability.
type RiskScore struct {
	StudentID int64   `json:"studentId"`
	RiskScore float64 `json:"riskScore"`
}

// RiskFeatureStore extracts per-student feature vectors for an offering.
type RiskFeatureStore interface {
	// StudentFeatures returns one row per enrolled student, in a stable order.
	StudentFeatures(ctx context.Context, offeringID int64) ([]StudentFeatures, error)
}

// ModelProvider supplies the currently active scoring model. Model load and
// reload are the provider owner's lifecycle, not the scorer's.
type ModelProvider interface {
	Current() riskmodel.Model
}

// RiskService maps student feature vectors to dropout-risk probabilities via
// the pluggable model. Output preserves input order.
type RiskService struct {
	features RiskFeatureStore
	models   ModelProvider
	fallback riskmodel.Fallback
}

// NewRiskService creates a new risk service instance
func NewRiskService(features RiskFeatureStore, models ModelProvider, fallback riskmodel.Fallback) *RiskService {
	return &RiskService{
		features: features,
		models:   models,
		fallback: fallback,
	}
}

// AtRiskStudents scores every enrolled student of an offering. A model
// failure degrades to the fallback's constant score: absence of a trained
// model is not an error condition for this endpoint.
func (s *RiskService) AtRiskStudents(ctx context.Context, offeringID int64) ([]RiskScore, error) {
	if offeringID <= 0 {
		return nil, apperrors.ErrValidationFailed
	}

	features, err := s.features.StudentFeatures(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("error extracting student features: %w", err)
	}

	return s.Score(features), nil
}

// Score runs the feature vectors through the active model, preserving input
// order in the result.
func (s *RiskService) Score(features []StudentFeatures) []RiskScore {
	if len(features) == 0 {
		return []RiskScore{}
	}

	matrix := make([][]float64, len(features))
	for i, f := range features {
		matrix[i] = []float64{f.AvgGrade, f.SubmissionRate, f.AttendanceRate}
	}

	probabilities, err := s.models.Current().Predict(matrix)
	if err != nil || len(probabilities) != len(features) {
		logger.Warn().Err(err).Msg("Risk model prediction failed, using fallback")
		probabilities, _ = s.fallback.Predict(matrix)
	}

	scores := make([]RiskScore, len(features))
	for i, f := range features {
		scores[i] = RiskScore{
			StudentID: f.StudentID,
			RiskScore: probabilities[i],
		}
	}
	return scores
}
