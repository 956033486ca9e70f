package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changex/eduspace/internal/pkg/riskmodel"
)

type fakeFeatureStore struct {
	features []StudentFeatures
}

func (s *fakeFeatureStore) StudentFeatures(context.Context, int64) ([]StudentFeatures, error) {
	return s.features, nil
}

type staticModelProvider struct {
	model riskmodel.Model
}

func (p *staticModelProvider) Current() riskmodel.Model {
	return p.model
}

type failingModel struct{}

func (failingModel) Predict([][]float64) ([]float64, error) {
	return nil, errors.New("model not trained")
}

func TestAtRiskStudentsFallbackScore(t *testing.T) {
	store := &fakeFeatureStore{
		features: []StudentFeatures{
			{StudentID: 1, AvgGrade: 95, SubmissionRate: 1.0, AttendanceRate: 1.0},
		},
	}
	fallback := riskmodel.NewFallback(0.1)
	svc := NewRiskService(store, &staticModelProvider{model: fallback}, fallback)

	scores, err := svc.AtRiskStudents(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, int64(1), scores[0].StudentID)
	assert.LessOrEqual(t, scores[0].RiskScore, 0.1)
}

func TestScorePreservesInputOrder(t *testing.T) {
	features := []StudentFeatures{
		{StudentID: 3, AvgGrade: 40},
		{StudentID: 1, AvgGrade: 90},
		{StudentID: 2, AvgGrade: 70},
	}
	fallback := riskmodel.NewFallback(0.1)
	svc := NewRiskService(nil, &staticModelProvider{model: fallback}, fallback)

	scores := svc.Score(features)
	require.Len(t, scores, 3)
	assert.Equal(t, int64(3), scores[0].StudentID)
	assert.Equal(t, int64(1), scores[1].StudentID)
	assert.Equal(t, int64(2), scores[2].StudentID)
}

func TestScoreFallsBackOnModelError(t *testing.T) {
	features := []StudentFeatures{
		{StudentID: 1},
		{StudentID: 2},
	}
	fallback := riskmodel.NewFallback(0.25)
	svc := NewRiskService(nil, &staticModelProvider{model: failingModel{}}, fallback)

	scores := svc.Score(features)
	require.Len(t, scores, 2)
	for _, score := range scores {
		assert.InDelta(t, 0.25, score.RiskScore, 1e-9)
	}
}

func TestScoreTrainedModelRanksWorseStudentsHigher(t *testing.T) {
	// Negative grade weight: lower average grade means higher risk.
	model := riskmodel.Logistic{Weights: []float64{-0.05, -1.0, -1.0}, Bias: 2.0}
	fallback := riskmodel.NewFallback(0.1)
	svc := NewRiskService(nil, &staticModelProvider{model: model}, fallback)

	scores := svc.Score([]StudentFeatures{
		{StudentID: 1, AvgGrade: 95, SubmissionRate: 1.0, AttendanceRate: 1.0},
		{StudentID: 2, AvgGrade: 30, SubmissionRate: 0.2, AttendanceRate: 0.3},
	})
	require.Len(t, scores, 2)
	assert.Greater(t, scores[1].RiskScore, scores[0].RiskScore)
}

func TestScoreEmptyRoster(t *testing.T) {
	fallback := riskmodel.NewFallback(0.1)
	svc := NewRiskService(&fakeFeatureStore{}, &staticModelProvider{model: fallback}, fallback)

	scores, err := svc.AtRiskStudents(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, scores)
}
