package riskmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStartsOnFallback(t *testing.T) {
	registry := NewRegistry(filepath.Join(t.TempDir(), "missing.json"), NewFallback(0.1))

	scores, err := registry.Current().Predict([][]float64{{95, 1, 1}})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 0.1, scores[0], 1e-9)
}

func TestRegistryLoadMissingFileKeepsFallback(t *testing.T) {
	registry := NewRegistry(filepath.Join(t.TempDir(), "missing.json"), NewFallback(0.1))

	require.NoError(t, registry.Load())

	scores, err := registry.Current().Predict([][]float64{{0, 0, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, scores[0], 1e-9)
}

func TestRegistryLoadsTrainedModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"weights":[-0.05,-1.0,-1.0],"bias":2.0}`), 0o644))

	registry := NewRegistry(path, NewFallback(0.1))
	require.NoError(t, registry.Load())

	model, ok := registry.Current().(Logistic)
	require.True(t, ok)
	assert.InDelta(t, 2.0, model.Bias, 1e-9)
}

func TestRegistryLoadRejectsBadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"weights":[1.0],"bias":0}`), 0o644))
	registry := NewRegistry(path, NewFallback(0.1))
	require.Error(t, registry.Load())

	// The fallback stays active after a failed load.
	_, isFallback := registry.Current().(Fallback)
	assert.True(t, isFallback)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	require.Error(t, registry.Load())
}

func TestRegistryReloadSwapsModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"weights":[0,0,0],"bias":0}`), 0o644))

	registry := NewRegistry(path, NewFallback(0.1))
	require.NoError(t, registry.Load())

	require.NoError(t, os.WriteFile(path, []byte(`{"weights":[0,0,0],"bias":5}`), 0o644))
	require.NoError(t, registry.Reload())

	model, ok := registry.Current().(Logistic)
	require.True(t, ok)
	assert.InDelta(t, 5.0, model.Bias, 1e-9)
}

func TestLogisticPredictValidatesDimensions(t *testing.T) {
	model := Logistic{Weights: []float64{1, 1, 1}}

	_, err := model.Predict([][]float64{{1, 2}})
	assert.Error(t, err)

	short := Logistic{Weights: []float64{1}}
	_, err = short.Predict([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestNewFallbackClampsScore(t *testing.T) {
	assert.InDelta(t, 0.1, NewFallback(0).Score, 1e-9)
	assert.InDelta(t, 0.1, NewFallback(-1).Score, 1e-9)
	assert.InDelta(t, 0.1, NewFallback(1.5).Score, 1e-9)
	assert.InDelta(t, 0.3, NewFallback(0.3).Score, 1e-9)
}
