package riskmodel

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/changex/eduspace/internal/pkg/logger"
)

// Registry holds the currently loaded model. Load and Reload are driven by
// the owner's lifecycle (startup, post-training webhook); callers always get
// a usable model, falling back when nothing trained is loaded.
type Registry struct {
	current  atomic.Value // Model
	path     string
	fallback Fallback
}

// NewRegistry creates a registry reading model files from path. The registry
// starts on the fallback until Load succeeds.
func NewRegistry(path string, fallback Fallback) *Registry {
	r := &Registry{
		path:     path,
		fallback: fallback,
	}
	r.current.Store(Model(fallback))
	return r
}

// Current returns the active model. Never nil.
func (r *Registry) Current() Model {
	if m, ok := r.current.Load().(Model); ok {
		return m
	}
	return r.fallback
}

// Load reads the model file and swaps it in. A missing file is not an error
// condition: the registry keeps serving the fallback.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", r.path).Msg("Model file not found, using fallback model")
			r.current.Store(Model(r.fallback))
			return nil
		}
		return fmt.Errorf("failed to read model file: %w", err)
	}

	var model Logistic
	if err := json.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("failed to parse model file: %w", err)
	}
	if len(model.Weights) != FeatureCount {
		return fmt.Errorf("model file has %d weights, want %d", len(model.Weights), FeatureCount)
	}

	r.current.Store(Model(model))
	logger.Info().Str("path", r.path).Msg("Risk model loaded")
	return nil
}

// Reload re-reads the model file, typically after an external retraining job
// replaced it. On error the previously loaded model stays active.
func (r *Registry) Reload() error {
	return r.Load()
}
