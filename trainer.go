package fareml

import "context"

// Hyperparameters are the trainer settings, passed through without interpretation
type Hyperparameters map[string]float64

// Float returns the value of key or fallback when it is not set
func (h Hyperparameters) Float(key string, fallback float64) float64 {
	if v, ok := h[key]; ok {
		return v
	}
	return fallback
}

// Int returns the value of key truncated to an int, or fallback when it is not set
func (h Hyperparameters) Int(key string, fallback int) int {
	if v, ok := h[key]; ok {
		return int(v)
	}
	return fallback
}

// Model predicts fares from feature vectors
type Model interface {
	// Predict returns one prediction per row of features, in the same order
	Predict(ctx context.Context, features [][]float64) ([]float64, error)
}

// Trainer fits a regression Model on labeled examples
type Trainer interface {
	Fit(ctx context.Context, training []LabeledExample, params Hyperparameters) (Model, error)
}
