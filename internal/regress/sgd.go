// Package regress holds a baseline Trainer: a linear model fitted with mini-batch
// gradient descent on the squared error.
package regress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/cubny/fareml"
	"github.com/cubny/fareml/internal/pipeline"
)

// hyperparameter keys and their defaults
const (
	KeyLearningRate = "learning_rate"
	KeyEpochs       = "epochs"
	KeyBatchSize    = "batch_size"
	KeyL2           = "l2"
	KeySeed         = "seed"

	defaultLearningRate = 0.01
	defaultEpochs       = 50
	defaultBatchSize    = 32
)

var (
	// ErrNoExamples is returned when Fit is given nothing to learn from
	ErrNoExamples = errors.New("regress: no training examples")
	// ErrDiverged is returned when the weights stop being finite numbers
	ErrDiverged = errors.New("regress: training diverged, lower the learning rate")
)

// SGD is a fareml.Trainer producing Linear models
type SGD struct{}

// NewSGD creates an SGD trainer
func NewSGD() *SGD {
	return &SGD{}
}

// Fit trains a Linear model on training.
// Recognised hyperparameters: learning_rate, epochs, batch_size, l2 and seed; others are ignored.
func (s *SGD) Fit(ctx context.Context, training []fareml.LabeledExample, params fareml.Hyperparameters) (fareml.Model, error) {
	if len(training) == 0 {
		return nil, ErrNoExamples
	}
	width := len(training[0].Features)
	for _, ex := range training {
		if len(ex.Features) != width {
			return nil, fmt.Errorf("regress: example %s has %d features, want %d", ex.Key, len(ex.Features), width)
		}
	}

	lr := params.Float(KeyLearningRate, defaultLearningRate)
	epochs := params.Int(KeyEpochs, defaultEpochs)
	batchSize := params.Int(KeyBatchSize, defaultBatchSize)
	l2 := params.Float(KeyL2, 0)
	switch {
	case lr <= 0:
		return nil, errors.New("regress: learning_rate should be greater than 0")
	case epochs <= 0:
		return nil, errors.New("regress: epochs should be greater than 0")
	case batchSize <= 0:
		return nil, errors.New("regress: batch_size should be greater than 0")
	case l2 < 0:
		return nil, errors.New("regress: l2 should not be negative")
	}

	seed := uint64(params.Int(KeySeed, 1))
	rng := rand.New(rand.NewPCG(seed, seed))

	m := &Linear{W: make([]float64, width)}
	order := make([]int, len(training))
	for i := range order {
		order[i] = i
	}
	gW := make([]float64, width)

	for ep := 0; ep < epochs; ep++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += batchSize {
			end := min(start+batchSize, len(order))
			clear(gW)
			gb := 0.0
			for _, i := range order[start:end] {
				ex := training[i]
				d := m.predict(ex.Features) - ex.Label
				for j, x := range ex.Features {
					gW[j] += d * x
				}
				gb += d
			}
			scale := 2 / float64(end-start)
			for j := range m.W {
				m.W[j] -= lr * (scale*gW[j] + 2*l2*m.W[j])
			}
			m.B -= lr * scale * gb
		}
	}

	if !m.finite() {
		return nil, ErrDiverged
	}
	return m, nil
}

// Linear predicts W·x + B
type Linear struct {
	W []float64
	B float64
}

// Predict returns the prediction of every row of features, in order
func (m *Linear) Predict(ctx context.Context, features [][]float64) ([]float64, error) {
	return pipeline.Map(ctx, runtime.GOMAXPROCS(0), features, func(x []float64) (float64, error) {
		if len(x) != len(m.W) {
			return 0, fmt.Errorf("regress: row has %d features, model has %d", len(x), len(m.W))
		}
		return m.predict(x), nil
	})
}

func (m *Linear) predict(x []float64) float64 {
	sum := m.B
	for j, v := range x {
		sum += m.W[j] * v
	}
	return sum
}

func (m *Linear) finite() bool {
	if math.IsNaN(m.B) || math.IsInf(m.B, 0) {
		return false
	}
	for _, w := range m.W {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return false
		}
	}
	return true
}
