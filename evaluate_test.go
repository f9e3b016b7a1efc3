package fareml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMSE(t *testing.T) {
	tests := []struct {
		name        string
		predictions []float64
		truths      []float64
		check       func(rmse float64, err error)
	}{
		{
			name:        "3-4-5",
			predictions: []float64{3, 4},
			truths:      []float64{0, 0},
			check: func(rmse float64, err error) {
				assert.NoError(t, err)
				assert.InDelta(t, math.Sqrt(12.5), rmse, 1e-12)
				assert.InDelta(t, 3.5355, rmse, 1e-4)
			},
		},
		{
			name:        "equal sequences",
			predictions: []float64{4.5, 16.9, 5.7},
			truths:      []float64{4.5, 16.9, 5.7},
			check: func(rmse float64, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 0.0, rmse)
			},
		},
		{
			name:        "sign does not matter",
			predictions: []float64{1, 1},
			truths:      []float64{3, -1},
			check: func(rmse float64, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 2.0, rmse)
			},
		},
		{
			name:        "more predictions than truths - error",
			predictions: []float64{1, 2, 3},
			truths:      []float64{1, 2},
			check: func(rmse float64, err error) {
				assert.ErrorIs(t, err, ErrShapeMismatch)
			},
		},
		{
			name:        "fewer predictions than truths - error",
			predictions: []float64{1},
			truths:      []float64{1, 2},
			check: func(rmse float64, err error) {
				assert.ErrorIs(t, err, ErrShapeMismatch)
			},
		},
		{
			name:        "empty - error",
			predictions: nil,
			truths:      []float64{},
			check: func(rmse float64, err error) {
				assert.ErrorIs(t, err, ErrEmptyEvaluation)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.check(RMSE(test.predictions, test.truths))
		})
	}
}
