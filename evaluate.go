package fareml

import (
	"fmt"
	"math"
)

// RMSE returns the root mean squared error of predictions against truths.
// The two sequences are paired by position and must have the same length.
func RMSE(predictions, truths []float64) (float64, error) {
	if len(predictions) != len(truths) {
		return 0, fmt.Errorf("%w: %d predictions for %d truths", ErrShapeMismatch, len(predictions), len(truths))
	}
	if len(truths) == 0 {
		return 0, ErrEmptyEvaluation
	}

	sum := 0.0
	for i, p := range predictions {
		d := p - truths[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(truths))), nil
}
