package fareml

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func examples(n int) []LabeledExample {
	out := make([]LabeledExample, n)
	for i := range out {
		out[i] = LabeledExample{Key: fmt.Sprintf("trip-%d", i), Label: float64(i), Features: []float64{float64(i)}}
	}
	return out
}

func TestSplit(t *testing.T) {
	all := examples(10000)

	training, evaluation, err := Split(all, 0.8, 42)
	require.NoError(t, err)

	assert.Equal(t, len(all), len(training)+len(evaluation))
	assert.InDelta(t, 0.8, float64(len(training))/float64(len(all)), 0.02)

	// both subsets keep the input order and nothing is duplicated
	seen := map[string]bool{}
	for _, subset := range [][]LabeledExample{training, evaluation} {
		for i := 1; i < len(subset); i++ {
			assert.Less(t, subset[i-1].Label, subset[i].Label)
		}
		for _, ex := range subset {
			assert.False(t, seen[ex.Key], ex.Key)
			seen[ex.Key] = true
		}
	}
	assert.Len(t, seen, len(all))
}

func TestSplit_Reproducible(t *testing.T) {
	all := examples(500)

	training1, evaluation1, err := Split(all, 0.7, 7)
	require.NoError(t, err)
	training2, evaluation2, err := Split(all, 0.7, 7)
	require.NoError(t, err)
	assert.Equal(t, training1, training2)
	assert.Equal(t, evaluation1, evaluation2)

	training3, _, err := Split(all, 0.7, 8)
	require.NoError(t, err)
	assert.NotEqual(t, training1, training3)
}

func TestSplit_Fraction(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		hasError bool
	}{
		{name: "default", fraction: DefaultTrainFraction},
		{name: "tiny", fraction: 0.01},
		{name: "zero - error", fraction: 0, hasError: true},
		{name: "one - error", fraction: 1, hasError: true},
		{name: "negative - error", fraction: -0.5, hasError: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := Split(examples(10), test.fraction, 1)
			assert.Equal(t, test.hasError, err != nil)
		})
	}
}

func TestDraw(t *testing.T) {
	for i := 0; i < 1000; i++ {
		u := draw(3, i, "k")
		assert.GreaterOrEqual(t, u, 0.0)
		assert.Less(t, u, 1.0)
	}
	assert.Equal(t, draw(3, 1, "k"), draw(3, 1, "k"))
	assert.NotEqual(t, draw(3, 1, "k"), draw(3, 2, "k"))
}
