package haversine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		lonlats  []float64
		distance float64
	}{
		{
			name:     "same point",
			lonlats:  []float64{-73.985428, 40.748817, -73.985428, 40.748817},
			distance: 0,
		},
		{
			name:     "one degree of latitude",
			lonlats:  []float64{-74, 40, -74, 41},
			distance: 2 * math.Pi * earthRadius / 360,
		},
		{
			name:     "midtown to jfk",
			lonlats:  []float64{-73.985428, 40.748817, -73.778139, 40.641311},
			distance: 21.173,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			distance := Distance(test.lonlats[0], test.lonlats[1], test.lonlats[2], test.lonlats[3])
			assert.InDelta(t, test.distance, distance, 0.001)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	d1 := Distance(-73.99, 40.73, -73.95, 40.77)
	d2 := Distance(-73.95, 40.77, -73.99, 40.73)
	assert.InDelta(t, d1, d2, 1e-12)
}

func BenchmarkDistance(b *testing.B) {
	lonlats := []float64{-73.985428, 40.748817, -73.778139, 40.641311}
	for n := 0; n < b.N; n++ {
		Distance(lonlats[0], lonlats[1], lonlats[2], lonlats[3])
	}
}
