package fareml

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Split partitions examples into a training and an evaluation subset.
// Each example goes to training with probability fraction, independently of the others,
// so subset sizes vary with the seed. The draw of an example depends only on the seed,
// its position and its key, which makes a split reproducible.
func Split(examples []LabeledExample, fraction float64, seed uint64) (training, evaluation []LabeledExample, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("train fraction %v should be between 0 and 1 exclusive", fraction)
	}

	for i, ex := range examples {
		if draw(seed, i, ex.Key) < fraction {
			training = append(training, ex)
		} else {
			evaluation = append(evaluation, ex)
		}
	}
	return training, evaluation, nil
}

// draw returns a uniform number in [0,1) derived from the seed, the position and the key
func draw(seed uint64, position int, key string) float64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(position))

	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(key)
	// keep the 53 high bits, the precision of a float64 mantissa
	return float64(d.Sum64()>>11) / (1 << 53)
}
