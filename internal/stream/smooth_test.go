package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoothFirstSamplePassesThrough(t *testing.T) {
	t.Parallel()

	for _, factor := range []float64{0.75, 0.9, 1.0} {
		assert.Equal(t, 12.5, Smooth(0, false, 12.5, factor))
	}
}

func TestSmoothFullWeightFreezesOutput(t *testing.T) {
	t.Parallel()

	// factor 1.0 gives the new reading zero weight.
	assert.Equal(t, 5.0, Smooth(5, true, 100, 1.0))
}

func TestSmoothBlendsTowardRaw(t *testing.T) {
	t.Parallel()

	// 0.75*4 + 0.25*8
	assert.InDelta(t, 5.0, Smooth(4, true, 8, 0.75), 1e-12)
	// 0.9*10 + 0.1*20
	assert.InDelta(t, 11.0, Smooth(10, true, 20, 0.9), 1e-12)
}
