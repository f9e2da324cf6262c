package lanes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedianFloat64_OddCount(t *testing.T) {
	assert.Equal(t, 2.0, medianFloat64([]float64{3, 1, 2}))
}

func TestMedianFloat64_EvenCount(t *testing.T) {
	assert.Equal(t, 2.5, medianFloat64([]float64{1, 2, 3, 4}))
}

func TestMedianFloat64_Empty(t *testing.T) {
	assert.Equal(t, 0.0, medianFloat64(nil))
}

func TestMedianFloat64_Single(t *testing.T) {
	assert.Equal(t, 7.0, medianFloat64([]float64{7}))
}

func TestAbs(t *testing.T) {
	assert.Equal(t, 3.0, abs(-3.0))
	assert.Equal(t, 3.0, abs(3.0))
	assert.Equal(t, 0.0, abs(0.0))
}

func TestNewExactLane_DefaultsThresholds(t *testing.T) {
	lane := NewExactLane(nil, nil, 0, 0)
	assert.Equal(t, 20, lane.strongMatchHashes)
	assert.Equal(t, 8, lane.minAlignedHashes)
}

func TestNewExactLane_KeepsExplicitThresholds(t *testing.T) {
	lane := NewExactLane(nil, nil, 50, 15)
	assert.Equal(t, 50, lane.strongMatchHashes)
	assert.Equal(t, 15, lane.minAlignedHashes)
}
