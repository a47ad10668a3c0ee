package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnomalyFlagBoundary(t *testing.T) {
	f := NewAnomalyFlagger(0)

	assert.True(t, f.Flag([]int64{0, 0, 1_000_000_000, 0, 0, 0, 0}))
	assert.False(t, f.Flag([]int64{999_999_999, 999_999_999, 0, 0, 0, 0, 0}))
	assert.False(t, f.Flag(nil))
}

func TestAnomalyFlagSingleSpikeSuffices(t *testing.T) {
	f := NewAnomalyFlagger(100)
	assert.True(t, f.Flag([]int64{0, 0, 0, 0, 0, 0, 100}))
}

func TestAnomalyThresholdNotCumulative(t *testing.T) {
	f := NewAnomalyFlagger(100)
	// The week sums past the threshold but no single day reaches it.
	assert.False(t, f.Flag([]int64{90, 90, 90, 90, 90, 90, 90}))
}

func TestNewAnomalyFlaggerDefaults(t *testing.T) {
	assert.Equal(t, DefaultAnomalyThresholdBytes, NewAnomalyFlagger(0).ThresholdBytes)
	assert.Equal(t, DefaultAnomalyThresholdBytes, NewAnomalyFlagger(-5).ThresholdBytes)
	assert.Equal(t, int64(42), NewAnomalyFlagger(42).ThresholdBytes)
}
