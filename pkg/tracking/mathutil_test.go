package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFmodCMatchesCSemantics(t *testing.T) {
	assert.InDelta(t, 1.0, fmodC(5, 2), 1e-12)
	assert.InDelta(t, -1.0, fmodC(-5, 2), 1e-12)
}

func TestFmodPositiveAlwaysNonNegative(t *testing.T) {
	assert.InDelta(t, 1.0, fmodPositive(-1, 2), 1e-12)
	assert.InDelta(t, 1.0, fmodPositive(5, 2), 1e-12)
	assert.GreaterOrEqual(t, fmodPositive(-1023.5, 1023), 0.0)
}

func TestRoundToIntHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 1, roundToInt(0.5))
	assert.Equal(t, -1, roundToInt(-0.5))
	assert.Equal(t, 2, roundToInt(1.6))
}
