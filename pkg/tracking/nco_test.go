package tracking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNCOZeroPhaseZeroStep(t *testing.T) {
	out := make([]complex128, 4)
	NCO(out, 0, 0)
	for i, s := range out {
		assert.InDelta(t, 1.0, real(s), 1e-12, "sample %d", i)
		assert.InDelta(t, 0.0, imag(s), 1e-12, "sample %d", i)
	}
}

func TestNCOQuarterCycleStep(t *testing.T) {
	out := make([]complex128, 4)
	NCO(out, 0, math.Pi/2)

	expected := []complex128{
		complex(1, 0),
		complex(0, -1),
		complex(-1, 0),
		complex(0, 1),
	}
	for i := range out {
		assert.InDelta(t, real(expected[i]), real(out[i]), 1e-9, "sample %d", i)
		assert.InDelta(t, imag(expected[i]), imag(out[i]), 1e-9, "sample %d", i)
	}
}

func TestNCOUnitMagnitude(t *testing.T) {
	out := make([]complex128, 4000)
	NCO(out, 0.37, 0.0123)
	for i, s := range out {
		assert.InDelta(t, 1.0, cmplxAbs(s), 1e-9, "sample %d", i)
	}
}
