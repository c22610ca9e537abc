package tracking

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func promptWindow(amplitude, noiseStd float64, seed int64) []complex128 {
	rng := rand.New(rand.NewSource(seed))
	window := make([]complex128, cn0Window)
	for i := range window {
		window[i] = complex(amplitude+rng.NormFloat64()*noiseStd, rng.NormFloat64()*noiseStd)
	}
	return window
}

func TestCN0SNVEstimatorHighSignalHigherThanLowSignal(t *testing.T) {
	strong := promptWindow(1000, 5, 1)
	weak := promptWindow(50, 5, 2)

	strongCN0 := cn0SNVEstimator(strong, 2e6, CodeLengthChips)
	weakCN0 := cn0SNVEstimator(weak, 2e6, CodeLengthChips)

	assert.Greater(t, strongCN0, weakCN0)
}

func TestCN0SNVEstimatorGuardsZeroNoise(t *testing.T) {
	window := make([]complex128, cn0Window)
	for i := range window {
		window[i] = complex(1, 0)
	}
	assert.Equal(t, 0.0, cn0SNVEstimator(window, 2e6, CodeLengthChips))
}

func TestCarrierLockIndicatorLockedVsUnlocked(t *testing.T) {
	locked := make([]complex128, cn0Window)
	for i := range locked {
		locked[i] = complex(10, 0.1)
	}
	unlocked := make([]complex128, cn0Window)
	rng := rand.New(rand.NewSource(3))
	for i := range unlocked {
		angle := rng.Float64() * 2 * math.Pi
		unlocked[i] = complex(10*math.Cos(angle), 10*math.Sin(angle))
	}

	lockedScore := carrierLockIndicator(locked)
	unlockedScore := carrierLockIndicator(unlocked)

	assert.Greater(t, lockedScore, carrierLockThresh)
	assert.Less(t, unlockedScore, lockedScore)
}

func TestCarrierLockIndicatorGuardsZeroPower(t *testing.T) {
	window := make([]complex128, cn0Window)
	assert.Equal(t, 0.0, carrierLockIndicator(window))
}

