package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecondOrderFilterZeroErrorStaysZero(t *testing.T) {
	f := newSecondOrderFilter(10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0.0, f.Update(0))
	}
}

func TestSecondOrderFilterInitializeResetsState(t *testing.T) {
	f := newSecondOrderFilter(10)
	f.Update(1)
	f.Update(1)
	assert.NotEqual(t, 0.0, f.prevOut)

	f.Initialize()
	assert.Equal(t, 0.0, f.prevOut)
	assert.Equal(t, 0.0, f.acc1)
}

func TestSecondOrderFilterConvergesUnderConstantError(t *testing.T) {
	f := newSecondOrderFilter(18)
	var out float64
	for i := 0; i < 100; i++ {
		out = f.Update(0.01)
	}
	assert.Greater(t, out, 0.0)
}

func TestPLLAndDLLFilterConstructors(t *testing.T) {
	pll := NewPLLFilter(25)
	dll := NewDLLFilter(2)
	assert.NotNil(t, pll)
	assert.NotNil(t, dll)
	assert.NotEqual(t, pll.Update(1), dll.Update(1))
}
