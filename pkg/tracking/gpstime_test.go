package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGpsTimeOfWeekAtEpoch(t *testing.T) {
	week, tow := gpsTimeOfWeek(gpsEpoch)
	assert.Equal(t, 0, week)
	assert.InDelta(t, 0.0, tow, 1e-9)
}

func TestGpsTimeOfWeekAfterOneWeekPlusRemainder(t *testing.T) {
	instant := gpsEpoch.Add(7*24*time.Hour + 3661*time.Second)
	week, tow := gpsTimeOfWeek(instant)
	assert.Equal(t, 1, week)
	assert.InDelta(t, 3661.0, tow, 1e-6)
}

func TestGpsTimeOfWeekBeforeEpochGoesNegative(t *testing.T) {
	instant := gpsEpoch.Add(-1 * time.Hour)
	week, tow := gpsTimeOfWeek(instant)
	assert.Equal(t, 0, week)
	assert.InDelta(t, -3600.0, tow, 1e-6)
}

func TestGpsTimeOfWeekStringFormat(t *testing.T) {
	instant := gpsEpoch.Add(2*7*24*time.Hour + 90*time.Minute)
	s := gpsTimeOfWeekString(instant)
	assert.Equal(t, "week 2 tow 5400.000", s)
}
