package tracking

import (
	"fmt"
	"time"
)

// gpsEpoch is the GPS time reference epoch, 1980-01-06 00:00:00 UTC.
var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

const secondsPerWeek = 7 * 86400

// gpsTimeOfWeek converts a calendar instant to a GPS week number and
// seconds-of-week, used only to make log lines human-readable. It is
// never part of a Measurement: TrackingTimestampSecs stays a
// receiver-relative sample count with no calendar meaning.
func gpsTimeOfWeek(t time.Time) (week int, secOfWeek float64) {
	totalSec := t.Sub(gpsEpoch).Seconds()
	week = int(totalSec / secondsPerWeek)
	secOfWeek = totalSec - float64(week)*secondsPerWeek
	return week, secOfWeek
}

// gpsTimeOfWeekString renders the current GPS week/time-of-week for a
// log line.
func gpsTimeOfWeekString(t time.Time) string {
	week, tow := gpsTimeOfWeek(t)
	return fmt.Sprintf("week %d tow %.3f", week, tow)
}
