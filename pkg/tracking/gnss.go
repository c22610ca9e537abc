package tracking

import "math"

// GPS L1 C/A constants shared by the code generator, correlator and
// channel state machine. Names follow the GPS_L1_CA.h convention used
// throughout the GNSS-SDR tracking-loop literature.
const (
	L1FreqHz          = 1575.42e6 // GPS L1 carrier frequency
	CodeLengthChips   = 1023      // chips per C/A period
	CodeRateChipsPerS = 1.023e6   // nominal C/A chipping rate
	CodePeriodSecs    = 1e-3      // nominal PRN period, T_code

	cn0Window          = 20 // CN0_WINDOW
	maxLockFailCounter = 50 // MAX_LOCK_FAIL
	carrierLockThresh  = 0.85
	minimumValidCN0    = 25.0

	// TwoPi is 2*pi, used throughout the carrier phase bookkeeping.
	TwoPi = 2 * math.Pi
)
