package tracking

// LoopFilter is the single-input, single-output, stateful filter
// interface shared by the DLL and PLL discriminator filters. A
// LoopFilter is owned by exactly one channel and is not safe for
// concurrent use. The interface also lets a filter be swapped for the
// TCP-connector backend in tcpfilter.go.
type LoopFilter interface {
	// Initialize zeroes the filter's internal accumulators.
	Initialize()
	// Update feeds one discriminator error sample and returns the
	// filtered correction.
	Update(errSample float64) float64
}

// secondOrderFilter is a second-order loop filter parameterized by
// natural frequency wn = bw/0.53 and damping zeta = 0.707. It
// implements the standard two-accumulator digital loop filter used for
// both the DLL and the PLL in GNSS-SDR; only the bandwidth differs
// between the two instantiations.
type secondOrderFilter struct {
	bwHz float64

	// Coefficients derived from bwHz, computed once in Initialize.
	a2, a3 float64

	// Two accumulators: the integral state (acc1) and the most recent
	// filtered output (prevOut).
	acc1    float64
	prevOut float64
}

const loopDamping = 0.707

// newSecondOrderFilter builds a loop filter for the given loop
// bandwidth and initializes it.
func newSecondOrderFilter(bwHz float64) *secondOrderFilter {
	f := &secondOrderFilter{bwHz: bwHz}
	f.Initialize()
	return f
}

// Initialize zeroes the accumulators and (re)derives the filter
// coefficients from the configured bandwidth.
func (f *secondOrderFilter) Initialize() {
	wn := f.bwHz / 0.53
	f.a2 = 2 * loopDamping * wn // 2*zeta*wn with zeta=0.707 -> sqrt(2)*wn
	f.a3 = wn * wn
	f.acc1 = 0
	f.prevOut = 0
}

// Update applies one iteration of the second-order filter:
//
//	acc1 += a3 * T * err
//	out  = a2*err + acc1
//
// with T = CodePeriodSecs, the epoch length: a discrete PI controller
// tuned for natural frequency wn and damping zeta.
func (f *secondOrderFilter) Update(errSample float64) float64 {
	f.acc1 += f.a3 * CodePeriodSecs * errSample
	out := f.a2*errSample + f.acc1
	f.prevOut = out
	return out
}

// NewPLLFilter builds the second-order carrier phase loop filter for
// the given PLL loop bandwidth in Hz.
func NewPLLFilter(pllBwHz float64) LoopFilter { return newSecondOrderFilter(pllBwHz) }

// NewDLLFilter builds the second-order code delay loop filter for the
// given DLL loop bandwidth in Hz.
func NewDLLFilter(dllBwHz float64) LoopFilter { return newSecondOrderFilter(dllBwHz) }
