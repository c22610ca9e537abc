package tracking

import "math"

// NCO writes N complex samples of a numerically controlled oscillator
// into out, starting at initialPhaseRad and stepping by phaseStepRad
// each sample: out[i] = exp(-j*(initialPhase + i*phaseStep)). The sign
// is chosen so that multiplying against a baseband sample performs
// carrier wipe-off directly.
//
// Phase is accumulated in float64 regardless of the complex128 output
// type so that drift over one PRN period (~4000 samples at typical
// sample rates) stays well under 1e-4 rad.
func NCO(out []complex128, initialPhaseRad, phaseStepRad float64) {
	phase := initialPhaseRad
	for i := range out {
		s, c := math.Sincos(phase)
		out[i] = complex(c, -s)
		phase += phaseStepRad
	}
}
