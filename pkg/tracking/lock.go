package tracking

import "math"

// cn0SNVEstimator computes the Signal-to-Noise-Variance C/N0 estimate
// over a window of Prompt samples:
//
//	Pd = mean(|P|)^2
//	Pn = mean(|P|^2) - Pd
//	SNR = Pd / Pn
//	C/N0 dB-Hz = 10*log10(SNR) + 10*log10(fsInHz/chipsPerCode)
func cn0SNVEstimator(window []complex128, fsInHz, chipsPerCode float64) float64 {
	n := float64(len(window))

	var sumAbs, sumAbsSq float64
	for _, p := range window {
		a := cmplxAbs(p)
		sumAbs += a
		sumAbsSq += a * a
	}

	meanAbs := sumAbs / n
	meanAbsSq := sumAbsSq / n

	pd := meanAbs * meanAbs
	pn := meanAbsSq - pd
	if pn <= 0 {
		// NumericalGuardTripped: treat as no discernible noise floor
		// rather than producing +Inf/NaN.
		return 0
	}

	snr := pd / pn
	return 10*math.Log10(snr) + 10*math.Log10(fsInHz/chipsPerCode)
}

// carrierLockIndicator computes the narrow-band carrier lock test
// statistic over a window of Prompt samples:
//
//	NBD = (sum P.real)^2 - (sum P.imag)^2
//	NBP = (sum P.real)^2 + (sum P.imag)^2
//	return NBD/NBP  (in [-1, 1], near 1 when locked)
func carrierLockIndicator(window []complex128) float64 {
	var sumRe, sumIm float64
	for _, p := range window {
		sumRe += real(p)
		sumIm += imag(p)
	}

	nbd := sumRe*sumRe - sumIm*sumIm
	nbp := sumRe*sumRe + sumIm*sumIm
	if nbp == 0 {
		return 0
	}
	return nbd / nbp
}
