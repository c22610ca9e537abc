package tracking

import "math"

// pllTwoQuadrantDiscriminator implements pll_cloop_two_quadrant_atan:
// atan(P.imag/P.real) in radians, guarding the zero-real-part case by
// returning ±pi/2 per the sign of the imaginary part.
func pllTwoQuadrantDiscriminator(p complex128) float64 {
	re, im := real(p), imag(p)
	if re == 0 {
		if im >= 0 {
			return math.Pi / 2
		}
		return -math.Pi / 2
	}
	return math.Atan(im / re)
}

// dllNormalizedEarlyMinusLate implements dll_nc_e_minus_l_normalized:
// (|E|-|L|)/(|E|+|L|), returning 0 when both magnitudes vanish rather
// than dividing by zero. Not an error condition.
func dllNormalizedEarlyMinusLate(early, late complex128) float64 {
	e, l := cmplxAbs(early), cmplxAbs(late)
	denom := e + l
	if denom == 0 {
		return 0
	}
	return (e - l) / denom
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
