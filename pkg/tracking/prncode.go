package tracking

import "fmt"

// caTaps holds the two-tap G2 feedback positions (1-indexed, per
// IS-GPS-200) used to select each PRN's unique code phase. Index 0 is
// unused so PRN numbers index directly.
var caTaps = [33][2]int{
	{}, // PRN 0 unused
	{2, 6}, {3, 7}, {4, 8}, {5, 9}, {1, 9}, {2, 10}, {1, 8}, {2, 9}, {3, 10}, {2, 3},
	{3, 4}, {5, 6}, {6, 7}, {7, 8}, {8, 9}, {9, 10}, {1, 4}, {2, 5}, {3, 6}, {4, 7},
	{5, 8}, {6, 9}, {1, 3}, {4, 6}, {5, 7}, {6, 8}, {7, 9}, {8, 10}, {1, 6}, {2, 7},
	{3, 8}, {4, 9},
}

// GenerateCA deterministically produces the 1023-chip GPS L1 C/A Gold
// code for prn (1..32), mapped to ±1 as complex128 (real part ±1,
// imaginary part 0). The generator is pure: no hidden state survives
// between calls.
func GenerateCA(prn int) ([CodeLengthChips]complex128, error) {
	var out [CodeLengthChips]complex128

	if prn < 1 || prn >= len(caTaps) {
		return out, fmt.Errorf("%w: unknown PRN %d", ErrConfigInvalid, prn)
	}

	var g1, g2 [10]int
	for i := range g1 {
		g1[i] = 1
		g2[i] = 1
	}

	tap1, tap2 := caTaps[prn][0]-1, caTaps[prn][1]-1

	for i := 0; i < CodeLengthChips; i++ {
		g1out := g1[9]
		g2out := g2[tap1] ^ g2[tap2]

		chip := g1out ^ g2out
		if chip == 0 {
			out[i] = complex(1, 0)
		} else {
			out[i] = complex(-1, 0)
		}

		// Advance G1: x^10+x^3+1.
		g1fb := g1[9] ^ g1[2]
		copy(g1[1:], g1[:9])
		g1[0] = g1fb

		// Advance G2: x^10+x^9+x^8+x^6+x^3+x^2+1.
		g2fb := g2[9] ^ g2[8] ^ g2[7] ^ g2[5] ^ g2[2] ^ g2[1]
		copy(g2[1:], g2[:9])
		g2[0] = g2fb
	}

	return out, nil
}

// GuardedCode is the 1025-element C/A sequence the channel keeps with
// a one-chip guard at each end: index 0 mirrors chip 1023 and index
// 1024 mirrors chip 1, so indexing by round(fmod(x, 1023))+1 never
// runs out of bounds when x drifts slightly negative or past the code
// period.
type GuardedCode [CodeLengthChips + 2]complex128

// NewGuardedCode builds the guarded buffer for prn.
func NewGuardedCode(prn int) (GuardedCode, error) {
	var g GuardedCode

	code, err := GenerateCA(prn)
	if err != nil {
		return g, err
	}

	copy(g[1:CodeLengthChips+1], code[:])
	g[0] = g[CodeLengthChips]
	g[CodeLengthChips+1] = g[1]

	return g, nil
}

// ChipAt returns the code value at fractional chip index x, wrapping
// through the guarded buffer the way the channel's replica builders
// do: index = 1 + round(fmod(x, 1023)).
func (g GuardedCode) ChipAt(x float64) complex128 {
	idx := 1 + roundToInt(fmodC(x, CodeLengthChips))
	if idx < 0 {
		idx = 0
	}
	if idx > CodeLengthChips+1 {
		idx = CodeLengthChips + 1
	}
	return g[idx]
}
