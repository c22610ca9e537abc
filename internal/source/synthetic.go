package source

import (
	"io"
	"math"
	"math/rand"

	"github.com/bramburn/gnss-tracking/pkg/tracking"
)

// Synthetic generates a continuous stream of GPS L1 C/A baseband
// samples for a single PRN: a Doppler-shifted carrier times a
// code-phase-shifted C/A sequence, plus complex Gaussian noise scaled
// to the requested carrier-to-noise density ratio. It has no end: Read
// never returns io.EOF on its own, only after Close.
type Synthetic struct {
	code      tracking.GuardedCode
	fsInHz    float64
	dopplerHz float64
	codePhase float64 // current chip-phase offset, advances every sample
	carrPhase float64
	noiseStd  float64

	rng    *rand.Rand
	closed bool
}

// NewSynthetic builds a synthetic source for prn at sample rate fsInHz,
// with the given carrier Doppler and C/N0 target in dB-Hz. seed makes
// the noise sequence reproducible across test runs.
func NewSynthetic(prn int, fsInHz, dopplerHz, cn0DbHz float64, seed int64) (*Synthetic, error) {
	code, err := tracking.NewGuardedCode(prn)
	if err != nil {
		return nil, err
	}

	// Invert the SNV C/N0 formula for a unit-amplitude signal to pick a
	// noise standard deviation. One Prompt sums N = fs*T_code samples, so
	// its SNR is N/noiseVar: C/N0 = 10log10(N/noiseVar) + 10log10(fs/chipsPerCode).
	noiseVar := fsInHz * tracking.CodePeriodSecs / math.Pow(10, (cn0DbHz-10*math.Log10(fsInHz/tracking.CodeLengthChips))/10)
	if noiseVar < 0 {
		noiseVar = 0
	}

	return &Synthetic{
		code:      code,
		fsInHz:    fsInHz,
		dopplerHz: dopplerHz,
		noiseStd:  math.Sqrt(noiseVar / 2), // split between I and Q
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Read fills buf with synthetic baseband samples.
func (s *Synthetic) Read(buf []complex128) (int, error) {
	if s.closed {
		return 0, io.EOF
	}

	codeStepChips := tracking.CodeRateChipsPerS * (1 + s.dopplerHz/tracking.L1FreqHz) / s.fsInHz
	carrStep := 2 * math.Pi * s.dopplerHz / s.fsInHz

	for i := range buf {
		chip := s.code.ChipAt(s.codePhase)
		cs, cc := math.Sincos(s.carrPhase)
		carrier := complex(cc, cs)

		noise := complex(s.rng.NormFloat64()*s.noiseStd, s.rng.NormFloat64()*s.noiseStd)
		buf[i] = chip*carrier + noise

		s.codePhase += codeStepChips
		s.carrPhase += carrStep
	}
	return len(buf), nil
}

// Close ends the stream: the next Read returns io.EOF.
func (s *Synthetic) Close() error {
	s.closed = true
	return nil
}
