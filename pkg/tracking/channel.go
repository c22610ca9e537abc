package tracking

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Phase is the tracking channel's lifecycle state.
type Phase int

const (
	Idle Phase = iota
	PullIn
	Tracking
	Lost
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case PullIn:
		return "PullIn"
	case Tracking:
		return "Tracking"
	case Lost:
		return "Lost"
	default:
		return "Unknown"
	}
}

// SampleSource is the channel's view of the inbound complex baseband
// sample stream, supplied by a signal source or conditioner upstream.
// Read behaves like io.Reader: it fills buf as far as
// it can and returns the number of samples written; an error
// (including io.EOF) ends the stream.
type SampleSource interface {
	Read(buf []complex128) (int, error)
}

// Channel is the per-satellite tracking driver: it owns the PRN code
// table, the carrier/code NCO state, the EPL correlator inputs, the
// DLL/PLL loop filters and the lock/C/N0 estimator, and drives them
// through one epoch per Process call.
//
// A Channel is driven by a single goroutine at a time; it is not safe
// for concurrent use.
type Channel struct {
	id     uint32
	cfg    ChannelConfig
	logger logrus.FieldLogger
	queue  *ControlQueue
	runID  string
	dumper *Dumper

	code GuardedCode

	pllFilter LoopFilter
	dllFilter LoopFilter

	acq   AcquisitionHandoff
	phase Phase

	stopRequested atomic.Bool

	// One-shot pull-in bookkeeping.
	pullInSamplesRemaining int
	pullInComputed         bool

	// Mutable tracking state.
	sampleCounter           uint64
	carrierDopplerHz        float64
	codeFreqChipsPerS       float64
	remCodePhaseSamples     float64
	remCarrPhaseRad         float64
	accCarrierPhaseRad      float64
	accCodePhaseSecs        float64
	currentPrnLengthSamples int

	replica replicaSet // valid for the life of the channel under PreSampled

	promptBuffer [cn0Window]complex128
	cn0Index     int

	cn0DbHz          float64
	carrierLockTest  float64
	lockFailCounter  int

	lastLoggedSecond int64

	scratch []complex128 // reusable discard/read buffer
}

// NewChannel constructs a tracking channel. Buffers are sized from
// cfg.VectorLength; a degenerate (non-positive) size — which
// cfg.Validate already rejects — would surface here as
// ErrAllocationFailed, since buffer allocation happens once at
// construction and any failure there is fatal.
func NewChannel(id uint32, cfg ChannelConfig, queue *ControlQueue, logger logrus.FieldLogger) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scratchLen := cfg.VectorLength * 2
	if scratchLen <= 0 {
		return nil, fmt.Errorf("%w: non-positive scratch buffer size", ErrAllocationFailed)
	}

	c := &Channel{
		id:                      id,
		cfg:                     cfg,
		logger:                  logger,
		queue:                   queue,
		phase:                   Idle,
		currentPrnLengthSamples: cfg.VectorLength,
		codeFreqChipsPerS:       CodeRateChipsPerS,
		scratch:                 make([]complex128, scratchLen),
	}

	if cfg.Dump {
		d, err := NewDumper(cfg.DumpFilename, id, logger)
		if err != nil {
			if logger != nil {
				logger.WithError(err).Warn("dump disabled: could not open dump file")
			}
		} else {
			c.dumper = d
		}
	}

	return c, nil
}

// ID returns the channel's identifier, used in control events and the
// dump filename.
func (c *Channel) ID() uint32 { return c.id }

// SetRunID stamps the correlation ID a Runner assigns this channel;
// it is attached to every ControlEvent the channel posts.
func (c *Channel) SetRunID(runID string) { c.runID = runID }

// Phase returns the channel's current lifecycle state.
func (c *Channel) Phase() Phase { return c.phase }

// Stop requests a transition to Idle at the next epoch boundary: there
// is no synchronous cancellation inside the core, only this
// cooperative flag checked at the top of Process.
func (c *Channel) Stop() { c.stopRequested.Store(true) }

// StartTracking reads the acquisition hand-off record once and moves
// the channel from Idle (or Lost) to PullIn. It rejects a stale
// acquisition (ErrAcquisitionStale) by returning an error and leaving
// the channel's phase unchanged.
func (c *Channel) StartTracking(acq AcquisitionHandoff) error {
	if err := acq.Validate(); err != nil {
		return err
	}
	if acq.AcqSampleStamp > c.sampleCounter {
		return fmt.Errorf("%w: acq_sample_stamp=%d sample_counter=%d", ErrAcquisitionStale, acq.AcqSampleStamp, c.sampleCounter)
	}

	code, err := NewGuardedCode(acq.PRN)
	if err != nil {
		return err
	}

	c.code = code
	c.acq = acq
	c.carrierDopplerHz = acq.AcqDopplerHz
	c.phase = PullIn
	c.pullInComputed = false
	c.pullInSamplesRemaining = 0

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"channel_id": c.id,
			"prn":        acq.PRN,
			"system":     acq.SystemTag,
		}).Info("start tracking requested, entering pull-in")
	}

	return nil
}

// Process drives one epoch of the state machine, reading from src as
// needed, and returns exactly one Measurement per call.
func (c *Channel) Process(src SampleSource) (Measurement, error) {
	if c.phase == Tracking && c.stopRequested.Swap(false) {
		c.phase = Idle
	}

	switch c.phase {
	case Idle, Lost:
		return c.processIdle(src)
	case PullIn:
		return c.processPullIn(src)
	case Tracking:
		return c.processTracking(src)
	default:
		return c.processIdle(src)
	}
}

// processIdle echoes the acquisition record, consumes the entire input
// block, and returns.
func (c *Channel) processIdle(src SampleSource) (Measurement, error) {
	n, err := readUpTo(src, c.scratch[:c.cfg.VectorLength])
	c.sampleCounter += uint64(n)
	meas := newNullMeasurement(c.id, c.acq)
	if err != nil {
		return meas, err
	}
	return meas, nil
}

// processPullIn performs the one-shot pull-in alignment step. Because a
// real sample stream may deliver fewer samples per call than
// the computed discard offset, the offset is computed once and then
// drained across as many Process calls as it takes; no tracking state
// besides the discard countdown is touched until the offset is fully
// consumed.
func (c *Channel) processPullIn(src SampleSource) (Measurement, error) {
	if !c.pullInComputed {
		c.computePullInOffset()
		c.pullInComputed = true
	}

	if c.pullInSamplesRemaining > 0 {
		want := c.pullInSamplesRemaining
		if want > len(c.scratch) {
			want = len(c.scratch)
		}
		n, err := readUpTo(src, c.scratch[:want])
		c.sampleCounter += uint64(n)
		c.pullInSamplesRemaining -= n
		if err != nil {
			return newNullMeasurement(c.id, c.acq), err
		}
		if c.pullInSamplesRemaining > 0 {
			// Not enough samples arrived yet to finish the discard;
			// stay in PullIn and report the same echo measurement.
			return newNullMeasurement(c.id, c.acq), nil
		}
	}

	c.finishPullIn()
	c.phase = Tracking
	return c.processTracking(src)
}

// computePullInOffset computes the discard offset against the
// *nominal* current_prn_length_samples, then recomputes
// current_prn_length_samples and the acquisition code phase for the
// Doppler actually observed at acquisition.
func (c *Channel) computePullInOffset() {
	acqToTrkDelay := c.sampleCounter - c.acq.AcqSampleStamp

	prnLen := float64(c.currentPrnLengthSamples)
	shiftCorrection := prnLen - fmodPositive(float64(acqToTrkDelay), prnLen)
	samplesOffset := roundToInt(c.acq.AcqCodePhaseSamples + shiftCorrection)
	if samplesOffset < 0 {
		samplesOffset = 0
	}
	c.pullInSamplesRemaining = samplesOffset // advance happens as we drain

	// Doppler-corrected PRN period and code-phase slip.
	radialVelocity := (L1FreqHz + c.acq.AcqDopplerHz) / L1FreqHz
	codeFreqMod := radialVelocity * CodeRateChipsPerS
	tPrnModSeconds := CodeLengthChips / codeFreqMod
	tPrnModSamples := tPrnModSeconds * c.cfg.FsInHz
	c.currentPrnLengthSamples = roundToInt(tPrnModSamples)
	c.codeFreqChipsPerS = codeFreqMod

	tPrnTrueSeconds := CodeLengthChips / CodeRateChipsPerS
	tPrnTrueSamples := tPrnTrueSeconds * c.cfg.FsInHz
	nPrnDiff := (float64(acqToTrkDelay) / c.cfg.FsInHz) / tPrnTrueSeconds

	corrected := fmodC(c.acq.AcqCodePhaseSamples+(tPrnTrueSeconds-tPrnModSeconds)*nPrnDiff*c.cfg.FsInHz, tPrnTrueSamples)
	delayCorrectionSamples := c.acq.AcqCodePhaseSamples - corrected
	if corrected < 0 {
		corrected += tPrnModSamples
	}
	c.acq.AcqCodePhaseSamples = corrected

	if c.logger != nil {
		// delay_correction_samples is logged only, never stored on the
		// channel: nothing downstream consumes it as state.
		c.logger.WithFields(logrus.Fields{
			"channel_id":               c.id,
			"pull_in_doppler_hz":       c.carrierDopplerHz,
			"delay_correction_samples": delayCorrectionSamples,
			"pull_in_code_phase":       c.acq.AcqCodePhaseSamples,
		}).Info("pull-in alignment computed")
	}
}

// finishPullIn performs filter init, state reset, and one-shot replica
// pre-sampling.
func (c *Channel) finishPullIn() {
	switch c.cfg.FilterBackend {
	case TCPFilterBackend:
		c.pllFilter = NewTCPFilter(c.cfg.TCPFilterAddr, c.logger)
		c.dllFilter = NewTCPFilter(c.cfg.TCPFilterAddr, c.logger)
	default:
		c.pllFilter = NewPLLFilter(c.cfg.PllBwHz)
		c.dllFilter = NewDLLFilter(c.cfg.DllBwHz)
	}
	c.pllFilter.Initialize()
	c.dllFilter.Initialize()

	c.remCodePhaseSamples = 0
	c.remCarrPhaseRad = 0
	c.accCarrierPhaseRad = 0
	c.accCodePhaseSecs = 0
	c.lockFailCounter = 0
	c.cn0Index = 0

	if c.cfg.ReplicaPolicy == PreSampled {
		margin := int(math.Ceil(1.1 * float64(c.cfg.VectorLength)))
		if margin < c.currentPrnLengthSamples {
			margin = c.currentPrnLengthSamples
		}
		c.replica = preSampleReplica(c.code, margin, CodeRateChipsPerS, c.cfg.FsInHz, c.cfg.EarlyLateSpcChips)
	}
}

// processTracking runs one steady-state tracking epoch.
func (c *Channel) processTracking(src SampleSource) (Measurement, error) {
	n := c.currentPrnLengthSamples
	if n > len(c.scratch) {
		n = len(c.scratch)
	}
	samples := c.scratch[:n]
	read, readErr := readUpTo(src, samples)
	if read < n {
		samples = samples[:read]
	}

	carrier := make([]complex128, len(samples))
	phaseStep := TwoPi * c.carrierDopplerHz / c.cfg.FsInHz
	NCO(carrier, c.remCarrPhaseRad, phaseStep)

	var replica replicaSet
	if c.cfg.ReplicaPolicy == Regenerate {
		replica = regenerateReplica(c.code, len(samples), c.remCodePhaseSamples, c.codeFreqChipsPerS, c.cfg.FsInHz, c.cfg.EarlyLateSpcChips)
	} else {
		// PreSampled: slice the fixed pull-in buffer down to this
		// epoch's length; the buffer itself is never rebuilt, so
		// regenerateReplica stays unreachable under this policy.
		n := len(samples)
		replica = replicaSet{early: c.replica.early[:n], prompt: c.replica.prompt[:n], late: c.replica.late[:n]}
	}

	early, prompt, late := Correlate(samples, carrier, replica.early, replica.prompt, replica.late)

	carrErrCycles := pllTwoQuadrantDiscriminator(prompt) / TwoPi
	carrErrFiltHz := c.pllFilter.Update(carrErrCycles)
	c.carrierDopplerHz = c.acq.AcqDopplerHz + carrErrFiltHz
	c.codeFreqChipsPerS = CodeRateChipsPerS + (c.carrierDopplerHz * CodeRateChipsPerS / L1FreqHz)
	c.accCarrierPhaseRad += TwoPi * c.carrierDopplerHz * CodePeriodSecs
	c.remCarrPhaseRad = fmodC(c.remCarrPhaseRad+TwoPi*c.carrierDopplerHz*CodePeriodSecs, TwoPi)

	codeErrChips := dllNormalizedEarlyMinusLate(early, late)
	codeErrFiltChipsPerS := c.dllFilter.Update(codeErrChips)
	codeErrFiltSecs := CodePeriodSecs * codeErrFiltChipsPerS / CodeRateChipsPerS
	c.accCodePhaseSecs += codeErrFiltSecs

	tPrnSamples := c.cfg.FsInHz / c.codeFreqChipsPerS * CodeLengthChips
	kBlkSamples := tPrnSamples + c.remCodePhaseSamples + codeErrFiltSecs*c.cfg.FsInHz
	c.currentPrnLengthSamples = roundToInt(kBlkSamples)
	c.clampEpochLength()
	c.remCodePhaseSamples = kBlkSamples - float64(c.currentPrnLengthSamples)

	c.promptBuffer[c.cn0Index] = prompt
	c.cn0Index++
	if c.cn0Index >= cn0Window {
		c.cn0Index = 0
		c.cn0DbHz = cn0SNVEstimator(c.promptBuffer[:], c.cfg.FsInHz, CodeLengthChips)
		c.carrierLockTest = carrierLockIndicator(c.promptBuffer[:])

		if c.carrierLockTest < carrierLockThresh || c.cn0DbHz < minimumValidCN0 {
			c.lockFailCounter++
		} else if c.lockFailCounter > 0 {
			c.lockFailCounter--
		}

		if c.lockFailCounter > maxLockFailCounter {
			c.lockFailCounter = 0
			c.phase = Lost
			if c.logger != nil {
				c.logger.WithField("channel_id", c.id).Warn("loss of lock")
			}
			if c.queue != nil {
				_ = c.queue.Post(ControlEvent{ChannelID: c.id, EventCode: LossOfLock, RunID: c.runID})
			}
		}
	}

	meas := Measurement{
		PRN:                   c.acq.PRN,
		SystemTag:             c.acq.SystemTag,
		ChannelID:             c.id,
		PromptI:               real(prompt),
		PromptQ:               imag(prompt),
		TrackingTimestampSecs: (float64(c.sampleCounter) + float64(c.currentPrnLengthSamples) + c.remCodePhaseSamples) / c.cfg.FsInHz,
		CodePhaseSecs:         0,
		CarrierPhaseRads:      c.accCarrierPhaseRad,
		CarrierDopplerHz:      c.carrierDopplerHz,
		CN0DbHz:               c.cn0DbHz,
	}

	if c.dumper != nil {
		_ = c.dumper.Write(DumpRecord{
			EarlyAbs:               float32(cmplxAbs(early)),
			PromptAbs:              float32(cmplxAbs(prompt)),
			LateAbs:                float32(cmplxAbs(late)),
			PromptI:                float32(real(prompt)),
			PromptQ:                float32(imag(prompt)),
			SampleCounter:          c.sampleCounter,
			AccCarrierPhaseRad:     float32(c.accCarrierPhaseRad),
			CarrierDopplerHz:       float32(c.carrierDopplerHz),
			CodeFreqChips:          float32(c.codeFreqChipsPerS),
			CarrErrRaw:             float32(carrErrCycles),
			CarrErrFilt:            float32(carrErrFiltHz),
			CodeErrRaw:             float32(codeErrChips),
			CodeErrFilt:            float32(codeErrFiltChipsPerS),
			CN0DbHz:                float32(c.cn0DbHz),
			CarrierLockTest:        float32(c.carrierLockTest),
			RemCodePhaseSamples:    float32(c.remCodePhaseSamples),
			SampleCounterPlusBlock: float64(c.sampleCounter) + float64(c.currentPrnLengthSamples),
		})
	}

	c.sampleCounter += uint64(len(samples))
	c.logProgress()

	if readErr != nil {
		return meas, readErr
	}
	return meas, nil
}

// clampEpochLength defensively keeps current_prn_length_samples within
// ±10% of vector_length while Tracking. Under any realistic Doppler
// this never triggers; it is a guard against pathological
// configuration or synthetic test input, not part of nominal
// operation.
func (c *Channel) clampEpochLength() {
	lo := int(0.9 * float64(c.cfg.VectorLength))
	hi := int(math.Ceil(1.1 * float64(c.cfg.VectorLength)))
	if c.currentPrnLengthSamples < lo {
		if c.logger != nil {
			c.logger.WithField("channel_id", c.id).Warn("epoch length clamped to lower bound")
		}
		c.currentPrnLengthSamples = lo
	} else if c.currentPrnLengthSamples > hi {
		if c.logger != nil {
			c.logger.WithField("channel_id", c.id).Warn("epoch length clamped to upper bound")
		}
		c.currentPrnLengthSamples = hi
	}
}

// logProgress emits one Info line per second of processed signal,
// mirroring the original tracking block's periodic Doppler/CN0 log
// line.
func (c *Channel) logProgress() {
	if c.logger == nil || c.cfg.FsInHz == 0 {
		return
	}
	second := int64(float64(c.sampleCounter) / c.cfg.FsInHz)
	if second == c.lastLoggedSecond {
		return
	}
	c.lastLoggedSecond = second
	c.logger.WithFields(logrus.Fields{
		"channel_id": c.id,
		"prn":        c.acq.PRN,
		"doppler_hz": c.carrierDopplerHz,
		"cn0_db_hz":  c.cn0DbHz,
		"gps_time":   gpsTimeOfWeekString(time.Now()),
	}).Info("tracking progress")
}

// Close releases the channel's dump file, if any.
func (c *Channel) Close() error {
	if c.dumper != nil {
		return c.dumper.Close()
	}
	return nil
}

// readUpTo fills buf from src, looping while src reports short reads
// without error, and returns however many samples were actually
// obtained.
func readUpTo(src SampleSource, buf []complex128) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := src.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
