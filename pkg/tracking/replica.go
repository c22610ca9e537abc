package tracking

// replicaSet holds the Early, Prompt and Late local code replicas for
// one epoch (or, under PreSampled, for the life of the channel).
type replicaSet struct {
	early, prompt, late []complex128
}

// buildEPL fills an early/prompt/late triple of length n from a
// guarded C/A code, starting the code-phase ramp at tcodeStartChips and
// stepping by codePhaseStepChips, offset by ±earlyLateSpcChips. This
// loop is shared by both the pull-in pre-sampling step and the
// standard variant's per-epoch regeneration.
func buildEPL(code GuardedCode, n int, tcodeStartChips, codePhaseStepChips, earlyLateSpcChips float64) replicaSet {
	earlyLateSpcSamples := roundToInt(earlyLateSpcChips / codePhaseStepChips)
	loopLen := n + 2*earlyLateSpcSamples

	buf := make([]complex128, loopLen)
	tcode := tcodeStartChips
	for i := 0; i < loopLen; i++ {
		buf[i] = code.ChipAt(tcode - earlyLateSpcChips)
		tcode += codePhaseStepChips
	}

	rs := replicaSet{
		early:  append([]complex128(nil), buf[:n]...),
		prompt: append([]complex128(nil), buf[earlyLateSpcSamples:earlyLateSpcSamples+n]...),
		late:   append([]complex128(nil), buf[2*earlyLateSpcSamples:2*earlyLateSpcSamples+n]...),
	}
	return rs
}

// preSampleReplica builds the one-shot E/P/L buffer for the PreSampled
// policy, at pull-in, sampled at the nominal code rate with no code
// Doppler compensation. It remains valid for the life of the channel;
// chip-rate drift is absorbed by rem_code_phase.
//
// bufferLength is sized with headroom above the PRN length observed at
// pull-in (the channel passes at least ceil(1.1*vector_length)) because
// current_prn_length_samples keeps adapting slightly every epoch even
// though the replica itself is never rebuilt; each epoch simply slices
// the first currentPrnLengthSamples elements out of this buffer.
func preSampleReplica(code GuardedCode, bufferLength int, codeFreqChipsPerS, fsInHz, earlyLateSpcChips float64) replicaSet {
	codePhaseStepChips := codeFreqChipsPerS / fsInHz
	return buildEPL(code, bufferLength, 0, codePhaseStepChips, earlyLateSpcChips)
}

// regenerateReplica rebuilds the E/P/L buffers for the current epoch
// under the Regenerate policy, only reachable when
// ChannelConfig.ReplicaPolicy == Regenerate.
func regenerateReplica(code GuardedCode, currentPrnLengthSamples int, remCodePhaseSamples, codeFreqChipsPerS, fsInHz, earlyLateSpcChips float64) replicaSet {
	codePhaseStepChips := codeFreqChipsPerS / fsInHz
	remCodePhaseChips := remCodePhaseSamples * (codeFreqChipsPerS / fsInHz)
	tcodeStart := -remCodePhaseChips
	return buildEPL(code, currentPrnLengthSamples, tcodeStart, codePhaseStepChips, earlyLateSpcChips)
}
