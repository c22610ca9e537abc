package tracking

// Measurement is the per-epoch output record handed to the downstream
// observables / PVT consumer. It is not what the binary dump writes:
// dump.go serializes the separate DumpRecord type, which carries the
// prompt I/Q, Doppler and C/N0 alongside raw correlator and
// discriminator values, but not the PRN, system tag, channel ID or
// timestamp fields of this struct.
type Measurement struct {
	PRN        int
	SystemTag  string
	ChannelID  uint32
	PromptI    float64
	PromptQ    float64
	// TrackingTimestampSecs is aligned with the PRN start sample:
	// (sample_counter + current_prn_length_samples + rem_code_phase_samples) / fs_in.
	TrackingTimestampSecs float64
	// CodePhaseSecs is always 0: this tracking implementation aligns
	// the timestamp with the PRN start sample.
	CodePhaseSecs    float64
	CarrierPhaseRads float64
	CarrierDopplerHz float64
	CN0DbHz          float64
}

// newNullMeasurement builds the echo measurement emitted while a
// channel is Idle: a copy of the acquisition record with no
// tracking-derived fields populated.
func newNullMeasurement(channelID uint32, acq AcquisitionHandoff) Measurement {
	return Measurement{
		PRN:       acq.PRN,
		SystemTag: acq.SystemTag,
		ChannelID: channelID,
	}
}
