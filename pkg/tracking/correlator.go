package tracking

// Correlate computes the Early, Prompt and Late complex correlations of
// samples against the carrier wipe-off replica and the three code
// replicas. All five slices must have equal length; Correlate does not
// assume any particular memory alignment of samples — the caller's
// buffers may be unaligned.
func Correlate(samples, carrier, earlyCode, promptCode, lateCode []complex128) (early, prompt, late complex128) {
	n := len(samples)
	for i := 0; i < n; i++ {
		wiped := samples[i] * carrier[i]
		early += wiped * earlyCode[i]
		prompt += wiped * promptCode[i]
		late += wiped * lateCode[i]
	}
	return early, prompt, late
}
