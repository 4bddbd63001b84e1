package kitten

// SampleRate is the output rate of the KittenTTS models.
const SampleRate = 24000

const (
	// QuietThreshold is the peak below which output is normalized.
	QuietThreshold = 0.1
	// NormalizedPeak is the peak of normalized output.
	NormalizedPeak = 0.5
)

// Sanitize replaces every NaN or infinite sample with 0 in place and
// returns how many were replaced.
func Sanitize(samples []float32) int {
	n := 0
	for i, s := range samples {
		if !finite(s) {
			samples[i] = 0
			n++
		}
	}
	return n
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// NormalizeQuiet scales samples in place so the peak becomes NormalizedPeak
// when it is below QuietThreshold. Silence is left alone. It reports whether
// samples were scaled. Samples must already be finite.
func NormalizeQuiet(samples []float32) bool {
	peak := Peak(samples)
	if peak == 0 || peak >= QuietThreshold {
		return false
	}
	gain := NormalizedPeak / float64(peak)
	for i, s := range samples {
		samples[i] = float32(float64(s) * gain)
	}
	return true
}
