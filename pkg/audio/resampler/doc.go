// Package resampler converts mono audio between sample rates using the pure
// Go go-audio-resampling library (no CGO dependency).
//
// Two entry points are provided:
//   - Samples resamples float32 samples, as produced by the TTS model
//   - L16 resamples little-endian 16-bit PCM bytes, as decoded from WAV
//
// Both return a new buffer whose length is the input length scaled by
// dstRate/srcRate, rounded to the nearest sample.
//
// Example usage:
//
//	out, err := resampler.Samples(samples, 24000, 48000)
//	if err != nil {
//	    return err
//	}
package resampler
