// Package audio provides audio processing utilities.
//
// This package serves as an umbrella for audio-related sub-packages:
//
//   - pcm: PCM format handling and float to 16-bit conversion
//   - wav: canonical 16-bit PCM WAV encoding and decoding
//   - resampler: sample rate conversion for playback devices
//   - portaudio: blocking output streams on the host audio device
//   - playback: plays encoded WAV payloads on an output sink
//
// Example usage:
//
//	import (
//	    "github.com/xih/designer-search-sub000/pkg/audio/pcm"
//	    "github.com/xih/designer-search-sub000/pkg/audio/wav"
//	)
//
//	data, _ := wav.Encode(samples, 24000)
//	n := pcm.L16Mono24K.Samples(int64(len(data) - wav.HeaderSize))
package audio
