// Package pcm provides types and utilities for working with PCM (Pulse Code Modulation) audio data.
//
// The package defines audio formats for common configurations (16-bit mono
// at 16, 24 and 48 kHz) and the float32 to 16-bit conversion used when model
// output is serialized.
//
// Key types:
//   - Format: Represents audio format (sample rate, channels, bit depth)
//   - ConvertStats: Counters produced by float to L16 conversion
//
// Example usage:
//
//	// Convert synthesized float samples to L16
//	data, stats := pcm.AppendL16(nil, samples)
//
//	// Calculate bytes needed for 20ms of audio
//	bytes := pcm.L16Mono24K.BytesInDuration(20 * time.Millisecond)
package pcm
