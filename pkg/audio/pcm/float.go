package pcm

import (
	"math"
)

// ConvertStats reports how float samples were mapped to 16-bit integers.
type ConvertStats struct {
	// Samples is the number of samples converted.
	Samples int
	// Clamped counts finite samples whose magnitude exceeded 1.0.
	Clamped int
	// Invalid counts NaN and infinite samples, which are written as silence.
	Invalid int
}

// L16FromFloat converts one float sample in [-1, 1] to a signed 16-bit value.
//
// Non-finite samples become 0. In-range samples scale by 32767, rounded to
// the nearest integer. Samples above 1 clamp to 32767 and samples below -1
// clamp to -32768, the int16 minimum.
func L16FromFloat(s float32) (v int16, clamped, invalid bool) {
	f := float64(s)
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, false, true
	case f > 1:
		return math.MaxInt16, true, false
	case f < -1:
		return math.MinInt16, true, false
	}
	return int16(math.Round(f * 32767)), false, false
}

// AppendL16 appends the little-endian 16-bit encoding of samples to dst.
func AppendL16(dst []byte, samples []float32) ([]byte, ConvertStats) {
	stats := ConvertStats{Samples: len(samples)}
	for _, s := range samples {
		v, clamped, invalid := L16FromFloat(s)
		if clamped {
			stats.Clamped++
		}
		if invalid {
			stats.Invalid++
		}
		dst = append(dst, byte(v), byte(uint16(v)>>8))
	}
	return dst, stats
}

// Int16s decodes little-endian 16-bit PCM bytes. A trailing odd byte is
// ignored.
func Int16s(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return out
}
